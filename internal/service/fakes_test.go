package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/repository/contract"
	"kt-assistant-be/internal/repository/specification"
	"kt-assistant-be/internal/repository/unitofwork"
	"kt-assistant-be/pkg/events"
	"kt-assistant-be/pkg/interview/prompt"
	"kt-assistant-be/pkg/llm"
)

// fakeDB backs the fake unit of work with two in-memory tables.
type fakeDB struct {
	mu       sync.Mutex
	sessions map[string]*entity.Session
	messages []*entity.Message
}

func newFakeDB() *fakeDB {
	return &fakeDB{sessions: map[string]*entity.Session{}}
}

func (d *fakeDB) put(s *entity.Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions[s.Id] = s.Clone()
}

func (d *fakeDB) has(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.sessions[id]
	return ok
}

func (d *fakeDB) messageCount(sessionId string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, m := range d.messages {
		if m.SessionId == sessionId {
			n++
		}
	}
	return n
}

type fakeUowFactory struct {
	db *fakeDB
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{db: f.db}
}

type fakeUow struct {
	db *fakeDB
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) SessionRepository() contract.SessionRepository {
	return &fakeSessionRepo{db: u.db}
}

func (u *fakeUow) MessageRepository() contract.MessageRepository {
	return &fakeMessageRepo{db: u.db}
}

func sessionMatches(s *entity.Session, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if s.Id != sp.ID {
				return false
			}
		case specification.UpdatedBefore:
			if !s.UpdatedAt.Before(sp.Cutoff) {
				return false
			}
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

type fakeSessionRepo struct {
	db *fakeDB
}

func (r *fakeSessionRepo) Upsert(ctx context.Context, session *entity.Session) error {
	r.db.put(session)
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.Session) (bool, error) {
	r.db.mu.Lock()
	_, ok := r.db.sessions[session.Id]
	r.db.mu.Unlock()
	if !ok {
		return false, nil
	}
	r.db.put(session)
	return true, nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.sessions {
		if sessionMatches(s, specs) {
			return s.Clone(), nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Session
	for _, s := range r.db.sessions {
		if sessionMatches(s, specs) {
			out = append(out, s.Clone())
		}
	}
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.OrderBy:
			sort.Slice(out, func(i, j int) bool {
				if sp.Desc {
					return out[i].UpdatedAt.After(out[j].UpdatedAt)
				}
				return out[i].UpdatedAt.Before(out[j].UpdatedAt)
			})
		case specification.Pagination:
			if sp.Offset >= len(out) {
				return []*entity.Session{}, nil
			}
			out = out[sp.Offset:]
			if sp.Limit < len(out) {
				out = out[:sp.Limit]
			}
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) FindIds(ctx context.Context, specs ...specification.Specification) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var ids []string
	for id, s := range r.db.sessions {
		if sessionMatches(s, specs) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeSessionRepo) DeleteByIds(ctx context.Context, ids []string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, id := range ids {
		delete(r.db.sessions, id)
	}
	return nil
}

type fakeMessageRepo struct {
	db *fakeDB
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.sessions[message.SessionId]; !ok {
		return fmt.Errorf("insert message: session %q violates foreign key", message.SessionId)
	}
	c := *message
	r.db.messages = append(r.db.messages, &c)
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []*entity.Message{}
	for _, m := range r.db.messages {
		keep := true
		for _, spec := range specs {
			if sp, ok := spec.(specification.BySessionID); ok && m.SessionId != sp.SessionID {
				keep = false
			}
		}
		if keep {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) DeleteBySessionIds(ctx context.Context, sessionIds []string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.messages[:0]
	for _, m := range r.db.messages {
		if !contains(sessionIds, m.SessionId) {
			kept = append(kept, m)
		}
	}
	r.db.messages = kept
	return nil
}

// scriptedCompleter answers by prompt kind: extraction replies are consumed
// in order, everything else returns a fixed text.
type scriptedCompleter struct {
	mu          sync.Mutex
	extractions []string
	question    string
	summary     string
	answer      string
	qaPrompts   []string
	onExtract   func()
}

func (c *scriptedCompleter) GetCompletion(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	system := messages[0].Content
	switch {
	case system == prompt.AnalyzerSystemPrompt:
		if c.onExtract != nil {
			c.onExtract()
		}
		if len(c.extractions) == 0 {
			return "{}", true
		}
		r := c.extractions[0]
		c.extractions = c.extractions[1:]
		return r, true
	case system == prompt.SummarySystemPrompt():
		return c.summary, true
	case strings.HasPrefix(system, "You are a technical assistant."):
		c.qaPrompts = append(c.qaPrompts, system)
		return c.answer, true
	default:
		return c.question, true
	}
}

func (c *scriptedCompleter) queue(replies ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extractions = append(c.extractions, replies...)
}

type fixedEmbedder struct {
	vector []float32
}

func (f *fixedEmbedder) GetEmbedding(ctx context.Context, text string) []float32 {
	return f.vector
}

func (f *fixedEmbedder) GetQueryEmbedding(ctx context.Context, text string) []float32 {
	return f.vector
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}
