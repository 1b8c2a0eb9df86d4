package entity

import (
	"sync"
	"sync/atomic"
)

// InterviewContext is the per-connection state of a live interview: the
// session plus its ordered transcript. It is passed by pointer into the
// orchestrator instead of living in any global.
type InterviewContext struct {
	mu         sync.Mutex
	deleted    atomic.Bool
	Session    *Session
	Transcript []*Message
	LastUpload string
}

func NewInterviewContext(session *Session, transcript []*Message) *InterviewContext {
	return &InterviewContext{
		Session:    session,
		Transcript: transcript,
	}
}

func (c *InterviewContext) Lock()   { c.mu.Lock() }
func (c *InterviewContext) Unlock() { c.mu.Unlock() }

// MarkDeleted flags the context as belonging to a deleted session. Holders
// of a stale pointer check Deleted after taking the lock.
func (c *InterviewContext) MarkDeleted() { c.deleted.Store(true) }

func (c *InterviewContext) Deleted() bool { return c.deleted.Load() }

func (c *InterviewContext) Append(msg *Message) {
	c.Transcript = append(c.Transcript, msg)
}
