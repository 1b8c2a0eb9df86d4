package implementation

import (
	"context"
	"fmt"
	"regexp"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/mapper"
	"kt-assistant-be/internal/model"
	"kt-assistant-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type PgvectorTopicVectorRepositoryImpl struct {
	db     *gorm.DB
	table  string
	mapper *mapper.TopicVectorMapper
}

func NewPgvectorTopicVectorRepository(db *gorm.DB, table string) (contract.TopicVectorRepository, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid vector table name %q", table)
	}
	return &PgvectorTopicVectorRepositoryImpl{
		db:     db,
		table:  table,
		mapper: mapper.NewTopicVectorMapper(),
	}, nil
}

func (r *PgvectorTopicVectorRepositoryImpl) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dimension)
	}
	statements := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id uuid PRIMARY KEY,
			session_id varchar(64) NOT NULL,
			topic text NOT NULL,
			summary text,
			embedding vector(%d)
		)`, r.table, dimension),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_session_id_idx ON %s (session_id)", r.table, r.table),
	}
	db := r.db.WithContext(ctx)
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *PgvectorTopicVectorRepositoryImpl) Upsert(ctx context.Context, vector *entity.TopicVector) error {
	m := r.mapper.ToModel(vector)
	return r.db.WithContext(ctx).Table(r.table).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"session_id", "topic", "summary", "embedding"}),
		}).
		Create(m).Error
}

// Search orders by cosine distance; Score is the cosine similarity.
func (r *PgvectorTopicVectorRepositoryImpl) Search(ctx context.Context, query []float32, limit int) ([]*entity.TopicVector, error) {
	if limit <= 0 {
		limit = 2
	}
	type result struct {
		model.TopicVector
		Score float64
	}
	var results []result

	queryVector := pgvector.NewVector(query)
	err := r.db.WithContext(ctx).
		Table(r.table).
		Select("*, 1 - (embedding <=> ?) AS score", queryVector).
		Order(gorm.Expr("embedding <=> ?", queryVector)).
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	hits := make([]*entity.TopicVector, len(results))
	for i, res := range results {
		hits[i] = r.mapper.ToEntity(&res.TopicVector)
		hits[i].Score = res.Score
	}
	return hits, nil
}

func (r *PgvectorTopicVectorRepositoryImpl) filtered(ctx context.Context, filter contract.TopicVectorFilter) (*gorm.DB, bool) {
	db := r.db.WithContext(ctx).Table(r.table)
	switch {
	case filter.Exclude && len(filter.SessionIds) == 0:
		return db.Session(&gorm.Session{AllowGlobalUpdate: true}), true
	case filter.Exclude:
		return db.Where("session_id NOT IN ?", filter.SessionIds), true
	case len(filter.SessionIds) == 0:
		return nil, false
	default:
		return db.Where("session_id IN ?", filter.SessionIds), true
	}
}

func (r *PgvectorTopicVectorRepositoryImpl) Count(ctx context.Context, filter contract.TopicVectorFilter) (int64, error) {
	db, ok := r.filtered(ctx, filter)
	if !ok {
		return 0, nil
	}
	var count int64
	err := db.Count(&count).Error
	return count, err
}

func (r *PgvectorTopicVectorRepositoryImpl) Delete(ctx context.Context, filter contract.TopicVectorFilter) error {
	db, ok := r.filtered(ctx, filter)
	if !ok {
		return nil
	}
	return db.Delete(&model.TopicVector{}).Error
}
