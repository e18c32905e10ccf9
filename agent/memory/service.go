package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

var _ contractx.PlanMemory = (*Service)(nil)

// Service turns plans into memory records and memory back into prompt
// context. It owns every write to the underlying store.
type Service struct {
	store    contractx.MemoryStore
	embedder Embedder
	minScore float64
	now      func() time.Time
}

type ServiceOption func(*Service)

// WithMinScore drops records whose similarity to the query is below score.
func WithMinScore(score float64) ServiceOption {
	return func(s *Service) {
		s.minScore = score
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store contractx.MemoryStore, embedder Embedder, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("memory store is required")
	}
	if embedder == nil {
		embedder = NewHashEmbedder(defaultHashDims)
	}
	s := &Service{
		store:    store,
		embedder: embedder,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// RetrieveContext returns the texts of the k most similar records joined by
// newlines. An empty log yields "" and no error.
func (s *Service) RetrieveContext(ctx context.Context, query string, k int) (string, error) {
	if k <= 0 {
		return "", nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", fmt.Errorf("%w: embed query: %v", contractx.ErrMemoryUnavailable, err)
	}
	if len(vectors) != 1 {
		return "", fmt.Errorf("%w: embedder returned %d vectors", contractx.ErrMemoryUnavailable, len(vectors))
	}

	hits, err := s.store.SimilaritySearch(ctx, vectors[0], k, s.minScore)
	if err != nil {
		return "", fmt.Errorf("%w: similarity search: %v", contractx.ErrMemoryUnavailable, err)
	}

	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Record.Text)
	}
	return strings.Join(texts, "\n"), nil
}

// Save appends one record per assignment. Nothing is deduplicated.
func (s *Service) Save(ctx context.Context, plan contractx.WeeklyPlan) error {
	if len(plan) == 0 {
		return nil
	}

	texts := make([]string, 0, len(plan))
	for _, a := range plan {
		texts = append(texts, RecordText(a))
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed plan: %v", contractx.ErrMemoryUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d records", contractx.ErrMemoryUnavailable, len(vectors), len(texts))
	}

	now := s.now().UTC()
	records := make([]contractx.MemoryRecord, 0, len(plan))
	for i, a := range plan {
		records = append(records, contractx.MemoryRecord{
			ID:   ulid.Make().String(),
			Text: texts[i],
			Metadata: contractx.RecordMetadata{
				Day:      a.Day,
				MealType: a.Meal,
			},
			Embedding: vectors[i],
			CreatedAt: now,
		})
	}

	if err := s.store.Append(ctx, records...); err != nil {
		return fmt.Errorf("%w: append: %v", contractx.ErrMemoryUnavailable, err)
	}

	log.Info().Int("records", len(records)).Msg("plan committed to memory")
	return nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", contractx.ErrMemoryUnavailable, err)
	}
	return n, nil
}

// Search exposes ranked records for inspection tooling.
func (s *Service) Search(ctx context.Context, query string, k int) ([]contractx.ScoredRecord, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) != 1 {
		return nil, fmt.Errorf("%w: embed query: %v", contractx.ErrMemoryUnavailable, err)
	}
	hits, err := s.store.SimilaritySearch(ctx, vectors[0], k, s.minScore)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity search: %v", contractx.ErrMemoryUnavailable, err)
	}
	return hits, nil
}

func (s *Service) Close() error {
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func RecordText(a contractx.MealAssignment) string {
	return fmt.Sprintf("User ate %s for %s on %s", a.ItemName, a.Meal, a.Day)
}
