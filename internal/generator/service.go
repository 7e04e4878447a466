package generator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/flashlearn/internal/domain"
)

// GenerationStore records generator calls.
type GenerationStore interface {
	InsertGeneration(ctx context.Context, g *domain.Generation) error
}

// Service runs a generator under a spend budget and records every call.
type Service struct {
	gen    Generator
	costs  *CostTracker
	store  GenerationStore
	now    func() time.Time
	logger *slog.Logger
}

func NewService(gen Generator, costs *CostTracker, store GenerationStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, costs: costs, store: store, now: time.Now, logger: logger}
}

// Generated is the outcome of a successful generation. Drafts are not
// stored; the user accepts them by creating flashcards that reference
// GenerationID.
type Generated struct {
	GenerationID string
	Drafts       []domain.Draft
	Model        string
	CostUSD      float64
}

// Generate validates text, checks the budget, calls the generator and
// records the call.
func (s *Service) Generate(ctx context.Context, userID domain.UserID, text string) (*Generated, error) {
	words, err := CheckSource(text)
	if err != nil {
		return nil, err
	}
	if s.costs != nil {
		if err := s.costs.Check(ctx, s.now()); err != nil {
			return nil, err
		}
	}

	rec := &domain.Generation{
		ID:          uuid.NewString(),
		UserID:      userID,
		Model:       s.gen.ModelID(),
		SourceWords: words,
		CreatedAt:   s.now(),
	}

	res, genErr := s.gen.Generate(ctx, text)
	if genErr != nil {
		rec.Status = domain.GenerationFailed
		rec.Error = genErr.Error()
		if err := s.store.InsertGeneration(ctx, rec); err != nil {
			return nil, errors.Join(genErr, err)
		}
		return nil, genErr
	}

	rec.Status = domain.GenerationCompleted
	rec.Model = res.Model
	rec.GeneratedCount = len(res.Drafts)
	rec.TokensUsed = res.Usage.TotalTokens
	rec.CostUSD = CostOf(res.Model, res.Usage)
	if err := s.store.InsertGeneration(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("generation recorded",
		"user_id", userID,
		"generation_id", rec.ID,
		"count", rec.GeneratedCount,
		"cost_usd", rec.CostUSD,
	)
	return &Generated{
		GenerationID: rec.ID,
		Drafts:       res.Drafts,
		Model:        rec.Model,
		CostUSD:      rec.CostUSD,
	}, nil
}
