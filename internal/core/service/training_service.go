package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/clickclean/civic-platform/internal/core/catalog"
	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

type TrainingService struct {
	progress ports.ProgressRepository
	logger   zerolog.Logger
	now      func() time.Time
}

func NewTrainingService(progress ports.ProgressRepository, logger zerolog.Logger) *TrainingService {
	return &TrainingService{progress: progress, logger: logger, now: time.Now}
}

// Modules lists the training modules with userID's progress. Anonymous
// callers (empty userID) see every module at zero.
func (s *TrainingService) Modules(ctx context.Context, userID string) ([]ports.ModuleView, error) {
	byModule := map[string]*domain.TrainingProgress{}
	if userID != "" {
		rows, err := s.progress.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, p := range rows {
			byModule[p.ModuleID] = p
		}
	}

	modules := catalog.TrainingModules()
	out := make([]ports.ModuleView, 0, len(modules))
	for _, m := range modules {
		v := ports.ModuleView{TrainingModule: m}
		if p, ok := byModule[m.ID]; ok {
			v.Progress = p.Progress
			v.Completed = p.Completed
		}
		out = append(out, v)
	}
	return out, nil
}

// advanceAttempts bounds the read-modify-write retries of Advance.
const advanceAttempts = 3

// Advance completes one more lesson of a module for userID. Concurrent
// advances of the same module each count once.
func (s *TrainingService) Advance(ctx context.Context, userID, moduleID string) (*domain.TrainingProgress, error) {
	if _, ok := catalog.TrainingModule(moduleID); !ok {
		return nil, domain.ErrModuleNotFound
	}

	for attempt := 1; ; attempt++ {
		p, err := s.progress.Find(ctx, userID, moduleID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			p = &domain.TrainingProgress{UserID: userID, ModuleID: moduleID}
		}

		from := p.Progress
		if !p.Advance(s.now()) {
			return p, nil
		}
		err = s.progress.Save(ctx, p, from)
		if errors.Is(err, domain.ErrProgressConflict) && attempt < advanceAttempts {
			s.logger.Debug().Str("user_id", userID).Str("module_id", moduleID).Int("attempt", attempt).Msg("training progress moved, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		if p.Completed {
			s.logger.Info().Str("user_id", userID).Str("module_id", moduleID).Msg("training module completed")
		}
		return p, nil
	}
}
