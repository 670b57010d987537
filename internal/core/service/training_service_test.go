package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

func TestTrainingService_Advance_Sequence(t *testing.T) {
	repo := newStubProgressRepo()
	svc := NewTrainingService(repo, zerolog.Nop())
	ctx := context.Background()

	want := []int{40, 73, 100, 100}
	for i, expected := range want {
		p, err := svc.Advance(ctx, "u1", "module-2")
		if err != nil {
			t.Fatalf("step %d: Advance returned error: %v", i, err)
		}
		if p.Progress != expected {
			t.Fatalf("step %d: expected progress %d, got %d", i, expected, p.Progress)
		}
	}

	p, _ := repo.Find(ctx, "u1", "module-2")
	if !p.Completed || p.CompletedAt == nil {
		t.Fatalf("expected module to be completed, got %+v", p)
	}
	if repo.saves != 3 {
		t.Fatalf("expected no save once completed, got %d saves", repo.saves)
	}
}

func TestTrainingService_Advance_UnknownModule(t *testing.T) {
	svc := NewTrainingService(newStubProgressRepo(), zerolog.Nop())
	if _, err := svc.Advance(context.Background(), "u1", "module-42"); !errors.Is(err, domain.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
}

func TestTrainingService_Modules(t *testing.T) {
	repo := newStubProgressRepo()
	repo.rows["u1|module-3"] = &domain.TrainingProgress{UserID: "u1", ModuleID: "module-3", Progress: 40}
	svc := NewTrainingService(repo, zerolog.Nop())
	ctx := context.Background()

	views, err := svc.Modules(ctx, "u1")
	if err != nil {
		t.Fatalf("Modules returned error: %v", err)
	}
	if len(views) != 5 {
		t.Fatalf("expected 5 modules, got %d", len(views))
	}
	for _, v := range views {
		if v.ID == "module-3" && v.Progress != 40 {
			t.Errorf("expected progress 40 on module-3, got %d", v.Progress)
		}
		if v.ID != "module-3" && v.Progress != 0 {
			t.Errorf("expected zero progress on %s, got %d", v.ID, v.Progress)
		}
	}

	anon, err := svc.Modules(ctx, "")
	if err != nil {
		t.Fatalf("Modules returned error: %v", err)
	}
	for _, v := range anon {
		if v.Progress != 0 {
			t.Errorf("anonymous caller should see zero progress, got %d on %s", v.Progress, v.ID)
		}
	}
}

func TestTrainingService_Advance_ConcurrentStepIsNotLost(t *testing.T) {
	repo := newStubProgressRepo()
	svc := NewTrainingService(repo, zerolog.Nop())

	// Another advance lands between our read and our write.
	raced := false
	repo.beforeSave = func() {
		if raced {
			return
		}
		raced = true
		repo.rows["u1|module-1"] = &domain.TrainingProgress{UserID: "u1", ModuleID: "module-1", Progress: 40}
	}

	p, err := svc.Advance(context.Background(), "u1", "module-1")
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if p.Progress != 73 {
		t.Fatalf("expected both steps to count (73), got %d", p.Progress)
	}
	if got := repo.rows["u1|module-1"].Progress; got != 73 {
		t.Fatalf("expected stored progress 73, got %d", got)
	}
}

func TestTrainingService_Advance_GivesUpAfterRepeatedConflicts(t *testing.T) {
	repo := newStubProgressRepo()
	repo.rows["u1|module-1"] = &domain.TrainingProgress{UserID: "u1", ModuleID: "module-1", Progress: 40}
	repo.beforeSave = func() {
		repo.rows["u1|module-1"].Progress++
	}
	svc := NewTrainingService(repo, zerolog.Nop())

	_, err := svc.Advance(context.Background(), "u1", "module-1")
	if !errors.Is(err, domain.ErrProgressConflict) {
		t.Fatalf("expected ErrProgressConflict, got %v", err)
	}
	if repo.saves != 0 {
		t.Fatalf("expected no successful save, got %d", repo.saves)
	}
}
