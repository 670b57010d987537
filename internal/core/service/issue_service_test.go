package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

func seedIssue(t *testing.T, svc *IssueService, overrides func(*ports.ReportIssueInput)) *domain.CivicIssue {
	t.Helper()
	in := ports.ReportIssueInput{
		Type:       "Pothole",
		Location:   "MG Road",
		ReportedBy: "u1",
	}
	if overrides != nil {
		overrides(&in)
	}
	issue, err := svc.Report(context.Background(), in)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return issue
}

func TestIssueService_Report(t *testing.T) {
	repo := newStubIssueRepo()
	svc := NewIssueService(repo, zerolog.Nop())

	issue := seedIssue(t, svc, func(in *ports.ReportIssueInput) { in.Description = "  deep  " })

	if issue.ID == "" {
		t.Fatal("expected an id")
	}
	if issue.Status != domain.IssuePending {
		t.Errorf("expected pending, got %s", issue.Status)
	}
	if issue.Priority != domain.PriorityMedium {
		t.Errorf("expected default priority medium, got %s", issue.Priority)
	}
	if issue.Description != "deep" {
		t.Errorf("expected trimmed description, got %q", issue.Description)
	}
	if _, ok := repo.issues[issue.ID]; !ok {
		t.Error("expected issue to be persisted")
	}
}

func TestIssueService_Report_Validation(t *testing.T) {
	svc := NewIssueService(newStubIssueRepo(), zerolog.Nop())
	ctx := context.Background()

	bad := []ports.ReportIssueInput{
		{Type: "", Location: "MG Road"},
		{Type: "Pothole", Location: "  "},
		{Type: "Pothole", Location: "MG Road", Priority: "urgent"},
	}
	for _, in := range bad {
		if _, err := svc.Report(ctx, in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("input %+v: expected ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestIssueService_UpdateStatus_Transitions(t *testing.T) {
	repo := newStubIssueRepo()
	svc := NewIssueService(repo, zerolog.Nop())
	ctx := context.Background()
	issue := seedIssue(t, svc, nil)

	got, err := svc.UpdateStatus(ctx, issue.ID, "in_progress")
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if got.Status != domain.IssueInProgress {
		t.Fatalf("expected in_progress, got %s", got.Status)
	}

	if _, err := svc.UpdateStatus(ctx, issue.ID, "pending"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition going backwards, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, issue.ID, "resolved"); err != nil {
		t.Fatalf("UpdateStatus to resolved returned error: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, issue.ID, "resolved"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from resolved, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, issue.ID, "closed"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "missing", "resolved"); !errors.Is(err, domain.ErrIssueNotFound) {
		t.Fatalf("expected ErrIssueNotFound, got %v", err)
	}
}

func TestIssueService_Assign(t *testing.T) {
	repo := newStubIssueRepo()
	svc := NewIssueService(repo, zerolog.Nop())
	ctx := context.Background()
	issue := seedIssue(t, svc, nil)

	got, err := svc.Assign(ctx, issue.ID, "dept-1")
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if got.AssignedTo != "dept-1" || repo.issues[issue.ID].AssignedTo != "dept-1" {
		t.Fatalf("expected assignment to dept-1")
	}
	if _, err := svc.Assign(ctx, issue.ID, "dept-99"); !errors.Is(err, domain.ErrDepartmentNotFound) {
		t.Fatalf("expected ErrDepartmentNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// List tests
// ---------------------------------------------------------------------------

func TestIssueService_List_Filters(t *testing.T) {
	repo := newStubIssueRepo()
	svc := NewIssueService(repo, zerolog.Nop())
	ctx := context.Background()

	seedIssue(t, svc, func(in *ports.ReportIssueInput) { in.ReportedBy = "u1" })
	seedIssue(t, svc, func(in *ports.ReportIssueInput) { in.ReportedBy = "u2"; in.Type = "Garbage" })

	res, err := svc.List(ctx, ports.ListIssuesInput{ReportedBy: "u2"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 || res.Items[0].Type != "Garbage" {
		t.Errorf("expected only u2's issue, got %+v", res)
	}

	res, err = svc.List(ctx, ports.ListIssuesInput{Status: "all"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 2 {
		t.Errorf("expected 2 issues for status=all, got %d", res.Total)
	}
	if repo.lastList.Status != "" {
		t.Errorf("expected status=all to clear the filter, got %q", repo.lastList.Status)
	}

	if _, err := svc.List(ctx, ports.ListIssuesInput{Status: "closed"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}

func TestIssueService_List_LimitCappedAt100(t *testing.T) {
	svc := NewIssueService(newStubIssueRepo(), zerolog.Nop())

	res, err := svc.List(context.Background(), ports.ListIssuesInput{Limit: 999, Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.Limit != 100 {
		t.Errorf("expected limit 100, got %d", res.Limit)
	}
}

func TestIssueService_List_DefaultLimit(t *testing.T) {
	svc := NewIssueService(newStubIssueRepo(), zerolog.Nop())

	res, err := svc.List(context.Background(), ports.ListIssuesInput{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Limit != 20 || res.Page != 1 {
		t.Errorf("expected default page 1 limit 20, got page %d limit %d", res.Page, res.Limit)
	}
}

func TestIssueService_List_PaginationMath(t *testing.T) {
	svc := NewIssueService(newStubIssueRepo(), zerolog.Nop())
	for i := 0; i < 5; i++ {
		seedIssue(t, svc, nil)
	}

	res, err := svc.List(context.Background(), ports.ListIssuesInput{Limit: 2, Page: 3})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 5 {
		t.Errorf("total: expected 5, got %d", res.Total)
	}
	if res.TotalPages != 3 {
		t.Errorf("total_pages: expected 3, got %d", res.TotalPages)
	}
	if len(res.Items) != 1 {
		t.Errorf("items on last page: expected 1, got %d", len(res.Items))
	}
}
