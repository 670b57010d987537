package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

type stubIssueService struct {
	reported []ports.ReportIssueInput
	listed   []ports.ListIssuesInput
	updateFn func(id, status string) (*domain.CivicIssue, error)
}

func (s *stubIssueService) Report(_ context.Context, in ports.ReportIssueInput) (*domain.CivicIssue, error) {
	s.reported = append(s.reported, in)
	return &domain.CivicIssue{ID: "i1", Type: in.Type, Status: domain.IssuePending, Priority: domain.Priority(in.Priority)}, nil
}

func (s *stubIssueService) Get(_ context.Context, id string) (*domain.CivicIssue, error) {
	if id != "i1" {
		return nil, domain.ErrIssueNotFound
	}
	return &domain.CivicIssue{ID: id}, nil
}

func (s *stubIssueService) List(_ context.Context, in ports.ListIssuesInput) (*ports.ListIssuesResult, error) {
	s.listed = append(s.listed, in)
	return &ports.ListIssuesResult{Items: []*domain.CivicIssue{{ID: "i1"}}, Total: 1, Page: 1, Limit: 20, TotalPages: 1}, nil
}

func (s *stubIssueService) UpdateStatus(_ context.Context, id, status string) (*domain.CivicIssue, error) {
	return s.updateFn(id, status)
}

func (s *stubIssueService) Assign(_ context.Context, id, departmentID string) (*domain.CivicIssue, error) {
	return &domain.CivicIssue{ID: id, AssignedTo: departmentID}, nil
}

func TestIssueHandler_Create(t *testing.T) {
	e := newTestEcho()
	svc := &stubIssueService{}
	h := NewIssueHandler(svc)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/issues",
		`{"type":"Pothole","location":"Main St","latitude":12.9,"longitude":77.5,"priority":"high"}`), rec)
	withClaims(c, "u1", domain.RoleReporter)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if len(svc.reported) != 1 || svc.reported[0].ReportedBy != "u1" || svc.reported[0].Latitude == nil {
		t.Fatalf("unexpected report input: %+v", svc.reported)
	}
}

func TestIssueHandler_Create_LatitudeOutOfRange(t *testing.T) {
	e := newTestEcho()
	h := NewIssueHandler(&stubIssueService{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/issues",
		`{"type":"Pothole","location":"Main St","latitude":120}`), httptest.NewRecorder())
	withClaims(c, "u1", domain.RoleReporter)

	if code := httpStatus(t, h.Create(c)); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
}

func TestIssueHandler_List_Mine(t *testing.T) {
	e := newTestEcho()
	svc := &stubIssueService{}
	h := NewIssueHandler(svc)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/issues?mine=true&status=pending&page=2", nil), rec)
	withClaims(c, "u1", domain.RoleReporter)

	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	got := svc.listed[0]
	if got.ReportedBy != "u1" || got.Status != "pending" || got.Page != 2 {
		t.Fatalf("unexpected list input: %+v", got)
	}

	var resp listIssuesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestIssueHandler_List_MineAnonymous(t *testing.T) {
	e := newTestEcho()
	h := NewIssueHandler(&stubIssueService{})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/issues?mine=true", nil), httptest.NewRecorder())
	if code := httpStatus(t, h.List(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestIssueHandler_Get_NotFound(t *testing.T) {
	e := newTestEcho()
	h := NewIssueHandler(&stubIssueService{})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/issues/nope", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("nope")

	if err := h.Get(c); !errors.Is(err, domain.ErrIssueNotFound) {
		t.Fatalf("expected ErrIssueNotFound, got %v", err)
	}
}

func TestIssueHandler_UpdateStatus(t *testing.T) {
	e := newTestEcho()
	h := NewIssueHandler(&stubIssueService{
		updateFn: func(id, status string) (*domain.CivicIssue, error) {
			if id != "i1" || status != "resolved" {
				t.Fatalf("unexpected args: %s %s", id, status)
			}
			return &domain.CivicIssue{ID: id, Status: domain.IssueResolved}, nil
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, "/v1/issues/i1/status", `{"status":"resolved"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("i1")

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestIssueHandler_UpdateStatus_UnknownStatus(t *testing.T) {
	e := newTestEcho()
	h := NewIssueHandler(&stubIssueService{})

	c := e.NewContext(jsonRequest(http.MethodPatch, "/v1/issues/i1/status", `{"status":"closed"}`), httptest.NewRecorder())
	if code := httpStatus(t, h.UpdateStatus(c)); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
}

func TestIssueHandler_Assign(t *testing.T) {
	e := newTestEcho()
	h := NewIssueHandler(&stubIssueService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, "/v1/issues/i1/assign", `{"department_id":"roads"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("i1")

	if err := h.Assign(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var got domain.CivicIssue
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.AssignedTo != "roads" {
		t.Fatalf("expected assignment to roads, got %+v", got)
	}
}
