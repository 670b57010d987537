package sessionstore

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

// IssueQuery filters the issue list. Zero values are omitted.
type IssueQuery struct {
	Status     string
	Type       string
	Department string
	Mine       bool
	Page       int
	Limit      int
}

func (q IssueQuery) encode() string {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Department != "" {
		v.Set("department", q.Department)
	}
	if q.Mine {
		v.Set("mine", "true")
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

type IssuePage struct {
	Items      []*domain.CivicIssue `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
}

// IssueReport is the body of a new issue report.
type IssueReport struct {
	Type        string   `json:"type"`
	Location    string   `json:"location"`
	Description string   `json:"description,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Priority    string   `json:"priority,omitempty"`
}

type RewardList struct {
	Categories []string        `json:"categories"`
	Items      []domain.Reward `json:"items"`
}

func (c *Client) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	var out domain.DashboardStats
	if err := c.do(ctx, http.MethodGet, "/v1/dashboard", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Departments lists departments, optionally restricted to one type.
func (c *Client) Departments(ctx context.Context, typ string) ([]domain.Department, error) {
	path := "/v1/departments"
	if typ != "" {
		path += "?" + url.Values{"type": {typ}}.Encode()
	}
	var out []domain.Department
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListIssues(ctx context.Context, q IssueQuery) (*IssuePage, error) {
	var out IssuePage
	var err error
	if q.Mine {
		err = c.authorized(ctx, http.MethodGet, "/v1/issues"+q.encode(), nil, &out)
	} else {
		err = c.optional(ctx, http.MethodGet, "/v1/issues"+q.encode(), &out)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ReportIssue(ctx context.Context, r IssueReport) (*domain.CivicIssue, error) {
	var out domain.CivicIssue
	if err := c.authorized(ctx, http.MethodPost, "/v1/issues", r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateIssueStatus(ctx context.Context, id, status string) (*domain.CivicIssue, error) {
	var out domain.CivicIssue
	body := map[string]string{"status": status}
	if err := c.authorized(ctx, http.MethodPatch, "/v1/issues/"+url.PathEscape(id)+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AssignIssue(ctx context.Context, id, departmentID string) (*domain.CivicIssue, error) {
	var out domain.CivicIssue
	body := map[string]string{"department_id": departmentID}
	if err := c.authorized(ctx, http.MethodPatch, "/v1/issues/"+url.PathEscape(id)+"/assign", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Training lists the modules, with the caller's progress when signed in.
func (c *Client) Training(ctx context.Context) ([]ports.ModuleView, error) {
	var out []ports.ModuleView
	if err := c.optional(ctx, http.MethodGet, "/v1/training", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AdvanceTraining(ctx context.Context, moduleID string) (*domain.TrainingProgress, error) {
	var out domain.TrainingProgress
	if err := c.authorized(ctx, http.MethodPost, "/v1/training/"+url.PathEscape(moduleID)+"/advance", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Leaderboard(ctx context.Context, limit int) ([]domain.ReporterStanding, error) {
	path := "/v1/leaderboard"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []domain.ReporterStanding
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Rewards(ctx context.Context, category string) (*RewardList, error) {
	path := "/v1/rewards"
	if category != "" {
		path += "?" + url.Values{"category": {category}}.Encode()
	}
	var out RewardList
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Cart(ctx context.Context) (*domain.Cart, error) {
	var out domain.Cart
	if err := c.authorized(ctx, http.MethodGet, "/v1/cart", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddToCart(ctx context.Context, rewardID string) (*domain.Cart, error) {
	var out domain.Cart
	body := map[string]string{"reward_id": rewardID}
	if err := c.authorized(ctx, http.MethodPost, "/v1/cart/items", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveFromCart(ctx context.Context, rewardID string) (*domain.Cart, error) {
	var out domain.Cart
	if err := c.authorized(ctx, http.MethodDelete, "/v1/cart/items/"+url.PathEscape(rewardID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
