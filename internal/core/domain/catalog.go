package domain

import "time"

// Department is a municipal unit that issues can be assigned to.
type Department struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Location  string  `json:"location"`
	Status    string  `json:"status"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TrainingModule is a civic education lesson.
type TrainingModule struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Content  string `json:"content"`
}

// TrainingProgress records how far a user is through a module.
type TrainingProgress struct {
	UserID      string     `json:"user_id"`
	ModuleID    string     `json:"module_id"`
	Progress    int        `json:"progress"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Advance moves the progress forward by one lesson step: 40 points from a
// fresh start, 33 otherwise, capped at 100. It reports false when the module
// was already complete.
func (p *TrainingProgress) Advance(now time.Time) bool {
	if p.Completed {
		return false
	}
	step := 33
	if p.Progress == 0 {
		step = 40
	}
	p.Progress = min(100, p.Progress+step)
	if p.Progress == 100 {
		p.Completed = true
		t := now.UTC()
		p.CompletedAt = &t
	}
	return true
}

// Reward is a marketplace item redeemable with contribution points.
type Reward struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Points      int    `json:"points"`
	Description string `json:"description"`
}

// CartItem is a reward and the number of times it was added.
type CartItem struct {
	Reward   Reward `json:"reward"`
	Quantity int    `json:"quantity"`
}

// Cart is a user's pending redemptions.
type Cart struct {
	Items       []CartItem `json:"items"`
	TotalItems  int        `json:"total_items"`
	TotalPoints int        `json:"total_points"`
}

// NewCart builds a cart from its items and computes the totals.
func NewCart(items []CartItem) Cart {
	c := Cart{Items: items}
	for _, it := range items {
		c.TotalItems += it.Quantity
		c.TotalPoints += it.Reward.Points * it.Quantity
	}
	return c
}

// ReporterStanding is one leaderboard row.
type ReporterStanding struct {
	Rank              int    `json:"rank"`
	UserID            string `json:"user_id"`
	Name              string `json:"name"`
	IssuesResolved    int    `json:"issues_resolved"`
	TrainingCompleted int    `json:"training_completed"`
}

// DashboardStats summarises platform activity.
type DashboardStats struct {
	TotalIssues     int64                 `json:"total_issues"`
	ByStatus        map[IssueStatus]int64 `json:"by_status"`
	ResolutionRate  int                   `json:"resolution_rate"`
	Departments     int                   `json:"departments"`
	OperationalDeps int                   `json:"operational_departments"`
}
