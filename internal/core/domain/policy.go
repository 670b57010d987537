package domain

// Action names a navigation target or operation subject to gating.
type Action string

const (
	ActionViewDashboard     Action = "view_dashboard"
	ActionViewTraining      Action = "view_training"
	ActionViewTracking      Action = "view_tracking"
	ActionViewLeaderboard   Action = "view_leaderboard"
	ActionViewMarketplace   Action = "view_marketplace"
	ActionViewProfile       Action = "view_profile"
	ActionReportIssue       Action = "report_issue"
	ActionAdvanceTraining   Action = "advance_training"
	ActionRedeemReward      Action = "redeem_reward"
	ActionUpdateIssueStatus Action = "update_issue_status"
	ActionAssignIssue       Action = "assign_issue"
	ActionSetRole           Action = "set_role"
)

// Requirement is the predicate attached to an action.
type Requirement struct {
	Authenticated bool
	// Roles restricts the action to the listed roles. Empty means any role.
	Roles []Role
}

// Allows reports whether u satisfies the requirement.
func (r Requirement) Allows(u *ResolvedUser) error {
	if !r.Authenticated && len(r.Roles) == 0 {
		return nil
	}
	if u == nil {
		return ErrLoginRequired
	}
	if len(r.Roles) == 0 {
		return nil
	}
	for _, role := range r.Roles {
		if u.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// AccessPolicy maps actions to their requirements. Actions absent from the
// table are public.
type AccessPolicy map[Action]Requirement

var staff = []Role{RoleMunicipal, RoleAdmin}

// DefaultPolicy is the gating table shared by the API and the client shell.
var DefaultPolicy = AccessPolicy{
	ActionViewDashboard:     {},
	ActionViewTraining:      {},
	ActionViewTracking:      {},
	ActionViewLeaderboard:   {},
	ActionViewMarketplace:   {},
	ActionViewProfile:       {Authenticated: true},
	ActionReportIssue:       {Authenticated: true},
	ActionAdvanceTraining:   {Authenticated: true},
	ActionRedeemReward:      {Authenticated: true},
	ActionUpdateIssueStatus: {Authenticated: true, Roles: staff},
	ActionAssignIssue:       {Authenticated: true, Roles: staff},
	ActionSetRole:           {Authenticated: true, Roles: []Role{RoleAdmin}},
}

// Check returns nil when u may perform action, ErrLoginRequired when the
// caller must sign in first, and ErrForbidden when the role is insufficient.
func (p AccessPolicy) Check(action Action, u *ResolvedUser) error {
	return p[action].Allows(u)
}
