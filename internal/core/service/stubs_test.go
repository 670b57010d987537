package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs for the ports used by the services
// ---------------------------------------------------------------------------

type stubAuthRepo struct {
	users map[string]*domain.User // keyed by id
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAuthRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

type stubProfileRepo struct {
	profiles  map[string]*domain.Profile
	createErr error
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{profiles: make(map[string]*domain.Profile)}
}

func (r *stubProfileRepo) FindByID(_ context.Context, id string) (*domain.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) FindByIDs(_ context.Context, ids []string) (map[string]*domain.Profile, error) {
	out := make(map[string]*domain.Profile)
	for _, id := range ids {
		if p, ok := r.profiles[id]; ok {
			clone := *p
			out[id] = &clone
		}
	}
	return out, nil
}

func (r *stubProfileRepo) CreateIfAbsent(_ context.Context, p *domain.Profile) (bool, error) {
	if r.createErr != nil {
		return false, r.createErr
	}
	if _, ok := r.profiles[p.ID]; ok {
		return false, nil
	}
	clone := *p
	r.profiles[p.ID] = &clone
	return true, nil
}

func (r *stubProfileRepo) UpdateName(_ context.Context, id, fullName string) (*domain.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	p.FullName = fullName
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	p.Role = role
	clone := *p
	return &clone, nil
}

type stubRefreshStore struct {
	sessions map[string]ports.RefreshSession
}

func newStubRefreshStore() *stubRefreshStore {
	return &stubRefreshStore{sessions: make(map[string]ports.RefreshSession)}
}

func (s *stubRefreshStore) Save(_ context.Context, rs ports.RefreshSession) error {
	s.sessions[rs.Token] = rs
	return nil
}

func (s *stubRefreshStore) Consume(_ context.Context, token string) (*ports.RefreshSession, error) {
	rs, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	delete(s.sessions, token)
	return &rs, nil
}

func (s *stubRefreshStore) DeleteAllForSubject(_ context.Context, subject string) error {
	for tok, rs := range s.sessions {
		if rs.Subject == subject {
			delete(s.sessions, tok)
		}
	}
	return nil
}

type stubRevocationStore struct {
	revoked map[string]int64
	err     error
}

func newStubRevocationStore() *stubRevocationStore {
	return &stubRevocationStore{revoked: make(map[string]int64)}
}

func (s *stubRevocationStore) Revoke(_ context.Context, tokenID string, until int64) error {
	s.revoked[tokenID] = until
	return nil
}

func (s *stubRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.revoked[tokenID]
	return ok, nil
}

type publishedEvent struct {
	Subject string
	Type    domain.SessionEventType
}

type stubPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *stubPublisher) Publish(_ context.Context, subject string, t domain.SessionEventType) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Subject: subject, Type: t})
	return nil
}

func (p *stubPublisher) types() []domain.SessionEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.SessionEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type stubJobQueue struct {
	jobs []ports.ProfileJob
	err  error
}

func (q *stubJobQueue) Enqueue(job ports.ProfileJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type stubDedup struct {
	seen map[string]bool
}

func newStubDedup() *stubDedup {
	return &stubDedup{seen: make(map[string]bool)}
}

func (d *stubDedup) IsDuplicate(_ context.Context, subject string) (bool, error) {
	return d.seen[subject], nil
}

func (d *stubDedup) Mark(_ context.Context, subject string) error {
	d.seen[subject] = true
	return nil
}

type stubIssueRepo struct {
	issues    map[string]*domain.CivicIssue
	order     []string
	createErr error
	lastList  ports.ListIssuesFilter
}

func newStubIssueRepo() *stubIssueRepo {
	return &stubIssueRepo{issues: make(map[string]*domain.CivicIssue)}
}

func (r *stubIssueRepo) Create(_ context.Context, issue *domain.CivicIssue) error {
	if r.createErr != nil {
		return r.createErr
	}
	clone := *issue
	r.issues[issue.ID] = &clone
	r.order = append(r.order, issue.ID)
	return nil
}

func (r *stubIssueRepo) FindByID(_ context.Context, id string) (*domain.CivicIssue, error) {
	i, ok := r.issues[id]
	if !ok {
		return nil, domain.ErrIssueNotFound
	}
	clone := *i
	return &clone, nil
}

func (r *stubIssueRepo) List(_ context.Context, f ports.ListIssuesFilter) ([]*domain.CivicIssue, int64, error) {
	r.lastList = f
	var matched []*domain.CivicIssue
	for _, id := range r.order {
		i := r.issues[id]
		if f.Status != "" && string(i.Status) != f.Status {
			continue
		}
		if f.Type != "" && i.Type != f.Type {
			continue
		}
		if f.AssignedTo != "" && i.AssignedTo != f.AssignedTo {
			continue
		}
		if f.ReportedBy != "" && i.ReportedBy != f.ReportedBy {
			continue
		}
		clone := *i
		matched = append(matched, &clone)
	}
	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := min(start+f.Limit, len(matched))
	return matched[start:end], total, nil
}

func (r *stubIssueRepo) UpdateStatus(_ context.Context, id string, from, to domain.IssueStatus, at time.Time) error {
	i, ok := r.issues[id]
	if !ok {
		return domain.ErrIssueNotFound
	}
	if i.Status != from {
		return domain.ErrInvalidTransition
	}
	i.Status = to
	i.LastUpdate = at
	return nil
}

func (r *stubIssueRepo) Assign(_ context.Context, id, departmentID string, at time.Time) error {
	i, ok := r.issues[id]
	if !ok {
		return domain.ErrIssueNotFound
	}
	i.AssignedTo = departmentID
	i.LastUpdate = at
	return nil
}

func (r *stubIssueRepo) CountByStatus(_ context.Context) (map[domain.IssueStatus]int64, error) {
	out := make(map[domain.IssueStatus]int64)
	for _, i := range r.issues {
		out[i.Status]++
	}
	return out, nil
}

func (r *stubIssueRepo) TopReporters(_ context.Context, limit int) ([]ports.ReporterCount, error) {
	counts := make(map[string]int)
	for _, i := range r.issues {
		if i.Status == domain.IssueResolved && i.ReportedBy != "" {
			counts[i.ReportedBy]++
		}
	}
	out := make([]ports.ReporterCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, ports.ReporterCount{UserID: id, Resolved: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Resolved != out[b].Resolved {
			return out[a].Resolved > out[b].Resolved
		}
		return out[a].UserID < out[b].UserID
	})
	if len(out) > limit {
		cutoff := out[limit-1].Resolved
		n := limit
		for n < len(out) && out[n].Resolved == cutoff {
			n++
		}
		out = out[:n]
	}
	return out, nil
}

type stubProgressRepo struct {
	rows  map[string]*domain.TrainingProgress // keyed by user|module
	saves int
	// beforeSave runs ahead of each compare-and-set, simulating a writer
	// that gets in between Find and Save.
	beforeSave func()
}

func newStubProgressRepo() *stubProgressRepo {
	return &stubProgressRepo{rows: make(map[string]*domain.TrainingProgress)}
}

func (r *stubProgressRepo) Find(_ context.Context, userID, moduleID string) (*domain.TrainingProgress, error) {
	p, ok := r.rows[userID+"|"+moduleID]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (r *stubProgressRepo) Save(_ context.Context, p *domain.TrainingProgress, from int) error {
	if r.beforeSave != nil {
		r.beforeSave()
	}
	stored := 0
	if cur, ok := r.rows[p.UserID+"|"+p.ModuleID]; ok {
		stored = cur.Progress
	}
	if stored != from {
		return domain.ErrProgressConflict
	}
	r.saves++
	clone := *p
	r.rows[p.UserID+"|"+p.ModuleID] = &clone
	return nil
}

func (r *stubProgressRepo) ListByUser(_ context.Context, userID string) ([]*domain.TrainingProgress, error) {
	var out []*domain.TrainingProgress
	for _, p := range r.rows {
		if p.UserID == userID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubProgressRepo) CompletedCounts(_ context.Context, userIDs []string) (map[string]int, error) {
	out := make(map[string]int)
	for _, id := range userIDs {
		for _, p := range r.rows {
			if p.UserID == id && p.Completed {
				out[id]++
			}
		}
	}
	return out, nil
}

type stubCartStore struct {
	carts map[string]map[string]int
}

func newStubCartStore() *stubCartStore {
	return &stubCartStore{carts: make(map[string]map[string]int)}
}

func (s *stubCartStore) Increment(_ context.Context, userID, rewardID string) (int, error) {
	if s.carts[userID] == nil {
		s.carts[userID] = make(map[string]int)
	}
	s.carts[userID][rewardID]++
	return s.carts[userID][rewardID], nil
}

func (s *stubCartStore) Remove(_ context.Context, userID, rewardID string) error {
	delete(s.carts[userID], rewardID)
	return nil
}

func (s *stubCartStore) Items(_ context.Context, userID string) (map[string]int, error) {
	out := make(map[string]int)
	for k, v := range s.carts[userID] {
		out[k] = v
	}
	return out, nil
}
