package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

const collectionIssues = "civic_issues"

type IssueRepository struct {
	col *mongo.Collection
}

func NewIssueRepository(db *mongo.Database) *IssueRepository {
	return &IssueRepository{col: db.Collection(collectionIssues)}
}

// Create inserts a new issue document.
func (r *IssueRepository) Create(ctx context.Context, issue *domain.CivicIssue) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, issue)
	return err
}

func (r *IssueRepository) FindByID(ctx context.Context, id string) (*domain.CivicIssue, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var issue domain.CivicIssue
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&issue); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIssueNotFound
		}
		return nil, err
	}
	return &issue, nil
}

// List returns a page of issues, newest first, and the total match count.
func (r *IssueRepository) List(ctx context.Context, f ports.ListIssuesFilter) ([]*domain.CivicIssue, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.AssignedTo != "" {
		filter["assigned_to"] = f.AssignedTo
	}
	if f.ReportedBy != "" {
		filter["reported_by"] = f.ReportedBy
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count issues: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date_reported", Value: -1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find issues: %w", err)
	}
	items := make([]*domain.CivicIssue, 0, f.Limit)
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode issues: %w", err)
	}
	return items, total, nil
}

// UpdateStatus applies the transition only if the stored status still
// matches from, so concurrent updates cannot skip a step.
func (r *IssueRepository) UpdateStatus(ctx context.Context, id string, from, to domain.IssueStatus, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "last_update": at.UTC()}},
	)
	if err != nil {
		return fmt.Errorf("update issue status: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("count issue: %w", err)
		}
		if n == 0 {
			return domain.ErrIssueNotFound
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *IssueRepository) Assign(ctx context.Context, id, departmentID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"assigned_to": departmentID, "last_update": at.UTC()}},
	)
	if err != nil {
		return fmt.Errorf("assign issue: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIssueNotFound
	}
	return nil
}

func (r *IssueRepository) CountByStatus(ctx context.Context) (map[domain.IssueStatus]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate status counts: %w", err)
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode status counts: %w", err)
	}

	out := make(map[domain.IssueStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.IssueStatus(row.Status)] = row.Count
	}
	return out, nil
}

// TopReporters groups resolved issues by reporter, most first. It returns the
// top limit reporters plus everyone tied with the last of them, so callers can
// order the cut-off by something other than user id.
func (r *IssueRepository) TopReporters(ctx context.Context, limit int) ([]ports.ReporterCount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	top, err := r.reporterCounts(ctx, bson.D{}, limit)
	if err != nil {
		return nil, err
	}
	if len(top) < limit {
		return top, nil
	}

	cutoff := top[len(top)-1].Resolved
	tied, err := r.reporterCounts(ctx, bson.D{{Key: "resolved", Value: cutoff}}, 0)
	if err != nil {
		return nil, err
	}
	out := make([]ports.ReporterCount, 0, len(top)+len(tied))
	for _, rc := range top {
		if rc.Resolved > cutoff {
			out = append(out, rc)
		}
	}
	return append(out, tied...), nil
}

// reporterCounts aggregates resolved issues per reporter, filtered on the
// grouped rows by having and capped at limit when positive.
func (r *IssueRepository) reporterCounts(ctx context.Context, having bson.D, limit int) ([]ports.ReporterCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "status", Value: string(domain.IssueResolved)},
			{Key: "reported_by", Value: bson.D{{Key: "$nin", Value: bson.A{"", nil}}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$reported_by"},
			{Key: "resolved", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	if len(having) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: having}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: "resolved", Value: -1}, {Key: "_id", Value: 1}}}})
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate top reporters: %w", err)
	}
	var rows []struct {
		UserID   string `bson:"_id"`
		Resolved int    `bson:"resolved"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode top reporters: %w", err)
	}

	out := make([]ports.ReporterCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.ReporterCount{UserID: row.UserID, Resolved: row.Resolved})
	}
	return out, nil
}

// EnsureIndexes creates the indexes used by the list filters and the
// leaderboard aggregation.
func (r *IssueRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "date_reported", Value: -1}}},
		{Keys: bson.D{{Key: "reported_by", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_to", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
