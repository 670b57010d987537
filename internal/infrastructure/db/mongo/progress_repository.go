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
)

const collectionProgress = "user_progress"

// ProgressRepository implements ports.ProgressRepository using MongoDB.
type ProgressRepository struct {
	col *mongo.Collection
}

func NewProgressRepository(db *mongo.Database) *ProgressRepository {
	return &ProgressRepository{col: db.Collection(collectionProgress)}
}

type mongoProgress struct {
	UserID      string     `bson:"user_id"`
	ModuleID    string     `bson:"module_id"`
	Progress    int        `bson:"progress"`
	Completed   bool       `bson:"completed"`
	CompletedAt *time.Time `bson:"completed_at,omitempty"`
}

func (mp mongoProgress) toDomain() *domain.TrainingProgress {
	return &domain.TrainingProgress{
		UserID:      mp.UserID,
		ModuleID:    mp.ModuleID,
		Progress:    mp.Progress,
		Completed:   mp.Completed,
		CompletedAt: mp.CompletedAt,
	}
}

func (r *ProgressRepository) Find(ctx context.Context, userID, moduleID string) (*domain.TrainingProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mp mongoProgress
	err := r.col.FindOne(ctx, bson.M{"user_id": userID, "module_id": moduleID}).Decode(&mp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find progress: %w", err)
	}
	return mp.toDomain(), nil
}

// Save is a compare-and-set on the progress field. A first save (from == 0)
// upserts; the unique (user_id, module_id) index turns a lost insert race
// into a duplicate key error.
func (r *ProgressRepository) Save(ctx context.Context, p *domain.TrainingProgress, from int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoProgress{
		UserID:      p.UserID,
		ModuleID:    p.ModuleID,
		Progress:    p.Progress,
		Completed:   p.Completed,
		CompletedAt: p.CompletedAt,
	}
	res, err := r.col.ReplaceOne(ctx,
		bson.M{"user_id": p.UserID, "module_id": p.ModuleID, "progress": from},
		doc,
		options.Replace().SetUpsert(from == 0),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrProgressConflict
		}
		return fmt.Errorf("save progress: %w", err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domain.ErrProgressConflict
	}
	return nil
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]*domain.TrainingProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	var docs []mongoProgress
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	out := make([]*domain.TrainingProgress, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// CompletedCounts returns the number of completed modules per user. Users
// with none are absent from the map.
func (r *ProgressRepository) CompletedCounts(ctx context.Context, userIDs []string) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	out := make(map[string]int, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "user_id", Value: bson.D{{Key: "$in", Value: userIDs}}},
			{Key: "completed", Value: true},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$user_id"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate completed modules: %w", err)
	}
	var rows []struct {
		UserID string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode completed modules: %w", err)
	}
	for _, row := range rows {
		out[row.UserID] = row.Count
	}
	return out, nil
}

func (r *ProgressRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "module_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
