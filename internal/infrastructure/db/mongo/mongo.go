package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultTimeout = 10 * time.Second

// Config names the deployment and database. AppName shows up in the server
// logs and currentOp output.
type Config struct {
	URI         string
	Database    string
	AppName     string
	MaxPoolSize uint64
	Timeout     time.Duration
}

func (c Config) clientOptions() *options.ClientOptions {
	opts := options.Client().ApplyURI(c.URI)
	if c.AppName != "" {
		opts.SetAppName(c.AppName)
	}
	if c.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(c.MaxPoolSize)
	}
	return opts
}

// Connect dials the deployment and waits for the primary to answer a ping
// before handing out the database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	if cfg.Database == "" {
		return nil, nil, fmt.Errorf("mongo: database name is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, cfg.clientOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}

// Repositories groups every Mongo-backed repository of the platform.
type Repositories struct {
	Auth     *AuthRepository
	Profiles *ProfileRepository
	Issues   *IssueRepository
	Progress *ProgressRepository
}

// NewRepositories builds all repositories over db.
func NewRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Auth:     NewAuthRepository(db),
		Profiles: NewProfileRepository(db),
		Issues:   NewIssueRepository(db),
		Progress: NewProgressRepository(db),
	}
}

// EnsureIndexes creates the indexes of every collection, stopping at the
// first failure.
func (r *Repositories) EnsureIndexes(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"auth_users", r.Auth.EnsureIndexes},
		{"civic_issues", r.Issues.EnsureIndexes},
		{"user_progress", r.Progress.EnsureIndexes},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", s.name, err)
		}
	}
	return nil
}
