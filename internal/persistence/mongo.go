package persistence

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-tickets/internal/config"
)

// Mongo wraps a connected client and the service database.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewMongo connects and pings the configured deployment.
func NewMongo(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*Mongo, error) {
	timeout := time.Duration(cfg.ConnectTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("connected to mongo", zap.String("database", cfg.Database))
	return &Mongo{Client: client, DB: client.Database(cfg.Database)}, nil
}

// EnsureIndexes creates the lookup indexes the directories rely on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	if m == nil || m.DB == nil {
		return nil
	}
	models := map[string][]mongo.IndexModel{
		"tickets": {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "phoneNumber", Value: 1}}},
		},
		"persons": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "phoneNumber", Value: 1}, {Key: "department", Value: 1}}},
		},
		"locations": {
			{Keys: bson.D{{Key: "phoneNumbers", Value: 1}}},
			{Keys: bson.D{{Key: "emailDomains", Value: 1}}},
		},
	}
	for name, indexes := range models {
		if _, err := m.DB.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return err
		}
	}
	return nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) {
	if m != nil && m.Client != nil {
		_ = m.Client.Disconnect(ctx)
	}
}

// Ping verifies Mongo connectivity.
func (m *Mongo) Ping(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return errors.New("mongo client not configured")
	}
	return m.Client.Ping(ctx, nil)
}
