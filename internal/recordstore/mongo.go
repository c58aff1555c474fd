package recordstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"

	"propgen/internal/types"
)

const defaultMongoDB = "propgen"

// Mongo inserts each batch into one collection.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
	truncate   bool
	logger     *zap.Logger
}

// mongoTarget reads the database from the URI path and the collection from
// the non-standard ?collection= option.
func mongoTarget(uri, fallbackCollection string) (db, coll string, err error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse mongodb uri: %w", err)
	}
	db = cs.Database
	if db == "" {
		db = defaultMongoDB
	}
	coll = fallbackCollection
	if v := cs.UnknownOptions["collection"]; len(v) > 0 && v[0] != "" {
		coll = v[0]
	}
	return db, coll, nil
}

func openMongo(ctx context.Context, uri string, opts Options) (*Mongo, error) {
	dbName, collName, err := mongoTarget(uri, opts.Table)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Mongo{
		client:     client,
		collection: client.Database(dbName).Collection(collName),
		truncate:   opts.Truncate,
		logger:     opts.Logger,
	}, nil
}

func (m *Mongo) Write(ctx context.Context, records []types.PropertyRecord) error {
	dest := m.collection.Database().Name() + "." + m.collection.Name()
	if m.truncate {
		res, err := m.collection.DeleteMany(ctx, bson.D{})
		if err != nil {
			return types.NewStorageError(dest, fmt.Errorf("failed to clear collection: %w", err))
		}
		m.logger.Debug("collection cleared", zap.Int64("deleted", res.DeletedCount))
	}
	if len(records) == 0 {
		return nil
	}

	docs := make([]interface{}, len(records))
	for i := range records {
		docs[i] = records[i]
	}
	if _, err := m.collection.InsertMany(ctx, docs); err != nil {
		return types.NewStorageError(dest, fmt.Errorf("failed to insert properties: %w", err))
	}
	return nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
