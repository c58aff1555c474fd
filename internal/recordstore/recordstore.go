// Package recordstore persists generated property batches. The destination
// is chosen by the location string:
//
//	path/to/properties.json              JSON array, 4-space indent
//	path/to/properties.db, sqlite://path SQLite table
//	postgres://..., postgresql://...     PostgreSQL table
//	oracle://..., or bare "oracle:"      Oracle table (bare form reads DB_* settings)
//	mongodb://host/db?collection=name    MongoDB collection
//	bolt://path/to/file.bolt             BoltDB bucket
//	dynamodb://table                     DynamoDB table
//	sheets://spreadsheetID/SheetName     Google Sheets tab
//	s3://bucket/key                      JSON array object
//	memory:                              kept in process
package recordstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"propgen/internal/blob"
	"propgen/internal/database"
	"propgen/internal/types"
)

// Sink receives one generated batch.
type Sink interface {
	Write(ctx context.Context, records []types.PropertyRecord) error
	Close() error
}

// Options configures the non-file sinks.
type Options struct {
	// Table names the SQL table, bolt bucket or default Mongo collection.
	Table string
	// Truncate clears existing rows before writing.
	Truncate bool
	// RunID is attached as object metadata where the backend supports it.
	RunID string

	// Oracle supplies the connection fields used by the bare "oracle:" form.
	Oracle database.DBConfig
	AWS    blob.Config
	// SheetsCredentials is a service-account JSON file.
	SheetsCredentials string

	Logger *zap.Logger
}

const defaultTable = "properties"

func (o Options) withDefaults() Options {
	if o.Table == "" {
		o.Table = defaultTable
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Open connects to the destination named by location. Connection failures
// are StorageErrors.
func Open(ctx context.Context, location string, opts Options) (Sink, error) {
	opts = opts.withDefaults()
	sink, err := open(ctx, location, opts)
	if err != nil {
		return nil, types.NewStorageError(location, err)
	}
	opts.Logger.Debug("sink opened", zap.String("location", Redact(location)), zap.String("kind", fmt.Sprintf("%T", sink)))
	return sink, nil
}

func open(ctx context.Context, location string, opts Options) (Sink, error) {
	scheme, rest, hasScheme := strings.Cut(location, ":")
	if !hasScheme || len(scheme) == 1 {
		// no scheme, or a Windows drive letter
		scheme = ""
	}

	switch strings.ToLower(scheme) {
	case "":
		if strings.TrimSpace(location) == "" {
			return nil, fmt.Errorf("no output location given")
		}
		switch strings.ToLower(filepath.Ext(location)) {
		case ".db", ".sqlite", ".sqlite3":
			return openSQL(ctx, database.DBConfig{Dialect: database.SQLite, DSN: location}, opts)
		}
		return NewJSONFile(location), nil
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		return openSQL(ctx, database.DBConfig{Dialect: database.SQLite, DSN: strings.TrimPrefix(rest, "//")}, opts)
	case "postgres", "postgresql":
		return openSQL(ctx, database.DBConfig{Dialect: database.Postgres, DSN: location}, opts)
	case "oracle":
		cfg := opts.Oracle
		cfg.Dialect = database.Oracle
		if strings.TrimPrefix(rest, "//") != "" {
			cfg.DSN = location
		}
		return openSQL(ctx, cfg, opts)
	case "mongodb", "mongodb+srv":
		return openMongo(ctx, location, opts)
	case "bolt":
		return openBolt(strings.TrimPrefix(rest, "//"), opts)
	case "dynamodb":
		return openDynamo(ctx, strings.TrimPrefix(rest, "//"), opts)
	case "sheets":
		return openSheets(ctx, strings.TrimPrefix(rest, "//"), opts)
	case "s3":
		bucket, key, err := blob.ParseURL(location)
		if err != nil {
			return nil, err
		}
		store, err := blob.New(ctx, opts.AWS)
		if err != nil {
			return nil, err
		}
		return NewS3(store, bucket, key, opts.RunID), nil
	default:
		return nil, fmt.Errorf("unsupported output scheme %q", scheme)
	}
}

// Redact hides the password of a URL-shaped location for logging.
func Redact(location string) string {
	scheme, rest, ok := strings.Cut(location, "://")
	if !ok {
		return location
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return location
	}
	user, _, hasPass := strings.Cut(userinfo, ":")
	if !hasPass {
		return location
	}
	return scheme + "://" + user + ":xxxxx@" + host
}
