package recordstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"propgen/internal/database"
	"propgen/internal/types"
)

// SQL writes batches into a relational table through the database package.
type SQL struct {
	db       *database.Database
	table    string
	truncate bool
	logger   *zap.Logger
}

func openSQL(ctx context.Context, cfg database.DBConfig, opts Options) (*SQL, error) {
	db, err := database.NewDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx, opts.Table); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQL(db, opts.Table, opts.Truncate, opts.Logger), nil
}

// NewSQL wraps an open database whose schema already exists.
func NewSQL(db *database.Database, table string, truncate bool, logger *zap.Logger) *SQL {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQL{db: db, table: table, truncate: truncate, logger: logger}
}

func (s *SQL) Write(ctx context.Context, records []types.PropertyRecord) error {
	var err error
	if s.truncate {
		err = s.db.ReplaceRecords(ctx, s.table, records)
	} else {
		err = s.db.InsertRecords(ctx, s.table, records)
	}
	if err != nil {
		return types.NewStorageError(s.table, err)
	}
	if ce := s.logger.Check(zap.DebugLevel, "rows written"); ce != nil {
		fields := []zap.Field{zap.String("table", s.table), zap.Int("rows", len(records)), zap.Bool("truncated", s.truncate)}
		// counting costs a query, so only when debug logging is on
		if total, err := s.db.CountRecords(ctx, s.table); err == nil {
			fields = append(fields, zap.Int("table_rows", total))
		} else {
			fields = append(fields, zap.NamedError("count_error", err))
		}
		ce.Write(fields...)
	}
	return nil
}

func (s *SQL) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
