package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/sijms/go-ora/v2"     // registers "oracle"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"propgen/internal/types"
)

// Dialect selects driver name, placeholders and DDL.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "pgx"
	Oracle   Dialect = "oracle"
)

// DBConfig holds database connection configuration. For Oracle the DSN may be
// left empty and is then built from the remaining fields.
type DBConfig struct {
	Dialect        Dialect
	DSN            string
	Host           string
	Port           string
	Service        string
	Username       string
	Password       string
	WalletLocation string
}

// Database holds the database connection and configuration
type Database struct {
	db     *sql.DB
	config DBConfig
}

var sqlOpen = sql.Open

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// dsn builds a properly encoded connection string for Oracle Autonomous Database
func dsn(username, password, host, port, service string, walletLocation string) string {
	if walletLocation != "" {
		// Use wallet-based mTLS connection
		return fmt.Sprintf(
			"oracle://%s:%s@%s:%s/%s?ssl=true&wallet_location=%s",
			url.PathEscape(username), url.PathEscape(password), host, port, service, url.PathEscape(walletLocation))
	}

	return (&url.URL{
		Scheme:   "oracle",
		User:     url.UserPassword(username, password), // escapes automatically
		Host:     host + ":" + port,
		Path:     "/" + service, // keep full service name
		RawQuery: "ssl=true",    // ADB requires TCPS on 1522
	}).String()
}

// ConnString returns the DSN the config resolves to.
func (c DBConfig) ConnString() string {
	if c.DSN != "" || c.Dialect != Oracle {
		return c.DSN
	}
	return dsn(c.Username, c.Password, c.Host, c.Port, c.Service, c.WalletLocation)
}

// NewDatabase opens and pings a connection.
func NewDatabase(ctx context.Context, config DBConfig) (*Database, error) {
	switch config.Dialect {
	case SQLite, Postgres, Oracle:
	default:
		return nil, fmt.Errorf("unsupported dialect %q", config.Dialect)
	}

	db, err := sqlOpen(string(config.Dialect), config.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if config.Dialect == SQLite {
		// one writer; avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		db:     db,
		config: config,
	}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// DB exposes the underlying handle.
func (d *Database) DB() *sql.DB { return d.db }

func checkTable(table string) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return nil
}

func (d *Database) placeholder(n int) string {
	switch d.config.Dialect {
	case Postgres:
		return fmt.Sprintf("$%d", n)
	case Oracle:
		return fmt.Sprintf(":%d", n)
	default:
		return "?"
	}
}

func (d *Database) createTableDDL(table string) string {
	switch d.config.Dialect {
	case Oracle:
		return fmt.Sprintf(`CREATE TABLE %s (
			id NUMBER(10) PRIMARY KEY,
			value NUMBER(12,2) NOT NULL,
			type VARCHAR2(32) NOT NULL,
			municipality_id NUMBER(5) NOT NULL,
			neighborhood_id NUMBER(5) NOT NULL,
			sector_id NUMBER(5) NOT NULL,
			grid_id VARCHAR2(64) NOT NULL,
			grid CLOB NOT NULL
		)`, table)
	case Postgres:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			value NUMERIC(12,2) NOT NULL,
			type TEXT NOT NULL,
			municipality_id INTEGER NOT NULL,
			neighborhood_id INTEGER NOT NULL,
			sector_id INTEGER NOT NULL,
			grid_id TEXT NOT NULL,
			grid JSONB NOT NULL
		)`, table)
	default:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			value REAL NOT NULL,
			type TEXT NOT NULL,
			municipality_id INTEGER NOT NULL,
			neighborhood_id INTEGER NOT NULL,
			sector_id INTEGER NOT NULL,
			grid_id TEXT NOT NULL,
			grid TEXT NOT NULL
		)`, table)
	}
}

// EnsureSchema creates the property table when it does not exist.
func (d *Database) EnsureSchema(ctx context.Context, table string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if d.config.Dialect == Oracle {
		// no CREATE TABLE IF NOT EXISTS before 23c
		var n int
		err := d.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM user_tables WHERE table_name = UPPER(:1)`, table).Scan(&n)
		if err != nil {
			return fmt.Errorf("failed to look up table %s: %w", table, err)
		}
		if n > 0 {
			return nil
		}
	}
	if _, err := d.db.ExecContext(ctx, d.createTableDDL(table)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

// InsertRecords writes records in a single transaction.
func (d *Database) InsertRecords(ctx context.Context, table string, records []types.PropertyRecord) error {
	return d.writeRecords(ctx, table, records, false)
}

// ReplaceRecords empties table and writes records in the same transaction, so
// readers never see an empty table.
func (d *Database) ReplaceRecords(ctx context.Context, table string, records []types.PropertyRecord) error {
	return d.writeRecords(ctx, table, records, true)
}

func (d *Database) writeRecords(ctx context.Context, table string, records []types.PropertyRecord, clear bool) (retErr error) {
	if err := checkTable(table); err != nil {
		return err
	}
	ph := make([]string, 8)
	for i := range ph {
		ph[i] = d.placeholder(i + 1)
	}
	query := fmt.Sprintf(`INSERT INTO %s
		(id, value, type, municipality_id, neighborhood_id, sector_id, grid_id, grid)
		VALUES (%s)`, table, strings.Join(ph, ", "))

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if clear {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		grid, err := json.Marshal(r.Grid)
		if err != nil {
			return fmt.Errorf("failed to encode grid for property %d: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Value, string(r.Type), r.MunicipalityID, r.NeighborhoodID, r.SectorID, r.GridKey(), string(grid),
		); err != nil {
			return fmt.Errorf("failed to insert property %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// CountRecords returns the number of rows in table.
func (d *Database) CountRecords(ctx context.Context, table string) (int, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	var n int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
