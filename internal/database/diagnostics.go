package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/devhance/backend/config"
)

// expectedTables is the schema the API depends on.
var expectedTables = []string{"users", "projects", "project_likes", "project_comments"}

// TableStatus reports whether a table exists and how many rows it has.
type TableStatus struct {
	Exists   bool  `json:"exists"`
	RowCount int64 `json:"row_count"`
}

// Diagnostics answers health and schema checks over a plain sql.DB
// connection, kept separate from the ORM pool so a wedged ORM cannot
// mask a dead database.
type Diagnostics struct {
	db *sql.DB
}

func NewDiagnostics(cfg *config.Config) (*Diagnostics, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
	)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening diagnostics connection: %w", err)
	}
	db.SetMaxOpenConns(2)
	return &Diagnostics{db: db}, nil
}

// HealthCheck checks if the database is accessible
func (d *Diagnostics) HealthCheck(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// CheckSchema reports, for each expected table, whether it exists and
// its current row count.
func (d *Diagnostics) CheckSchema(ctx context.Context) (map[string]TableStatus, error) {
	out := make(map[string]TableStatus, len(expectedTables))
	for _, table := range expectedTables {
		var exists bool
		err := d.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
			table,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check table %s: %w", table, err)
		}

		status := TableStatus{Exists: exists}
		if exists {
			// Table names come from the fixed list above, never from input.
			if err := d.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&status.RowCount); err != nil {
				return nil, fmt.Errorf("failed to count rows in %s: %w", table, err)
			}
		}
		out[table] = status
	}
	return out, nil
}

// Close releases the diagnostics connection pool.
func (d *Diagnostics) Close() error {
	return d.db.Close()
}
