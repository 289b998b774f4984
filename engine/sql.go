package engine

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/victorcarri/mpp/config"
)

// SQLTable is a NounTable backed by a MySQL/MariaDB "nouns" table with
// (singular, plural) columns, one row per declension pair — the Go
// equivalent of ReqHandler opening a mariadb::account connection in its
// constructor. Unlike the original, which opened one connection per
// ReqHandler and kept it for the process's life, SQLTable holds a
// pooled *sql.DB so concurrent reactors never block each other waiting
// on a single shared connection (Design Notes' "use a connection pool,
// not one per request or one shared across everything").
type SQLTable struct {
	db *sql.DB
}

// OpenSQLTable opens (lazily, per database/sql semantics) a connection
// pool to the database named by cfg and verifies it with a Ping.
func OpenSQLTable(cfg *config.DBConfig) (*SQLTable, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("engine: opening DB: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("engine: connecting to DB: %w", err)
	}
	return &SQLTable{db: db}, nil
}

func (t *SQLTable) Close() error {
	return t.db.Close()
}

func (t *SQLTable) IsSingular(ctx context.Context, noun string) (bool, error) {
	var exists bool
	err := t.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM nouns WHERE singular = ?)`, noun,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}
	// Not recorded as anyone's singular form; check whether it's a
	// known plural instead before defaulting to singular.
	err = t.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM nouns WHERE plural = ?)`, noun,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (t *SQLTable) Plurals(ctx context.Context, singular string) ([]string, error) {
	return t.query(ctx, `SELECT plural FROM nouns WHERE singular = ?`, singular)
}

func (t *SQLTable) Singulars(ctx context.Context, plural string) ([]string, error) {
	return t.query(ctx, `SELECT singular FROM nouns WHERE plural = ?`, plural)
}

func (t *SQLTable) query(ctx context.Context, query, arg string) ([]string, error) {
	rows, err := t.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []string
	for rows.Next() {
		var form string
		if err := rows.Scan(&form); err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, rows.Err()
}
