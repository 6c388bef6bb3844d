package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrUnavailable marks failures to reach or read the store.
	ErrUnavailable = errors.New("inventory store unavailable")
	// ErrWrite marks failed writes and commits.
	ErrWrite = errors.New("inventory store write failed")
	// ErrUnknownTable is returned by DescribeTable for names not in the schema.
	ErrUnknownTable = errors.New("unknown table")
	// ErrReadOnly is returned by Query for statements that could write.
	ErrReadOnly = errors.New("only single read statements are allowed")
)

// Store is the inventory store: drug stock, sales and the generic
// list/describe/execute boundary.
type Store struct {
	db *sqlx.DB
}

// New constructs a Store over an open database.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

// Result is the outcome of Execute. Queries fill Columns and Rows, other
// statements fill RowsAffected.
type Result struct {
	Columns      []string `json:"columns,omitempty"`
	Rows         [][]any  `json:"rows,omitempty"`
	RowsAffected int64    `json:"rows_affected"`
}

func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := s.db.SelectContext(ctx, &tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, unavailable("list tables", err)
	}
	return tables, nil
}

func (s *Store) DescribeTable(ctx context.Context, name string) ([]Column, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	known := false
	for _, t := range tables {
		if t == name {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}

	var info []struct {
		CID     int     `db:"cid"`
		Name    string  `db:"name"`
		Type    string  `db:"type"`
		NotNull int     `db:"notnull"`
		Default *string `db:"dflt_value"`
		PK      int     `db:"pk"`
	}
	// name is a known table at this point, quoting only guards odd identifiers.
	query := `PRAGMA table_info("` + strings.ReplaceAll(name, `"`, `""`) + `")`
	if err := s.db.SelectContext(ctx, &info, query); err != nil {
		return nil, unavailable("describe table", err)
	}
	cols := make([]Column, len(info))
	for i, c := range info {
		cols[i] = Column{Name: c.Name, Type: c.Type, NotNull: c.NotNull != 0, PrimaryKey: c.PK != 0}
	}
	return cols, nil
}

// Execute runs one statement in auto-commit mode. Statements that produce
// rows are read back in full.
func (s *Store) Execute(ctx context.Context, statement string, args ...any) (*Result, error) {
	statement = strings.TrimSpace(statement)
	if statement == "" {
		return nil, errors.New("empty statement")
	}
	if !returnsRows(statement) {
		res, err := s.db.ExecContext(ctx, statement, args...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWrite, err)
		}
		affected, _ := res.RowsAffected()
		return &Result{RowsAffected: affected}, nil
	}

	return readRows(ctx, s.db, statement, args...)
}

// Query runs one read statement and discards anything it changed. Row
// returning writes, PRAGMAs and multi-statement input are refused with
// ErrReadOnly.
func (s *Store) Query(ctx context.Context, statement string, args ...any) (*Result, error) {
	statement = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(statement), ";"))
	if !readOnly(statement) {
		return nil, ErrReadOnly
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin", err)
	}
	defer tx.Rollback()
	return readRows(ctx, tx, statement, args...)
}

func readRows(ctx context.Context, q sqlx.QueryerContext, statement string, args ...any) (*Result, error) {
	rows, err := q.QueryxContext(ctx, statement, args...)
	if err != nil {
		return nil, unavailable("query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, unavailable("read columns", err)
	}
	out := &Result{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, unavailable("scan row", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out.Rows = append(out.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate rows", err)
	}
	return out, nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func returnsRows(statement string) bool {
	upper := strings.ToUpper(statement)
	for _, prefix := range []string{"SELECT", "PRAGMA", "WITH", "EXPLAIN", "VALUES"} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return strings.Contains(upper, "RETURNING")
}

func readOnly(statement string) bool {
	if statement == "" || strings.Contains(statement, ";") {
		return false
	}
	upper := strings.ToUpper(statement)
	if strings.Contains(upper, "RETURNING") {
		return false
	}
	for _, prefix := range []string{"SELECT", "WITH", "EXPLAIN", "VALUES"} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
