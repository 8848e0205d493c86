package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"paymentswitch/internal/store/repositories"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements repositories.Store on Postgres JSONB documents.
type Store struct {
	db *pgxpool.Pool
}

var _ repositories.Store = (*Store)(nil)

func NewStore(db *pgxpool.Pool) *Store { return &Store{db: db} }

// column is an indexed lookup column stored beside the document.
type column struct {
	name  string
	value any
}

func col(name string, value any) column { return column{name: name, value: value} }

// nullable stores empty lookup ids as NULL so they never match.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func getDoc[T any](ctx context.Context, q querier, sql string, args ...any) (*T, error) {
	var doc []byte
	if err := q.QueryRow(ctx, sql, args...).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	var v T
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &v, nil
}

func listDocs[T any](ctx context.Context, q querier, sql string, args ...any) ([]*T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(doc, &v); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

// upsert inserts or replaces the document keyed by (merchant_id, id).
func upsert(ctx context.Context, q querier, table, merchantID, id string, doc any, cols ...column) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", table, err)
	}

	names := []string{"merchant_id", "id"}
	args := []any{merchantID, id}
	for _, c := range cols {
		names = append(names, c.name)
		args = append(args, c.value)
	}
	names = append(names, "doc")
	args = append(args, b)

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	updates := make([]string, 0, len(names)-1)
	for _, n := range names[2:] {
		updates = append(updates, n+" = EXCLUDED."+n)
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (%s, updated_at)
		VALUES (%s, now())
		ON CONFLICT (merchant_id, id) DO UPDATE
		SET %s, updated_at = now()`,
		table, strings.Join(names, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))

	_, err = q.Exec(ctx, sql, args...)
	return err
}
