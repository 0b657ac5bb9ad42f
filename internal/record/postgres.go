package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxConn is the subset of *pgxpool.Pool the Postgres repository needs.
type PgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores a collection as rows of the shared records table.
type PostgresRepository struct {
	db         PgxConn
	collection string
}

func NewPostgresRepository(db PgxConn, collection string) *PostgresRepository {
	return &PostgresRepository{db: db, collection: collection}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Document, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, body::text
		FROM records
		WHERE collection = $1
		ORDER BY id
	`, r.collection)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		docs = append(docs, Document{ID: id, Body: []byte(body)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return docs, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var body string
	err := r.db.QueryRow(ctx, `
		SELECT body::text
		FROM records
		WHERE collection = $1 AND id = $2
	`, r.collection, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return []byte(body), nil
}

func (r *PostgresRepository) Put(ctx context.Context, id string, body []byte) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO records (collection, id, body, updated_at)
		VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (collection, id)
		DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
	`, r.collection, id, string(body), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM records WHERE collection = $1 AND id = $2`, r.collection, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
