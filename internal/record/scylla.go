package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

// cqlRunner is the slice of a gocql session the repository needs.
type cqlRunner interface {
	Rows(ctx context.Context, stmt string, args []any, scan func(id, body string)) error
	Row(ctx context.Context, stmt string, args []any, dest ...any) error
	Exec(ctx context.Context, stmt string, args []any) error
	CAS(ctx context.Context, stmt string, args []any) (bool, error)
}

type gocqlRunner struct {
	session *gocql.Session
}

func (g gocqlRunner) Rows(ctx context.Context, stmt string, args []any, scan func(id, body string)) error {
	iter := g.session.Query(stmt, args...).WithContext(ctx).Iter()
	var id, body string
	for iter.Scan(&id, &body) {
		scan(id, body)
	}
	return iter.Close()
}

func (g gocqlRunner) Row(ctx context.Context, stmt string, args []any, dest ...any) error {
	return g.session.Query(stmt, args...).WithContext(ctx).Scan(dest...)
}

func (g gocqlRunner) Exec(ctx context.Context, stmt string, args []any) error {
	return g.session.Query(stmt, args...).WithContext(ctx).Exec()
}

func (g gocqlRunner) CAS(ctx context.Context, stmt string, args []any) (bool, error) {
	return g.session.Query(stmt, args...).WithContext(ctx).ScanCAS()
}

// ScyllaRepository stores a collection as one partition of <keyspace>.records.
type ScyllaRepository struct {
	cql        cqlRunner
	keyspace   string
	collection string
}

func NewScyllaRepository(session *gocql.Session, keyspace, collection string) *ScyllaRepository {
	return newScyllaRepository(gocqlRunner{session: session}, keyspace, collection)
}

func newScyllaRepository(cql cqlRunner, keyspace, collection string) *ScyllaRepository {
	return &ScyllaRepository{cql: cql, keyspace: keyspace, collection: collection}
}

func (r *ScyllaRepository) List(ctx context.Context) ([]Document, error) {
	docs := []Document{}
	err := r.cql.Rows(ctx, fmt.Sprintf(`SELECT id,body FROM %s.records WHERE collection=?`, r.keyspace),
		[]any{r.collection},
		func(id, body string) {
			docs = append(docs, Document{ID: id, Body: []byte(body)})
		})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *ScyllaRepository) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var body string
	err := r.cql.Row(ctx, fmt.Sprintf(`SELECT body FROM %s.records WHERE collection=? AND id=?`, r.keyspace),
		[]any{r.collection, id}, &body)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(body), nil
}

func (r *ScyllaRepository) Put(ctx context.Context, id string, body []byte) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return r.cql.Exec(ctx, fmt.Sprintf(`INSERT INTO %s.records (collection,id,body,updated_at) VALUES (?,?,?,?)`, r.keyspace),
		[]any{r.collection, id, string(body), time.Now()})
}

func (r *ScyllaRepository) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	applied, err := r.cql.CAS(ctx, fmt.Sprintf(`DELETE FROM %s.records WHERE collection=? AND id=? IF EXISTS`, r.keyspace),
		[]any{r.collection, id})
	if err != nil {
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}
