package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PGStore persists collections in a single jsonb table. Live subscriptions
// are in-process: every mutation made through this instance re-lists the
// collection and fans out, so all writers of a deployment must share the
// one PGStore. Cross-instance change feeds would need LISTEN/NOTIFY.
type PGStore struct {
	pool *pgxpool.Pool
	log  zerolog.Logger

	mu     sync.Mutex
	subs   map[string]map[int]func(docs []map[string]any)
	nextID int
}

// NewPGStore creates a store over the given pool.
func NewPGStore(pool *pgxpool.Pool, log zerolog.Logger) *PGStore {
	return &PGStore{
		pool: pool,
		log:  log.With().Str("component", "store").Logger(),
		subs: make(map[string]map[int]func(docs []map[string]any)),
	}
}

func (s *PGStore) List(ctx context.Context, collection string) ([]map[string]any, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT doc FROM documents WHERE collection = $1 ORDER BY key`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []map[string]any
	for rows.Next() {
		var doc map[string]any
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PGStore) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	var doc map[string]any
	err := s.pool.QueryRow(ctx, `
		SELECT doc FROM documents WHERE collection = $1 AND key = $2`, collection, key).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *PGStore) Put(ctx context.Context, collection, key string, doc map[string]any) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (collection, key, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, key)
		DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`,
		collection, key, resolveSentinels(doc, time.Now()))
	if err != nil {
		return err
	}
	s.notify(collection)
	return nil
}

func (s *PGStore) Merge(ctx context.Context, collection, key string, fields map[string]any) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (collection, key, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, key)
		DO UPDATE SET doc = documents.doc || EXCLUDED.doc, updated_at = NOW()`,
		collection, key, resolveSentinels(fields, time.Now()))
	if err != nil {
		return err
	}
	s.notify(collection)
	return nil
}

func (s *PGStore) Delete(ctx context.Context, collection, key string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM documents WHERE collection = $1 AND key = $2`, collection, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.notify(collection)
	return nil
}

func (s *PGStore) Subscribe(collection string, fn func(docs []map[string]any)) func() {
	s.mu.Lock()
	if s.subs[collection] == nil {
		s.subs[collection] = make(map[int]func(docs []map[string]any))
	}
	id := s.nextID
	s.nextID++
	s.subs[collection][id] = fn
	s.mu.Unlock()

	if docs, err := s.List(context.Background(), collection); err == nil {
		fn(docs)
	} else {
		s.log.Error().Err(err).Str("collection", collection).Msg("initial snapshot failed")
	}

	return func() {
		s.mu.Lock()
		delete(s.subs[collection], id)
		s.mu.Unlock()
	}
}

func (s *PGStore) notify(collection string) {
	s.mu.Lock()
	fns := make([]func(docs []map[string]any), 0, len(s.subs[collection]))
	for _, fn := range s.subs[collection] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if len(fns) == 0 {
		return
	}

	docs, err := s.List(context.Background(), collection)
	if err != nil {
		s.log.Error().Err(err).Str("collection", collection).Msg("snapshot after write failed")
		return
	}
	for _, fn := range fns {
		fn(docs)
	}
}
