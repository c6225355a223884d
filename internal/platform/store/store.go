// Package store provides the schemaless document store behind the register
// workflow: named collections of JSON-like documents addressed by key, with
// live whole-collection subscriptions. The analytics engine consumes raw
// documents from here; typed domain repositories sit on top of it.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document key does not exist in a collection.
var ErrNotFound = errors.New("store: document not found")

// serverTimestamp is the sentinel type behind ServerTimestamp.
type serverTimestamp struct{}

// ServerTimestamp is a sentinel field value replaced with the store's wall
// clock at write time. Writers use it for stage timestamps so that skewed
// client clocks never enter the register.
var ServerTimestamp = serverTimestamp{}

// Store is the document store contract. Put replaces a document whole; Merge
// overlays the given fields onto the existing document, creating it if
// absent. Both resolve ServerTimestamp sentinels before persisting.
type Store interface {
	List(ctx context.Context, collection string) ([]map[string]any, error)
	Get(ctx context.Context, collection, key string) (map[string]any, error)
	Put(ctx context.Context, collection, key string, doc map[string]any) error
	Merge(ctx context.Context, collection, key string, fields map[string]any) error
	Delete(ctx context.Context, collection, key string) error

	// Subscribe registers fn for whole-collection snapshots: once
	// immediately with the current contents, then after every mutation of
	// the collection. The returned cancel is safe to call more than once.
	Subscribe(collection string, fn func(docs []map[string]any)) (cancel func())
}

// resolveSentinels returns a copy of doc with every ServerTimestamp replaced
// by now. Documents are shallow maps of JSON scalars and lists; nested maps
// are copied without sentinel resolution.
func resolveSentinels(doc map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = now
			continue
		}
		out[k] = v
	}
	return out
}

// cloneDoc copies one level deep, enough to keep callers from mutating
// stored state through a returned snapshot.
func cloneDoc(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		switch vv := v.(type) {
		case []any:
			out[k] = append([]any(nil), vv...)
		case []string:
			out[k] = append([]string(nil), vv...)
		default:
			out[k] = v
		}
	}
	return out
}
