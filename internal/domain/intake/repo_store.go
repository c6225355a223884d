package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/labtrack/labtrack/internal/lab"
	"github.com/labtrack/labtrack/internal/platform/store"
)

// ErrNotFound is returned when no registration exists for a regNo.
var ErrNotFound = errors.New("registration not found")

// StoreRepository persists registrations as documents in the intake
// collection, keyed by registration number.
type StoreRepository struct {
	store store.Store
}

func NewStoreRepository(s store.Store) *StoreRepository {
	return &StoreRepository{store: s}
}

func (r *StoreRepository) Create(ctx context.Context, reg *Registration) error {
	doc := reg.toDoc()
	doc["createdAt"] = store.ServerTimestamp
	if err := r.store.Put(ctx, lab.IntakeCollection, reg.RegNo, doc); err != nil {
		return fmt.Errorf("create registration %s: %w", reg.RegNo, err)
	}
	return nil
}

func (r *StoreRepository) Get(ctx context.Context, regNo string) (*Registration, error) {
	doc, err := r.store.Get(ctx, lab.IntakeCollection, regNo)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registration %s: %w", regNo, err)
	}
	return fromDoc(doc), nil
}

func (r *StoreRepository) List(ctx context.Context) ([]*Registration, error) {
	docs, err := r.store.List(ctx, lab.IntakeCollection)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	regs := make([]*Registration, 0, len(docs))
	for _, doc := range docs {
		regs = append(regs, fromDoc(doc))
	}
	return regs, nil
}

func (r *StoreRepository) MarkPrinted(ctx context.Context, regNo string) error {
	return r.mergeStamp(ctx, regNo, "timePrinted")
}

func (r *StoreRepository) MarkCollected(ctx context.Context, regNo string) error {
	return r.mergeStamp(ctx, regNo, "timeCollected")
}

func (r *StoreRepository) mergeStamp(ctx context.Context, regNo, field string) error {
	err := r.store.Merge(ctx, lab.IntakeCollection, regNo, map[string]any{
		field: store.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("stamp %s on registration %s: %w", field, regNo, err)
	}
	return nil
}
