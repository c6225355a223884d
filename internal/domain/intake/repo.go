package intake

import "context"

type Repository interface {
	Create(ctx context.Context, r *Registration) error
	Get(ctx context.Context, regNo string) (*Registration, error)
	List(ctx context.Context) ([]*Registration, error)
	MarkPrinted(ctx context.Context, regNo string) error
	MarkCollected(ctx context.Context, regNo string) error
}
