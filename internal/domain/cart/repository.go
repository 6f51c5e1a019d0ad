package cart

import "context"

type Repository interface {
	// Observe emits the full line set now and after every change. The
	// channel closes when ctx is done.
	Observe(ctx context.Context) (<-chan []Line, error)
	List(ctx context.Context) ([]Line, error)
	Insert(ctx context.Context, line Line) (Line, error)
	Update(ctx context.Context, line Line) error
	Remove(ctx context.Context, line Line) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
