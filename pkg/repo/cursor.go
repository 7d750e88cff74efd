package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Cursor is a typed lazy view over a store cursor. Documents are decoded on
// demand; callers must Close when done iterating manually.
type Cursor[T any] struct {
	cur *mongo.Cursor
}

// NewCursor wraps a raw store cursor.
func NewCursor[T any](cur *mongo.Cursor) *Cursor[T] {
	return &Cursor[T]{cur: cur}
}

// Next advances the cursor. It returns false when the sequence is exhausted
// or an error occurred; check Err after iteration.
func (c *Cursor[T]) Next(ctx context.Context) bool {
	return c.cur.Next(ctx)
}

// Decode decodes the current document.
func (c *Cursor[T]) Decode() (T, error) {
	var v T
	err := c.cur.Decode(&v)
	return v, err
}

// All drains the cursor into a slice and closes it.
func (c *Cursor[T]) All(ctx context.Context) ([]T, error) {
	var out []T
	if err := c.cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Err returns the first error seen during iteration.
func (c *Cursor[T]) Err() error {
	return c.cur.Err()
}

// Close releases the server-side resources of the cursor.
func (c *Cursor[T]) Close(ctx context.Context) error {
	return c.cur.Close(ctx)
}

// Paginated couples a result cursor with the total number of matching
// documents, computed without materializing the matches.
type Paginated[T any] struct {
	Cursor *Cursor[T]
	Total  int64
}
