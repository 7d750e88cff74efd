package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"chatdb/pkg/store"
)

// Base provides generic CRUD primitives over one collection, parameterized
// by the entity shape. Domain repositories embed it and layer filter
// builders on top; Base itself has no domain knowledge.
type Base[T any] struct {
	name      string
	col       *mongo.Collection
	secondary *mongo.Collection
}

// New returns a Base bound to the named collection of the globally opened
// store. The secondary handle prefers replica reads and is used for
// non-authoritative analytics.
func New[T any](name string) *Base[T] {
	return &Base[T]{
		name:      name,
		col:       store.Collection(name),
		secondary: store.SecondaryCollection(name),
	}
}

// NewWithCollections binds a Base to explicit collection handles.
func NewWithCollections[T any](name string, col, secondary *mongo.Collection) *Base[T] {
	if secondary == nil {
		secondary = col
	}
	return &Base[T]{name: name, col: col, secondary: secondary}
}

// Col exposes the primary collection handle for operations Base does not
// cover.
func (b *Base[T]) Col() *mongo.Collection {
	return b.col
}

// Find returns a lazy cursor over all documents matching filter.
func (b *Base[T]) Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*Cursor[T], error) {
	start := time.Now()
	cur, err := b.col.Find(ctx, filter, opts...)
	store.ObserveOp("find", b.name, start, err)
	if err != nil {
		return nil, err
	}
	return NewCursor[T](cur), nil
}

// FindOne returns the first matching document, or (nil, nil) when nothing
// matches.
func (b *Base[T]) FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) (*T, error) {
	start := time.Now()
	var v T
	err := b.col.FindOne(ctx, filter, opts...).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		store.ObserveOp("find_one", b.name, start, nil)
		return nil, nil
	}
	store.ObserveOp("find_one", b.name, start, err)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// FindPaginated runs Find and a countDocuments on the same filter, so the
// caller gets a page cursor plus the total without materializing all
// matches. Skip/limit belong in opts and do not affect the total.
func (b *Base[T]) FindPaginated(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*Paginated[T], error) {
	cur, err := b.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	total, err := b.CountDocuments(ctx, filter)
	if err != nil {
		_ = cur.Close(ctx)
		return nil, err
	}
	return &Paginated[T]{Cursor: cur, Total: total}, nil
}

// InsertOne inserts doc and returns the inserted id.
func (b *Base[T]) InsertOne(ctx context.Context, doc T) (any, error) {
	start := time.Now()
	res, err := b.col.InsertOne(ctx, doc)
	store.ObserveOp("insert_one", b.name, start, err)
	if err != nil {
		return nil, err
	}
	return res.InsertedID, nil
}

// UpdateOne applies update to the first document matching filter and
// reports whether a document was modified.
func (b *Base[T]) UpdateOne(ctx context.Context, filter, update any) (bool, error) {
	start := time.Now()
	res, err := b.col.UpdateOne(ctx, filter, update)
	store.ObserveOp("update_one", b.name, start, err)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// DeleteMany removes all documents matching filter and returns the count
// removed.
func (b *Base[T]) DeleteMany(ctx context.Context, filter any) (int64, error) {
	start := time.Now()
	res, err := b.col.DeleteMany(ctx, filter)
	store.ObserveOp("delete_many", b.name, start, err)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountDocuments counts documents matching filter.
func (b *Base[T]) CountDocuments(ctx context.Context, filter any, opts ...options.Lister[options.CountOptions]) (int64, error) {
	start := time.Now()
	n, err := b.col.CountDocuments(ctx, filter, opts...)
	store.ObserveOp("count", b.name, start, err)
	return n, err
}

// Aggregate executes a pipeline on the primary handle and returns the raw
// lazy cursor; result documents are arbitrary shapes decided by the
// pipeline.
func (b *Base[T]) Aggregate(ctx context.Context, pipeline any, opts ...options.Lister[options.AggregateOptions]) (*mongo.Cursor, error) {
	start := time.Now()
	cur, err := b.col.Aggregate(ctx, pipeline, opts...)
	store.ObserveOp("aggregate", b.name, start, err)
	return cur, err
}

// AggregateSecondary executes a pipeline on the secondary-preferred handle.
// Reporting reads go through here to stay off the primary.
func (b *Base[T]) AggregateSecondary(ctx context.Context, pipeline any, opts ...options.Lister[options.AggregateOptions]) (*mongo.Cursor, error) {
	start := time.Now()
	cur, err := b.secondary.Aggregate(ctx, pipeline, opts...)
	store.ObserveOp("aggregate", b.name, start, err)
	return cur, err
}

// EnsureIndexes declares the structural indexes of the collection. Called
// once at startup.
func (b *Base[T]) EnsureIndexes(ctx context.Context, indexes []mongo.IndexModel) ([]string, error) {
	if len(indexes) == 0 {
		return nil, nil
	}
	start := time.Now()
	names, err := b.col.Indexes().CreateMany(ctx, indexes)
	store.ObserveOp("create_indexes", b.name, start, err)
	return names, err
}
