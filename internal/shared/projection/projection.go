package projection

import "time"

// Metadata captures persistence timestamps shared by projections.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Projection represents an aggregate view plus persistence metadata.
type Projection[T any] struct {
	Entity   T
	Metadata Metadata
}

// New wraps entity with its persistence timestamps.
func New[T any](entity T, createdAt, updatedAt time.Time) *Projection[T] {
	return &Projection[T]{
		Entity:   entity,
		Metadata: Metadata{CreatedAt: createdAt, UpdatedAt: updatedAt},
	}
}

// Map converts every projection in list with fn, skipping nil entries.
func Map[T, R any](list []*Projection[T], fn func(*Projection[T]) R) []R {
	out := make([]R, 0, len(list))
	for _, item := range list {
		if item == nil {
			continue
		}
		out = append(out, fn(item))
	}
	return out
}
