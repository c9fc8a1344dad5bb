package partner

import (
	"context"
)

// Repository persists the partner tree. Returns nil (not an error) when a
// lookup finds nothing, matching the repository convention used across the
// codebase.
type Repository interface {
	Create(ctx context.Context, partner *Partner) error
	GetByID(ctx context.Context, id uint) (*Partner, error)
	GetBySID(ctx context.Context, sid string) (*Partner, error)

	// GetChildren returns the direct children of a partner.
	GetChildren(ctx context.Context, parentID uint) ([]*Partner, error)

	// GetSubtree returns every descendant of a partner (the partner itself
	// excluded), matched via ancestor-path containment.
	GetSubtree(ctx context.Context, partnerID uint) ([]*Partner, error)

	List(ctx context.Context, filter Filter) ([]*Partner, int64, error)
}

// Filter narrows partner listings.
type Filter struct {
	ParentID *uint
	Level    *int
	Page     int
	PageSize int
}
