package campaign

import (
	"context"
)

// Repository persists campaigns. Lookups return nil when nothing matches.
type Repository interface {
	Create(ctx context.Context, campaign *Campaign) error
	GetByID(ctx context.Context, id uint) (*Campaign, error)
	GetBySID(ctx context.Context, sid string) (*Campaign, error)

	// Update persists aggregate changes guarded by the optimistic version;
	// a stale version yields a transaction-aborted error.
	Update(ctx context.Context, campaign *Campaign) error

	List(ctx context.Context, filter Filter) ([]*Campaign, int64, error)

	// FindExpiring returns active campaigns whose end date falls within the
	// next `days` days.
	FindExpiring(ctx context.Context, days int) ([]*Campaign, error)

	// FindPastEndDate returns active campaigns whose window has closed.
	FindPastEndDate(ctx context.Context) ([]*Campaign, error)
}

// Filter narrows campaign listings.
type Filter struct {
	Status         *Status
	OwnerPartnerID *uint
	Page           int
	PageSize       int
}
