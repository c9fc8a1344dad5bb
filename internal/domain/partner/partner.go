// Package partner defines the partner tree aggregate. A partner is an
// account that can hold quota and redistribute it to the partners beneath
// it; the tree shape (parent pointer, level, ancestor path) is fixed at
// creation time.
package partner

import (
	"fmt"
	"time"
)

// Partner represents one node of the partner tree.
type Partner struct {
	id           uint
	sid          string
	name         string
	parentID     *uint
	level        int
	ancestorPath []uint
	createdAt    time.Time
	updatedAt    time.Time
}

// NewPartner creates a root partner (parent == nil) or a child of parent.
// Level and ancestor path are derived from the parent and never change.
func NewPartner(sid, name string, parent *Partner) (*Partner, error) {
	if sid == "" {
		return nil, fmt.Errorf("partner SID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("partner name is required")
	}

	now := time.Now().UTC()
	p := &Partner{
		sid:       sid,
		name:      name,
		createdAt: now,
		updatedAt: now,
	}

	if parent != nil {
		if parent.id == 0 {
			return nil, fmt.Errorf("parent partner is not persisted")
		}
		parentID := parent.id
		p.parentID = &parentID
		p.level = parent.level + 1
		p.ancestorPath = append(append([]uint{}, parent.ancestorPath...), parent.id)
	}

	return p, nil
}

// ReconstructPartner rebuilds a partner from persistence.
func ReconstructPartner(
	id uint,
	sid, name string,
	parentID *uint,
	level int,
	ancestorPath []uint,
	createdAt, updatedAt time.Time,
) (*Partner, error) {
	if id == 0 {
		return nil, fmt.Errorf("partner ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("partner SID is required")
	}
	if level != len(ancestorPath) {
		return nil, fmt.Errorf("partner level %d does not match ancestor path length %d", level, len(ancestorPath))
	}
	if parentID == nil && level != 0 {
		return nil, fmt.Errorf("partner without parent must be level 0, got %d", level)
	}
	if parentID != nil {
		if level == 0 {
			return nil, fmt.Errorf("partner with parent cannot be level 0")
		}
		if ancestorPath[len(ancestorPath)-1] != *parentID {
			return nil, fmt.Errorf("ancestor path tail %d does not match parent ID %d", ancestorPath[len(ancestorPath)-1], *parentID)
		}
	}

	return &Partner{
		id:           id,
		sid:          sid,
		name:         name,
		parentID:     parentID,
		level:        level,
		ancestorPath: ancestorPath,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

// ID returns the partner ID
func (p *Partner) ID() uint { return p.id }

// SID returns the external Stripe-style identifier (pt_xxx)
func (p *Partner) SID() string { return p.sid }

// Name returns the partner display name
func (p *Partner) Name() string { return p.name }

// ParentID returns the direct parent's ID, nil for roots
func (p *Partner) ParentID() *uint { return p.parentID }

// Level returns the tree depth, 0 for roots
func (p *Partner) Level() int { return p.level }

// AncestorPath returns the ordered ancestor IDs, root first.
func (p *Partner) AncestorPath() []uint {
	path := make([]uint, len(p.ancestorPath))
	copy(path, p.ancestorPath)
	return path
}

// CreatedAt returns when the partner was created
func (p *Partner) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns when the partner was last updated
func (p *Partner) UpdatedAt() time.Time { return p.updatedAt }

// SetID sets the partner ID (only for persistence layer use)
func (p *Partner) SetID(id uint) error {
	if p.id != 0 {
		return fmt.Errorf("partner ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("partner ID cannot be zero")
	}
	p.id = id
	return nil
}

// IsRoot reports whether the partner sits at the top of a tree.
func (p *Partner) IsRoot() bool {
	return p.parentID == nil
}

// IsDirectChildOf reports whether p's parent is the given partner.
func (p *Partner) IsDirectChildOf(parentID uint) bool {
	return p.parentID != nil && *p.parentID == parentID
}

// IsDescendantOf reports whether ancestorID appears anywhere above p.
func (p *Partner) IsDescendantOf(ancestorID uint) bool {
	for _, id := range p.ancestorPath {
		if id == ancestorID {
			return true
		}
	}
	return false
}
