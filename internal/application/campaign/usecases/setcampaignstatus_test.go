package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/domain/invitation"
	"github.com/trellis-inc/trellis/internal/domain/ledger"
	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/domain/shared/events"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

// The stubs embed their interface so only the methods a test exercises
// need implementations.

type stubTx struct{}

func (stubTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.DomainEvent) error      { return nil }
func (nopPublisher) PublishAll([]events.DomainEvent) error { return nil }

type memCampaignRepo struct {
	campaign.Repository
	byID   map[uint]*campaign.Campaign
	nextID uint
}

func newMemCampaignRepo() *memCampaignRepo {
	return &memCampaignRepo{byID: make(map[uint]*campaign.Campaign), nextID: 1}
}

func (r *memCampaignRepo) Create(ctx context.Context, c *campaign.Campaign) error {
	if c.ID() == 0 {
		if err := c.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.byID[c.ID()] = c
	return nil
}

func (r *memCampaignRepo) GetByID(ctx context.Context, id uint) (*campaign.Campaign, error) {
	return r.byID[id], nil
}

func (r *memCampaignRepo) GetBySID(ctx context.Context, sid string) (*campaign.Campaign, error) {
	for _, c := range r.byID {
		if c.SID() == sid {
			return c, nil
		}
	}
	return nil, nil
}

func (r *memCampaignRepo) Update(ctx context.Context, c *campaign.Campaign) error {
	if _, ok := r.byID[c.ID()]; !ok {
		return errors.NewNotFoundError("campaign not found")
	}
	r.byID[c.ID()] = c
	return nil
}

type memEntryRepo struct {
	ledger.Repository
	byID   map[uint]*ledger.Entry
	nextID uint
}

func newMemEntryRepo() *memEntryRepo {
	return &memEntryRepo{byID: make(map[uint]*ledger.Entry), nextID: 1}
}

func (r *memEntryRepo) Create(ctx context.Context, e *ledger.Entry) error {
	if e.ID() == 0 {
		if err := e.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.byID[e.ID()] = e
	return nil
}

func (r *memEntryRepo) Update(ctx context.Context, e *ledger.Entry) error {
	r.byID[e.ID()] = e
	return nil
}

func (r *memEntryRepo) GetByCampaignID(ctx context.Context, campaignID uint) ([]*ledger.Entry, error) {
	var out []*ledger.Entry
	for _, e := range r.byID {
		if e.SourceCampaignID() == campaignID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEntryRepo) GetRootByCampaignID(ctx context.Context, campaignID uint) (*ledger.Entry, error) {
	for _, e := range r.byID {
		if e.IsRoot() && e.SourceCampaignID() == campaignID {
			return e, nil
		}
	}
	return nil, nil
}

type memCodeRepo struct {
	invitation.CodeRepository
	byID   map[uint]*invitation.Code
	nextID uint
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{byID: make(map[uint]*invitation.Code), nextID: 1}
}

func (r *memCodeRepo) Create(ctx context.Context, c *invitation.Code) error {
	if c.ID() == 0 {
		if err := c.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.byID[c.ID()] = c
	return nil
}

func (r *memCodeRepo) Update(ctx context.Context, c *invitation.Code) error {
	r.byID[c.ID()] = c
	return nil
}

func (r *memCodeRepo) GetByLedgerEntryIDs(ctx context.Context, ids []uint) ([]*invitation.Code, error) {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	var out []*invitation.Code
	for _, c := range r.byID {
		if c.CurrentLedgerEntryID() != nil && set[*c.CurrentLedgerEntryID()] {
			out = append(out, c)
		}
	}
	return out, nil
}

type memPartnerRepo struct {
	partner.Repository
	byID map[uint]*partner.Partner
}

func (r *memPartnerRepo) GetBySID(ctx context.Context, sid string) (*partner.Partner, error) {
	for _, p := range r.byID {
		if p.SID() == sid {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memPartnerRepo) GetByID(ctx context.Context, id uint) (*partner.Partner, error) {
	return r.byID[id], nil
}

func seedActiveCampaign(t *testing.T, repo *memCampaignRepo, sid string, ownerID uint, total int64) *campaign.Campaign {
	t.Helper()
	now := time.Now().UTC()
	c, err := campaign.NewCampaign(sid, ownerID, total, now.Add(-time.Hour), now.Add(30*24*time.Hour), 0)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestSetCampaignStatus_CascadeExpiresTreeAndCodes(t *testing.T) {
	ctx := context.Background()
	campaigns := newMemCampaignRepo()
	entries := newMemEntryRepo()
	codes := newMemCodeRepo()
	uc := NewSetCampaignStatusUseCase(campaigns, entries, codes, stubTx{}, nopPublisher{}, logger.NewLogger())

	cmp := seedActiveCampaign(t, campaigns, "cmp_spring", 1, 100)

	root, err := ledger.NewRootEntry("le_root", 1, cmp.ID(), 100)
	require.NoError(t, err)
	require.NoError(t, entries.Create(ctx, root))
	require.NoError(t, root.AllocateToChild(30))
	child, err := ledger.NewChildEntry("le_child", 2, cmp.ID(), root.ID(), 1, 30)
	require.NoError(t, err)
	require.NoError(t, entries.Create(ctx, child))

	code, err := invitation.NewCode("childcode01", 2)
	require.NoError(t, err)
	require.NoError(t, code.Activate(child.ID()))
	require.NoError(t, codes.Create(ctx, code))

	_, err = uc.Execute(ctx, SetCampaignStatusCommand{CampaignSID: cmp.SID(), Status: campaign.StatusInactive})
	require.NoError(t, err)

	assert.Equal(t, campaign.StatusInactive, cmp.Status())
	assert.Equal(t, ledger.StatusExpired, root.Status())
	assert.Equal(t, ledger.StatusExpired, child.Status())
	assert.False(t, code.IsActive())
}

func TestSetCampaignStatus_ReactivationRestoresEntriesButNotCodes(t *testing.T) {
	ctx := context.Background()
	campaigns := newMemCampaignRepo()
	entries := newMemEntryRepo()
	codes := newMemCodeRepo()
	uc := NewSetCampaignStatusUseCase(campaigns, entries, codes, stubTx{}, nopPublisher{}, logger.NewLogger())

	cmp := seedActiveCampaign(t, campaigns, "cmp_spring", 1, 100)
	root, err := ledger.NewRootEntry("le_root", 1, cmp.ID(), 100)
	require.NoError(t, err)
	require.NoError(t, entries.Create(ctx, root))
	code, err := invitation.NewCode("ownercode01", 1)
	require.NoError(t, err)
	require.NoError(t, code.Activate(root.ID()))
	require.NoError(t, codes.Create(ctx, code))

	_, err = uc.Execute(ctx, SetCampaignStatusCommand{CampaignSID: cmp.SID(), Status: campaign.StatusInactive})
	require.NoError(t, err)
	require.Equal(t, ledger.StatusExpired, root.Status())

	_, err = uc.Execute(ctx, SetCampaignStatusCommand{CampaignSID: cmp.SID(), Status: campaign.StatusActive})
	require.NoError(t, err)

	assert.Equal(t, ledger.StatusActive, root.Status())
	// Codes stay down until the partner re-activates them.
	assert.False(t, code.IsActive())
}

func TestSetCampaignStatus_InvalidTransition(t *testing.T) {
	ctx := context.Background()
	campaigns := newMemCampaignRepo()
	uc := NewSetCampaignStatusUseCase(campaigns, newMemEntryRepo(), newMemCodeRepo(), stubTx{}, nopPublisher{}, logger.NewLogger())

	cmp := seedActiveCampaign(t, campaigns, "cmp_spring", 1, 100)
	_, err := uc.Execute(ctx, SetCampaignStatusCommand{CampaignSID: cmp.SID(), Status: campaign.StatusExpired})
	require.NoError(t, err)

	// Expired campaigns may only be deleted.
	_, err = uc.Execute(ctx, SetCampaignStatusCommand{CampaignSID: cmp.SID(), Status: campaign.StatusInactive})
	assert.True(t, errors.IsConflictError(err))

	_, err = uc.Execute(ctx, SetCampaignStatusCommand{CampaignSID: cmp.SID(), Status: campaign.StatusDeleted})
	require.NoError(t, err)
	_, err = uc.Execute(ctx, SetCampaignStatusCommand{CampaignSID: cmp.SID(), Status: campaign.StatusActive})
	assert.True(t, errors.IsConflictError(err))
}

func TestUpdateCampaign_TopUpMirrorsRootEntry(t *testing.T) {
	ctx := context.Background()
	campaigns := newMemCampaignRepo()
	entries := newMemEntryRepo()
	uc := NewUpdateCampaignUseCase(campaigns, entries, stubTx{}, logger.NewLogger())

	cmp := seedActiveCampaign(t, campaigns, "cmp_spring", 1, 100)
	root, err := ledger.NewRootEntry("le_root", 1, cmp.ID(), 100)
	require.NoError(t, err)
	require.NoError(t, entries.Create(ctx, root))

	newTotal := int64(150)
	result, err := uc.Execute(ctx, UpdateCampaignCommand{CampaignSID: cmp.SID(), TotalAllocated: &newTotal})
	require.NoError(t, err)

	assert.Equal(t, int64(150), result.Campaign.TotalAllocated())
	assert.Equal(t, int64(150), root.TotalAllocated())

	// Decreases are rejected.
	smaller := int64(100)
	_, err = uc.Execute(ctx, UpdateCampaignCommand{CampaignSID: cmp.SID(), TotalAllocated: &smaller})
	assert.True(t, errors.IsValidationError(err))
}

func TestCreateCampaign(t *testing.T) {
	ctx := context.Background()
	campaigns := newMemCampaignRepo()
	owner, err := partner.NewPartner("pt_owner", "Owner Corp", nil)
	require.NoError(t, err)
	require.NoError(t, owner.SetID(1))
	partners := &memPartnerRepo{byID: map[uint]*partner.Partner{1: owner}}
	uc := NewCreateCampaignUseCase(campaigns, partners, nopPublisher{}, logger.NewLogger())

	now := time.Now().UTC()
	result, err := uc.Execute(ctx, CreateCampaignCommand{
		OwnerPartnerSID: "pt_owner",
		TotalAllocated:  100,
		StartDate:       now,
		EndDate:         now.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusActive, result.Campaign.Status())
	assert.Equal(t, owner.ID(), result.Campaign.OwnerPartnerID())

	_, err = uc.Execute(ctx, CreateCampaignCommand{
		OwnerPartnerSID: "pt_missing",
		TotalAllocated:  100,
		StartDate:       now,
		EndDate:         now.Add(24 * time.Hour),
	})
	assert.True(t, errors.IsNotFoundError(err))

	_, err = uc.Execute(ctx, CreateCampaignCommand{
		OwnerPartnerSID: "pt_owner",
		TotalAllocated:  0,
		StartDate:       now,
		EndDate:         now.Add(24 * time.Hour),
	})
	assert.True(t, errors.IsValidationError(err))
}
