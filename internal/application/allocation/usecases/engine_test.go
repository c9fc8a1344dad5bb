package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/domain/invitation"
	"github.com/trellis-inc/trellis/internal/domain/ledger"
	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/shared/authorization"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type testEnv struct {
	entries     *fakeEntryRepo
	campaigns   *fakeCampaignRepo
	partners    *fakePartnerRepo
	codes       *fakeCodeRepo
	redemptions *fakeRedemptionRepo
	tx          *fakeTx
	publisher   *capturingPublisher

	grantRoot *GrantRootUseCase
	allocate  *AllocateToChildUseCase
	revoke    *RevokeFromChildUseCase
	consume   *ConsumeUseCase
	history   *AllocationHistoryUseCase
}

func newTestEnv() *testEnv {
	env := &testEnv{
		entries:     newFakeEntryRepo(),
		campaigns:   newFakeCampaignRepo(),
		partners:    newFakePartnerRepo(),
		codes:       newFakeCodeRepo(),
		redemptions: newFakeRedemptionRepo(),
		tx:          &fakeTx{},
		publisher:   &capturingPublisher{},
	}
	log := logger.NewLogger()
	env.grantRoot = NewGrantRootUseCase(env.entries, env.campaigns, env.partners, env.tx, env.publisher, log)
	env.allocate = NewAllocateToChildUseCase(env.entries, env.campaigns, env.partners, env.tx, env.publisher, log)
	env.revoke = NewRevokeFromChildUseCase(env.entries, env.codes, env.tx, env.publisher, log)
	env.consume = NewConsumeUseCase(env.entries, env.campaigns, env.codes, env.redemptions, env.tx, env.publisher, log)
	env.history = NewAllocationHistoryUseCase(env.entries, env.partners, log)
	return env
}

func (env *testEnv) seedPartner(t *testing.T, sid, name string, parent *partner.Partner) *partner.Partner {
	t.Helper()
	p, err := partner.NewPartner(sid, name, parent)
	require.NoError(t, err)
	require.NoError(t, env.partners.Create(context.Background(), p))
	return p
}

func (env *testEnv) seedCampaign(t *testing.T, sid string, ownerID uint, total int64) *campaign.Campaign {
	t.Helper()
	now := time.Now().UTC()
	c, err := campaign.NewCampaign(sid, ownerID, total, now.Add(-time.Hour), now.Add(30*24*time.Hour), 0)
	require.NoError(t, err)
	require.NoError(t, env.campaigns.Create(context.Background(), c))
	return c
}

func (env *testEnv) seedActiveCode(t *testing.T, value string, ownerID, entryID uint) *invitation.Code {
	t.Helper()
	c, err := invitation.NewCode(value, ownerID)
	require.NoError(t, err)
	require.NoError(t, c.Activate(entryID))
	require.NoError(t, env.codes.Create(context.Background(), c))
	return c
}

func (env *testEnv) entryBySID(t *testing.T, sid string) *ledger.Entry {
	t.Helper()
	e, err := env.entries.GetBySID(context.Background(), sid)
	require.NoError(t, err)
	require.NotNil(t, e)
	return e
}

func TestGrantRoot(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 100)

	result, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 100})
	require.NoError(t, err)
	assert.True(t, result.Entry.IsRoot())
	assert.Equal(t, owner.ID(), result.Entry.PartnerID())
	assert.Equal(t, int64(100), result.Entry.AvailableQuota())
	assert.Contains(t, env.publisher.eventTypes(), ledger.EventTypeQuotaGranted)

	// Second grant for the same campaign is rejected.
	_, err = env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 100})
	assert.True(t, errors.IsConflictError(err))
}

func TestGrantRoot_AmountMustMatchCampaign(t *testing.T) {
	env := newTestEnv()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 100)

	_, err := env.grantRoot.Execute(context.Background(), GrantRootCommand{CampaignSID: cmp.SID(), Amount: 50})
	assert.True(t, errors.IsValidationError(err))
}

func TestGrantRoot_InactiveCampaign(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 100)
	require.NoError(t, cmp.SetStatus(campaign.StatusInactive))
	require.NoError(t, env.campaigns.Update(ctx, cmp))

	_, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 100})
	assert.True(t, errors.IsCampaignInactiveError(err))
}

func TestAllocateToChild(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	child := env.seedPartner(t, "pt_child", "Child LLC", owner)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 100)
	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 100})
	require.NoError(t, err)

	result, err := env.allocate.Execute(ctx, AllocateToChildCommand{
		SourceEntrySID:  granted.Entry.SID(),
		ChildPartnerSID: child.SID(),
		Amount:          30,
		ActorPartnerID:  owner.ID(),
		ActorRole:       authorization.RolePartner,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(30), result.ChildEntry.TotalAllocated())
	assert.Equal(t, child.ID(), result.ChildEntry.PartnerID())
	require.NotNil(t, result.ChildEntry.AllocatedByPartnerID())
	assert.Equal(t, owner.ID(), *result.ChildEntry.AllocatedByPartnerID())

	source := env.entryBySID(t, granted.Entry.SID())
	assert.Equal(t, int64(30), source.AllocatedToChildren())
	assert.Equal(t, int64(70), source.AvailableQuota())
}

func TestAllocateToChild_NotDirectChild(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	child := env.seedPartner(t, "pt_child", "Child LLC", owner)
	grandchild := env.seedPartner(t, "pt_grand", "Grandchild Ltd", child)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 100)
	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 100})
	require.NoError(t, err)

	// Quota cannot skip a level of the tree.
	_, err = env.allocate.Execute(ctx, AllocateToChildCommand{
		SourceEntrySID:  granted.Entry.SID(),
		ChildPartnerSID: grandchild.SID(),
		Amount:          10,
		ActorPartnerID:  owner.ID(),
		ActorRole:       authorization.RolePartner,
	})
	assert.True(t, errors.IsInvalidRelationshipError(err))
}

func TestAllocateToChild_ForbiddenForNonHolder(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	child := env.seedPartner(t, "pt_child", "Child LLC", owner)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 100)
	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 100})
	require.NoError(t, err)

	_, err = env.allocate.Execute(ctx, AllocateToChildCommand{
		SourceEntrySID:  granted.Entry.SID(),
		ChildPartnerSID: child.SID(),
		Amount:          10,
		ActorPartnerID:  child.ID(),
		ActorRole:       authorization.RolePartner,
	})

	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrorTypeForbidden, appErr.Type)
}

func TestAllocateToChild_InsufficientQuota(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	child := env.seedPartner(t, "pt_child", "Child LLC", owner)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 20)
	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 20})
	require.NoError(t, err)

	_, err = env.allocate.Execute(ctx, AllocateToChildCommand{
		SourceEntrySID:  granted.Entry.SID(),
		ChildPartnerSID: child.SID(),
		Amount:          21,
		ActorPartnerID:  owner.ID(),
		ActorRole:       authorization.RolePartner,
	})
	assert.True(t, errors.IsInsufficientQuotaError(err))

	source := env.entryBySID(t, granted.Entry.SID())
	assert.Equal(t, int64(0), source.AllocatedToChildren())
}

// Full allocate-consume-revoke round trip across two tree levels.
func TestAllocationRoundTrip(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	child := env.seedPartner(t, "pt_child", "Child LLC", owner)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 100)

	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 100})
	require.NoError(t, err)
	rootSID := granted.Entry.SID()

	allocated, err := env.allocate.Execute(ctx, AllocateToChildCommand{
		SourceEntrySID:  rootSID,
		ChildPartnerSID: child.SID(),
		Amount:          30,
		ActorPartnerID:  owner.ID(),
		ActorRole:       authorization.RolePartner,
	})
	require.NoError(t, err)
	childSID := allocated.ChildEntry.SID()

	env.seedActiveCode(t, "childcode01", child.ID(), allocated.ChildEntry.ID())
	_, err = env.consume.Execute(ctx, ConsumeCommand{CodeValue: "childcode01", InvitedUserID: 501})
	require.NoError(t, err)

	revoked, err := env.revoke.Execute(ctx, RevokeFromChildCommand{
		ChildEntrySID:  childSID,
		Amount:         29,
		ActorPartnerID: owner.ID(),
		ActorRole:      authorization.RolePartner,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(29), revoked.RevokedAmount)

	childEntry := env.entryBySID(t, childSID)
	assert.Equal(t, int64(1), childEntry.TotalAllocated())
	assert.Equal(t, int64(0), childEntry.AvailableQuota())
	assert.Equal(t, ledger.StatusExhausted, childEntry.Status())

	rootEntry := env.entryBySID(t, rootSID)
	assert.Equal(t, int64(1), rootEntry.AllocatedToChildren())
	assert.Equal(t, int64(99), rootEntry.AvailableQuota())

	// Nothing left to revoke on the child.
	_, err = env.revoke.Execute(ctx, RevokeFromChildCommand{
		ChildEntrySID:  childSID,
		Amount:         1,
		ActorPartnerID: owner.ID(),
		ActorRole:      authorization.RolePartner,
	})
	assert.True(t, errors.IsInsufficientQuotaError(err))
}

func TestRevokeAll_PausesChildAndDeactivatesCodes(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	child := env.seedPartner(t, "pt_child", "Child LLC", owner)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 100)
	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 100})
	require.NoError(t, err)
	allocated, err := env.allocate.Execute(ctx, AllocateToChildCommand{
		SourceEntrySID:  granted.Entry.SID(),
		ChildPartnerSID: child.SID(),
		Amount:          30,
		ActorPartnerID:  owner.ID(),
		ActorRole:       authorization.RolePartner,
	})
	require.NoError(t, err)
	code := env.seedActiveCode(t, "childcode01", child.ID(), allocated.ChildEntry.ID())

	revoked, err := env.revoke.Execute(ctx, RevokeFromChildCommand{
		ChildEntrySID:  allocated.ChildEntry.SID(),
		All:            true,
		ActorPartnerID: owner.ID(),
		ActorRole:      authorization.RolePartner,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30), revoked.RevokedAmount)
	assert.Equal(t, ledger.StatusPaused, revoked.ChildEntry.Status())

	stored, err := env.codes.GetByID(ctx, code.ID())
	require.NoError(t, err)
	assert.False(t, stored.IsActive())
	assert.Nil(t, stored.CurrentLedgerEntryID())

	root := env.entryBySID(t, granted.Entry.SID())
	assert.Equal(t, int64(0), root.AllocatedToChildren())
	assert.Equal(t, int64(100), root.AvailableQuota())
}

func TestRevoke_OnlyDirectGrantor(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	child := env.seedPartner(t, "pt_child", "Child LLC", owner)
	other := env.seedPartner(t, "pt_other", "Other Inc", nil)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 100)
	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 100})
	require.NoError(t, err)
	allocated, err := env.allocate.Execute(ctx, AllocateToChildCommand{
		SourceEntrySID:  granted.Entry.SID(),
		ChildPartnerSID: child.SID(),
		Amount:          30,
		ActorPartnerID:  owner.ID(),
		ActorRole:       authorization.RolePartner,
	})
	require.NoError(t, err)

	_, err = env.revoke.Execute(ctx, RevokeFromChildCommand{
		ChildEntrySID:  allocated.ChildEntry.SID(),
		Amount:         10,
		ActorPartnerID: other.ID(),
		ActorRole:      authorization.RolePartner,
	})
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrorTypeForbidden, appErr.Type)
}

func TestConsume(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 2)
	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 2})
	require.NoError(t, err)
	code := env.seedActiveCode(t, "ownercode01", owner.ID(), granted.Entry.ID())

	result, err := env.consume.Execute(ctx, ConsumeCommand{CodeValue: code.Value(), InvitedUserID: 101})
	require.NoError(t, err)
	assert.Equal(t, uint(101), result.Redemption.InvitedUserID())
	assert.Equal(t, owner.ID(), result.Redemption.InviterPartnerID())
	assert.Equal(t, cmp.ID(), result.Redemption.RootCampaignID())
	assert.Equal(t, int64(1), result.Entry.AvailableQuota())

	stored, err := env.codes.GetByID(ctx, code.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.TotalCumulativeUses())
}

func TestConsume_DuplicateUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 10)
	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 10})
	require.NoError(t, err)
	code := env.seedActiveCode(t, "ownercode01", owner.ID(), granted.Entry.ID())

	_, err = env.consume.Execute(ctx, ConsumeCommand{CodeValue: code.Value(), InvitedUserID: 101})
	require.NoError(t, err)

	_, err = env.consume.Execute(ctx, ConsumeCommand{CodeValue: code.Value(), InvitedUserID: 101})
	assert.True(t, errors.IsConflictError(err))

	entry := env.entryBySID(t, granted.Entry.SID())
	assert.Equal(t, int64(1), entry.ConsumedByOwnInvites())
}

func TestConsume_InactiveCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	c, err := invitation.NewCode("ownercode01", owner.ID())
	require.NoError(t, err)
	require.NoError(t, env.codes.Create(ctx, c))

	_, err = env.consume.Execute(ctx, ConsumeCommand{CodeValue: "ownercode01", InvitedUserID: 101})
	assert.True(t, errors.IsConflictError(err))
}

func TestConsume_InactiveCampaign(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 10)
	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 10})
	require.NoError(t, err)
	code := env.seedActiveCode(t, "ownercode01", owner.ID(), granted.Entry.ID())

	stored, err := env.campaigns.GetBySID(ctx, cmp.SID())
	require.NoError(t, err)
	require.NoError(t, stored.SetStatus(campaign.StatusInactive))
	require.NoError(t, env.campaigns.Update(ctx, stored))

	_, err = env.consume.Execute(ctx, ConsumeCommand{CodeValue: code.Value(), InvitedUserID: 101})
	assert.True(t, errors.IsCampaignInactiveError(err))
}

func TestConsume_ExhaustionEmitsEvent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 1)
	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 1})
	require.NoError(t, err)
	code := env.seedActiveCode(t, "ownercode01", owner.ID(), granted.Entry.ID())

	result, err := env.consume.Execute(ctx, ConsumeCommand{CodeValue: code.Value(), InvitedUserID: 101})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusExhausted, result.Entry.Status())
	assert.Contains(t, env.publisher.eventTypes(), ledger.EventTypeQuotaExhausted)
}

// Two concurrent redemptions race for the last unit of quota; exactly one
// may win.
func TestConsume_ConcurrentLastUnit(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 1)
	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 1})
	require.NoError(t, err)
	code := env.seedActiveCode(t, "ownercode01", owner.ID(), granted.Entry.ID())

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.consume.Execute(ctx, ConsumeCommand{
				CodeValue:     code.Value(),
				InvitedUserID: uint(1000 + i),
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	quotaFailures := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else if errors.IsInsufficientQuotaError(err) {
			quotaFailures++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, quotaFailures)

	entry := env.entryBySID(t, granted.Entry.SID())
	assert.Equal(t, int64(1), entry.ConsumedByOwnInvites())
	assert.Equal(t, ledger.StatusExhausted, entry.Status())
}

// An optimistic-lock conflict aborts the transaction; the operation is
// retried and succeeds on a fresh read.
func TestConsume_RetriesAfterConflict(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 10)
	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 10})
	require.NoError(t, err)
	code := env.seedActiveCode(t, "ownercode01", owner.ID(), granted.Entry.ID())

	conflicting := &conflictingEntryRepo{fakeEntryRepo: env.entries, conflicts: 2}
	consume := NewConsumeUseCase(conflicting, env.campaigns, env.codes, env.redemptions, env.tx, env.publisher, logger.NewLogger())

	result, err := consume.Execute(ctx, ConsumeCommand{CodeValue: code.Value(), InvitedUserID: 101})
	require.NoError(t, err)
	assert.Equal(t, int64(9), result.Entry.AvailableQuota())
}

func TestConsume_SurfacesAbortAfterRetryBudget(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 10)
	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 10})
	require.NoError(t, err)
	code := env.seedActiveCode(t, "ownercode01", owner.ID(), granted.Entry.ID())

	conflicting := &conflictingEntryRepo{fakeEntryRepo: env.entries, conflicts: 100}
	consume := NewConsumeUseCase(conflicting, env.campaigns, env.codes, env.redemptions, env.tx, env.publisher, logger.NewLogger())

	_, err = consume.Execute(ctx, ConsumeCommand{CodeValue: code.Value(), InvitedUserID: 101})
	assert.True(t, errors.IsTransactionAbortedError(err))
}

func TestAllocationHistory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedPartner(t, "pt_owner", "Owner Corp", nil)
	child := env.seedPartner(t, "pt_child", "Child LLC", owner)
	cmp := env.seedCampaign(t, "cmp_spring", owner.ID(), 100)
	granted, err := env.grantRoot.Execute(ctx, GrantRootCommand{CampaignSID: cmp.SID(), Amount: 100})
	require.NoError(t, err)

	for _, amount := range []int64{10, 20} {
		_, err = env.allocate.Execute(ctx, AllocateToChildCommand{
			SourceEntrySID:  granted.Entry.SID(),
			ChildPartnerSID: child.SID(),
			Amount:          amount,
			ActorPartnerID:  owner.ID(),
			ActorRole:       authorization.RolePartner,
		})
		require.NoError(t, err)
	}

	result, err := env.history.Execute(ctx, AllocationHistoryQuery{
		GranterPartnerSID: owner.SID(),
		HolderPartnerSID:  child.SID(),
		ActorPartnerID:    child.ID(),
		ActorRole:         authorization.RolePartner,
	})
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)

	// An unrelated partner gets nothing.
	other := env.seedPartner(t, "pt_other", "Other Inc", nil)
	_, err = env.history.Execute(ctx, AllocationHistoryQuery{
		GranterPartnerSID: owner.SID(),
		HolderPartnerSID:  child.SID(),
		ActorPartnerID:    other.ID(),
		ActorRole:         authorization.RolePartner,
	})
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrorTypeForbidden, appErr.Type)
}
