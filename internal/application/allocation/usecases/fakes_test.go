package usecases

import (
	"context"
	"sort"
	"sync"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/domain/invitation"
	"github.com/trellis-inc/trellis/internal/domain/ledger"
	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/domain/shared/events"
	"github.com/trellis-inc/trellis/internal/shared/errors"
)

// fakeTx serializes transactions with a mutex, standing in for the
// database's isolation. Rollback is not simulated; tests that exercise
// conflicts inject them before any write is applied.
type fakeTx struct {
	mu sync.Mutex
}

func (t *fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *capturingPublisher) Publish(event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) PublishAll(evs []events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evs...)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.GetEventType())
	}
	return types
}

// --- ledger entries ---

func cloneEntry(e *ledger.Entry, version int) *ledger.Entry {
	clone, err := ledger.ReconstructEntry(
		e.ID(), e.SID(), e.PartnerID(), e.SourceCampaignID(),
		e.SourceParentEntryID(), e.AllocatedByPartnerID(),
		e.TotalAllocated(), e.ConsumedByOwnInvites(), e.AllocatedToChildren(),
		e.Status(), version, e.CreatedAt(), e.UpdatedAt())
	if err != nil {
		panic(err)
	}
	return clone
}

type fakeEntryRepo struct {
	mu     sync.Mutex
	byID   map[uint]*ledger.Entry
	nextID uint
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{byID: make(map[uint]*ledger.Entry), nextID: 1}
}

func (r *fakeEntryRepo) Create(ctx context.Context, entry *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID() == 0 {
		if err := entry.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.byID[entry.ID()] = cloneEntry(entry, entry.Version())
	return nil
}

func (r *fakeEntryRepo) GetByID(ctx context.Context, id uint) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneEntry(e, e.Version()), nil
}

func (r *fakeEntryRepo) GetBySID(ctx context.Context, sid string) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.byID {
		if e.SID() == sid {
			return cloneEntry(e, e.Version()), nil
		}
	}
	return nil, nil
}

func (r *fakeEntryRepo) Update(ctx context.Context, entry *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[entry.ID()]
	if !ok {
		return errors.NewNotFoundError("entry not found")
	}
	if stored.Version() != entry.Version() {
		return errors.NewTransactionAbortedError("entry version conflict")
	}
	r.byID[entry.ID()] = cloneEntry(entry, entry.Version()+1)
	return nil
}

func (r *fakeEntryRepo) all() []*ledger.Entry {
	entries := make([]*ledger.Entry, 0, len(r.byID))
	for _, e := range r.byID {
		entries = append(entries, cloneEntry(e, e.Version()))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID() < entries[j].ID() })
	return entries
}

func (r *fakeEntryRepo) GetRootByCampaignID(ctx context.Context, campaignID uint) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.all() {
		if e.IsRoot() && e.SourceCampaignID() == campaignID {
			return e, nil
		}
	}
	return nil, nil
}

func (r *fakeEntryRepo) GetByPartnerID(ctx context.Context, partnerID uint) ([]*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ledger.Entry
	for _, e := range r.all() {
		if e.PartnerID() == partnerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) GetActiveByPartnerID(ctx context.Context, partnerID uint) ([]*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ledger.Entry
	for _, e := range r.all() {
		if e.PartnerID() == partnerID && e.Status() == ledger.StatusActive && e.AvailableQuota() > 0 {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

func (r *fakeEntryRepo) GetChildrenOf(ctx context.Context, parentEntryID uint) ([]*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ledger.Entry
	for _, e := range r.all() {
		if e.SourceParentEntryID() != nil && *e.SourceParentEntryID() == parentEntryID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) GetByCampaignID(ctx context.Context, campaignID uint) ([]*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ledger.Entry
	for _, e := range r.all() {
		if e.SourceCampaignID() == campaignID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) GetByPartnerIDs(ctx context.Context, partnerIDs []uint) ([]*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[uint]bool, len(partnerIDs))
	for _, id := range partnerIDs {
		ids[id] = true
	}
	var out []*ledger.Entry
	for _, e := range r.all() {
		if ids[e.PartnerID()] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) ListAllocations(ctx context.Context, allocatedByPartnerID, holderPartnerID uint) ([]*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ledger.Entry
	for _, e := range r.all() {
		if e.AllocatedByPartnerID() != nil && *e.AllocatedByPartnerID() == allocatedByPartnerID && e.PartnerID() == holderPartnerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out, nil
}

// conflictingEntryRepo injects version conflicts into the first N Update
// calls before any write lands, to exercise the retry path.
type conflictingEntryRepo struct {
	*fakeEntryRepo
	mu        sync.Mutex
	conflicts int
}

func (r *conflictingEntryRepo) Update(ctx context.Context, entry *ledger.Entry) error {
	r.mu.Lock()
	if r.conflicts > 0 {
		r.conflicts--
		r.mu.Unlock()
		return errors.NewTransactionAbortedError("injected version conflict")
	}
	r.mu.Unlock()
	return r.fakeEntryRepo.Update(ctx, entry)
}

// --- campaigns ---

func cloneCampaign(c *campaign.Campaign, version int) *campaign.Campaign {
	clone, err := campaign.ReconstructCampaign(
		c.ID(), c.SID(), c.OwnerPartnerID(), c.TotalAllocated(), c.RenewalRequirement(),
		c.Status(), c.StartDate(), c.EndDate(), version, c.CreatedAt(), c.UpdatedAt())
	if err != nil {
		panic(err)
	}
	return clone
}

type fakeCampaignRepo struct {
	mu     sync.Mutex
	byID   map[uint]*campaign.Campaign
	nextID uint
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{byID: make(map[uint]*campaign.Campaign), nextID: 1}
}

func (r *fakeCampaignRepo) Create(ctx context.Context, c *campaign.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID() == 0 {
		if err := c.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.byID[c.ID()] = cloneCampaign(c, c.Version())
	return nil
}

func (r *fakeCampaignRepo) GetByID(ctx context.Context, id uint) (*campaign.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneCampaign(c, c.Version()), nil
}

func (r *fakeCampaignRepo) GetBySID(ctx context.Context, sid string) (*campaign.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.SID() == sid {
			return cloneCampaign(c, c.Version()), nil
		}
	}
	return nil, nil
}

func (r *fakeCampaignRepo) Update(ctx context.Context, c *campaign.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[c.ID()]
	if !ok {
		return errors.NewNotFoundError("campaign not found")
	}
	if stored.Version() != c.Version() {
		return errors.NewTransactionAbortedError("campaign version conflict")
	}
	r.byID[c.ID()] = cloneCampaign(c, c.Version()+1)
	return nil
}

func (r *fakeCampaignRepo) List(ctx context.Context, filter campaign.Filter) ([]*campaign.Campaign, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*campaign.Campaign
	for _, c := range r.byID {
		if filter.Status != nil && c.Status() != *filter.Status {
			continue
		}
		if filter.OwnerPartnerID != nil && c.OwnerPartnerID() != *filter.OwnerPartnerID {
			continue
		}
		out = append(out, cloneCampaign(c, c.Version()))
	}
	return out, int64(len(out)), nil
}

func (r *fakeCampaignRepo) FindExpiring(ctx context.Context, days int) ([]*campaign.Campaign, error) {
	return nil, nil
}

func (r *fakeCampaignRepo) FindPastEndDate(ctx context.Context) ([]*campaign.Campaign, error) {
	return nil, nil
}

// --- partners ---

func clonePartner(p *partner.Partner) *partner.Partner {
	clone, err := partner.ReconstructPartner(
		p.ID(), p.SID(), p.Name(), p.ParentID(), p.Level(), p.AncestorPath(),
		p.CreatedAt(), p.UpdatedAt())
	if err != nil {
		panic(err)
	}
	return clone
}

type fakePartnerRepo struct {
	mu     sync.Mutex
	byID   map[uint]*partner.Partner
	nextID uint
}

func newFakePartnerRepo() *fakePartnerRepo {
	return &fakePartnerRepo{byID: make(map[uint]*partner.Partner), nextID: 1}
}

func (r *fakePartnerRepo) Create(ctx context.Context, p *partner.Partner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID() == 0 {
		if err := p.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.byID[p.ID()] = clonePartner(p)
	return nil
}

func (r *fakePartnerRepo) GetByID(ctx context.Context, id uint) (*partner.Partner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return clonePartner(p), nil
}

func (r *fakePartnerRepo) GetBySID(ctx context.Context, sid string) (*partner.Partner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.SID() == sid {
			return clonePartner(p), nil
		}
	}
	return nil, nil
}

func (r *fakePartnerRepo) GetChildren(ctx context.Context, parentID uint) ([]*partner.Partner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*partner.Partner
	for _, p := range r.byID {
		if p.ParentID() != nil && *p.ParentID() == parentID {
			out = append(out, clonePartner(p))
		}
	}
	return out, nil
}

func (r *fakePartnerRepo) GetSubtree(ctx context.Context, partnerID uint) ([]*partner.Partner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*partner.Partner
	for _, p := range r.byID {
		if p.IsDescendantOf(partnerID) {
			out = append(out, clonePartner(p))
		}
	}
	return out, nil
}

func (r *fakePartnerRepo) List(ctx context.Context, filter partner.Filter) ([]*partner.Partner, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*partner.Partner
	for _, p := range r.byID {
		if filter.ParentID != nil && (p.ParentID() == nil || *p.ParentID() != *filter.ParentID) {
			continue
		}
		if filter.Level != nil && p.Level() != *filter.Level {
			continue
		}
		out = append(out, clonePartner(p))
	}
	return out, int64(len(out)), nil
}

// --- invitation codes ---

func cloneCode(c *invitation.Code, version int) *invitation.Code {
	clone, err := invitation.ReconstructCode(
		c.ID(), c.Value(), c.OwnerPartnerID(), c.CurrentLedgerEntryID(),
		c.Status(), c.TotalCumulativeUses(), version, c.CreatedAt(), c.UpdatedAt())
	if err != nil {
		panic(err)
	}
	return clone
}

type fakeCodeRepo struct {
	mu     sync.Mutex
	byID   map[uint]*invitation.Code
	nextID uint
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{byID: make(map[uint]*invitation.Code), nextID: 1}
}

func (r *fakeCodeRepo) Create(ctx context.Context, c *invitation.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID() == 0 {
		if err := c.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.byID[c.ID()] = cloneCode(c, c.Version())
	return nil
}

func (r *fakeCodeRepo) GetByID(ctx context.Context, id uint) (*invitation.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneCode(c, c.Version()), nil
}

func (r *fakeCodeRepo) GetByValue(ctx context.Context, value string) (*invitation.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.Value() == value {
			return cloneCode(c, c.Version()), nil
		}
	}
	return nil, nil
}

func (r *fakeCodeRepo) Update(ctx context.Context, c *invitation.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[c.ID()]
	if !ok {
		return errors.NewNotFoundError("code not found")
	}
	if stored.Version() != c.Version() {
		return errors.NewTransactionAbortedError("code version conflict")
	}
	r.byID[c.ID()] = cloneCode(c, c.Version()+1)
	return nil
}

func (r *fakeCodeRepo) GetByPartnerID(ctx context.Context, partnerID uint) ([]*invitation.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*invitation.Code
	for _, c := range r.byID {
		if c.OwnerPartnerID() == partnerID {
			out = append(out, cloneCode(c, c.Version()))
		}
	}
	return out, nil
}

func (r *fakeCodeRepo) GetByLedgerEntryID(ctx context.Context, ledgerEntryID uint) ([]*invitation.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*invitation.Code
	for _, c := range r.byID {
		if c.CurrentLedgerEntryID() != nil && *c.CurrentLedgerEntryID() == ledgerEntryID {
			out = append(out, cloneCode(c, c.Version()))
		}
	}
	return out, nil
}

func (r *fakeCodeRepo) GetByLedgerEntryIDs(ctx context.Context, ledgerEntryIDs []uint) ([]*invitation.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[uint]bool, len(ledgerEntryIDs))
	for _, id := range ledgerEntryIDs {
		ids[id] = true
	}
	var out []*invitation.Code
	for _, c := range r.byID {
		if c.CurrentLedgerEntryID() != nil && ids[*c.CurrentLedgerEntryID()] {
			out = append(out, cloneCode(c, c.Version()))
		}
	}
	return out, nil
}

// --- redemptions ---

func cloneRedemption(r *invitation.Redemption) *invitation.Redemption {
	clone, err := invitation.ReconstructRedemption(
		r.ID(), r.SID(), r.InvitedUserID(), r.InviterPartnerID(), r.InvitationCodeID(),
		r.LedgerEntryID(), r.RootCampaignID(), r.DidRenew(), r.RenewedAt(),
		r.RedeemedAt(), r.CreatedAt(), r.UpdatedAt())
	if err != nil {
		panic(err)
	}
	return clone
}

type fakeRedemptionRepo struct {
	mu     sync.Mutex
	byID   map[uint]*invitation.Redemption
	nextID uint
}

func newFakeRedemptionRepo() *fakeRedemptionRepo {
	return &fakeRedemptionRepo{byID: make(map[uint]*invitation.Redemption), nextID: 1}
}

func (r *fakeRedemptionRepo) Create(ctx context.Context, red *invitation.Redemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.InvitedUserID() == red.InvitedUserID() {
			return errors.NewConflictError("duplicate entry for invited user")
		}
	}
	if red.ID() == 0 {
		if err := red.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.byID[red.ID()] = cloneRedemption(red)
	return nil
}

func (r *fakeRedemptionRepo) GetByID(ctx context.Context, id uint) (*invitation.Redemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	red, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneRedemption(red), nil
}

func (r *fakeRedemptionRepo) GetBySID(ctx context.Context, sid string) (*invitation.Redemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, red := range r.byID {
		if red.SID() == sid {
			return cloneRedemption(red), nil
		}
	}
	return nil, nil
}

func (r *fakeRedemptionRepo) Update(ctx context.Context, red *invitation.Redemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[red.ID()]; !ok {
		return errors.NewNotFoundError("redemption not found")
	}
	r.byID[red.ID()] = cloneRedemption(red)
	return nil
}

func (r *fakeRedemptionRepo) GetByInvitedUserID(ctx context.Context, invitedUserID uint) (*invitation.Redemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, red := range r.byID {
		if red.InvitedUserID() == invitedUserID {
			return cloneRedemption(red), nil
		}
	}
	return nil, nil
}

func (r *fakeRedemptionRepo) CountStats(ctx context.Context, filter invitation.StatsFilter) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	partners := make(map[uint]bool, len(filter.InviterPartnerIDs))
	for _, id := range filter.InviterPartnerIDs {
		partners[id] = true
	}
	var invitations, conversions int64
	for _, red := range r.byID {
		if !partners[red.InviterPartnerID()] {
			continue
		}
		if filter.RootCampaignID != nil && red.RootCampaignID() != *filter.RootCampaignID {
			continue
		}
		if filter.From != nil && red.RedeemedAt().Before(*filter.From) {
			continue
		}
		if filter.To != nil && red.RedeemedAt().After(*filter.To) {
			continue
		}
		invitations++
		if red.DidRenew() {
			conversions++
		}
	}
	return invitations, conversions, nil
}

func (r *fakeRedemptionRepo) List(ctx context.Context, filter invitation.ListFilter) ([]*invitation.Redemption, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*invitation.Redemption
	for _, red := range r.byID {
		if filter.InviterPartnerID != nil && red.InviterPartnerID() != *filter.InviterPartnerID {
			continue
		}
		if filter.RootCampaignID != nil && red.RootCampaignID() != *filter.RootCampaignID {
			continue
		}
		out = append(out, cloneRedemption(red))
	}
	return out, int64(len(out)), nil
}
