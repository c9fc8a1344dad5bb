// Package constants defines shared constant values used across the application.
package constants

// Database table names
const (
	TablePartners        = "partners"
	TableCampaigns       = "campaigns"
	TableLedgerEntries   = "ledger_entries"
	TableInvitationCodes = "invitation_codes"
	TableRedemptions     = "redemptions"
)

// Pagination defaults
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Gin context keys set by the auth middleware
const (
	ContextKeyPartnerID = "partner_id"
	ContextKeyRole      = "partner_role"
)

// AllocationTxMaxRetries bounds how many times an allocation engine write
// is retried after an optimistic-lock conflict before surfacing
// TransactionAbortedError to the caller.
const AllocationTxMaxRetries = 3
