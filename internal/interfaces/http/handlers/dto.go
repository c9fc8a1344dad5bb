// Package handlers exposes the HTTP surface. Handlers bind requests,
// resolve the caller's partner identity from the context, call a use case,
// and translate aggregates into wire responses. No quota arithmetic lives
// here.
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/domain/invitation"
	"github.com/trellis-inc/trellis/internal/domain/ledger"
	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/shared/authorization"
	"github.com/trellis-inc/trellis/internal/shared/constants"
)

// actorFromContext extracts the authenticated caller set by the auth
// middleware.
func actorFromContext(c *gin.Context) (uint, authorization.Role) {
	partnerID := c.GetUint(constants.ContextKeyPartnerID)
	role := authorization.ParseRole(c.GetString(constants.ContextKeyRole))
	return partnerID, role
}

type PartnerResponse struct {
	SID       string    `json:"sid"`
	Name      string    `json:"name"`
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

func toPartnerResponse(p *partner.Partner) PartnerResponse {
	return PartnerResponse{
		SID:       p.SID(),
		Name:      p.Name(),
		Level:     p.Level(),
		CreatedAt: p.CreatedAt(),
	}
}

func toPartnerResponses(partners []*partner.Partner) []PartnerResponse {
	out := make([]PartnerResponse, 0, len(partners))
	for _, p := range partners {
		out = append(out, toPartnerResponse(p))
	}
	return out
}

type CampaignResponse struct {
	SID                string    `json:"sid"`
	Status             string    `json:"status"`
	TotalAllocated     int64     `json:"total_allocated"`
	RenewalRequirement int64     `json:"renewal_requirement"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	CreatedAt          time.Time `json:"created_at"`
}

func toCampaignResponse(c *campaign.Campaign) CampaignResponse {
	return CampaignResponse{
		SID:                c.SID(),
		Status:             string(c.Status()),
		TotalAllocated:     c.TotalAllocated(),
		RenewalRequirement: c.RenewalRequirement(),
		StartDate:          c.StartDate(),
		EndDate:            c.EndDate(),
		CreatedAt:          c.CreatedAt(),
	}
}

type EntryResponse struct {
	SID                 string    `json:"sid"`
	Status              string    `json:"status"`
	TotalAllocated      int64     `json:"total_allocated"`
	Consumed            int64     `json:"consumed"`
	AllocatedToChildren int64     `json:"allocated_to_children"`
	Available           int64     `json:"available"`
	IsRoot              bool      `json:"is_root"`
	CreatedAt           time.Time `json:"created_at"`
}

func toEntryResponse(e *ledger.Entry) EntryResponse {
	return EntryResponse{
		SID:                 e.SID(),
		Status:              string(e.Status()),
		TotalAllocated:      e.TotalAllocated(),
		Consumed:            e.ConsumedByOwnInvites(),
		AllocatedToChildren: e.AllocatedToChildren(),
		Available:           e.AvailableQuota(),
		IsRoot:              e.IsRoot(),
		CreatedAt:           e.CreatedAt(),
	}
}

func toEntryResponses(entries []*ledger.Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}

type CodeResponse struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Uses   int64  `json:"uses"`
	Bound  bool   `json:"bound"`
}

func toCodeResponse(code *invitation.Code) CodeResponse {
	return CodeResponse{
		Code:   code.Value(),
		Status: string(code.Status()),
		Uses:   code.TotalCumulativeUses(),
		Bound:  code.CurrentLedgerEntryID() != nil,
	}
}

func toCodeResponses(codes []*invitation.Code) []CodeResponse {
	out := make([]CodeResponse, 0, len(codes))
	for _, code := range codes {
		out = append(out, toCodeResponse(code))
	}
	return out
}

type RedemptionResponse struct {
	SID        string     `json:"sid"`
	DidRenew   bool       `json:"did_renew"`
	RenewedAt  *time.Time `json:"renewed_at,omitempty"`
	RedeemedAt time.Time  `json:"redeemed_at"`
}

func toRedemptionResponse(r *invitation.Redemption) RedemptionResponse {
	return RedemptionResponse{
		SID:        r.SID(),
		DidRenew:   r.DidRenew(),
		RenewedAt:  r.RenewedAt(),
		RedeemedAt: r.RedeemedAt(),
	}
}
