package ledger

import (
	"fmt"
	"math"
	"strings"
)

// Decision is the wire encoding of a vote choice.
type Decision int64

const (
	DecisionNo  Decision = 0
	DecisionYes Decision = 1
)

func (d Decision) String() string {
	if d == DecisionYes {
		return "yes"
	}
	return "no"
}

// Event type suffixes emitted by the marketplace module. All events are
// optional; a confirmed transaction without its expected event still counts
// as a success.
const (
	EventClaimCreated     = "::carbon_marketplace::ClaimCreated"
	EventClaimVoted       = "::carbon_marketplace::ClaimVoted"
	EventAllClaims        = "::carbon_marketplace::AllClaimsEvent"
	EventGetAllClaims     = "::carbon_marketplace::getAllClaimsEvent"
	EventOrgCreated       = "::carbon_marketplace::OrganisationCreated"
	EventOrgDetails       = "::carbon_marketplace::OrganisationDetailsEvent"
	EventOrgIDs           = "::carbon_marketplace::OrganisationIDsEvent"
	EventLendRequestMade  = "::carbon_marketplace::LendRequestCreated"
	marketplaceModulePath = "carbon_marketplace"
)

// ObjectIDs names the deployed package and the shared objects every call
// needs.
type ObjectIDs struct {
	Package      string
	ClaimHandler string
	OrgHandler   string
	Clock        string
}

func (o ObjectIDs) target(fn string) string {
	return fmt.Sprintf("%s::%s::%s", o.Package, marketplaceModulePath, fn)
}

// VoteOnClaim casts decision (yes=1, no=0) on the claim.
func (o ObjectIDs) VoteOnClaim(claimID string, d Decision) Call {
	return Call{
		Target: o.target("vote_on_a_claim"),
		Args:   []any{o.ClaimHandler, o.Clock, claimID, int64(d)},
	}
}

// CreateClaim submits a new credit claim. Coordinates travel as integer
// microdegrees; the initial status argument is always 1, matching the
// deployed module's expectation.
func (o ObjectIDs) CreateClaim(longitude, latitude float64, credits int64, evidenceRef, description string, votingPeriodSeconds int64) Call {
	return Call{
		Target: o.target("create_claim"),
		Args: []any{
			o.OrgHandler,
			o.ClaimHandler,
			int64(math.Round(longitude * 1e6)),
			int64(math.Round(latitude * 1e6)),
			credits,
			int64(1),
			evidenceRef,
			description,
			votingPeriodSeconds,
		},
	}
}

// GetAllClaims asks the ledger to recompute and emit the full claim set as an
// event (the active acquisition path).
func (o ObjectIDs) GetAllClaims() Call {
	return Call{
		Target: o.target("get_all_claims"),
		Args:   []any{o.OrgHandler, o.ClaimHandler, o.Clock},
	}
}

// RegisterOrganisation registers the sender's organisation.
func (o ObjectIDs) RegisterOrganisation(name, description string) Call {
	return Call{
		Target: o.target("register_organisation"),
		Args:   []any{o.OrgHandler, name, description},
	}
}

// GetMyOrganisationDetails asks for the sender's organisation as an event.
func (o ObjectIDs) GetMyOrganisationDetails() Call {
	return Call{
		Target: o.target("get_my_organisation_details"),
		Args:   []any{o.OrgHandler},
	}
}

// GetAllOrganisationIDs lists every registered organisation id as an event.
func (o ObjectIDs) GetAllOrganisationIDs() Call {
	return Call{
		Target: o.target("get_all_organisation_ids"),
		Args:   []any{o.OrgHandler},
	}
}

// GetOrganisationDetails asks for one organisation's record as an event.
func (o ObjectIDs) GetOrganisationDetails(orgID string) Call {
	return Call{
		Target: o.target("get_organisation_details"),
		Args:   []any{o.OrgHandler, orgID},
	}
}

// CreateLendRequest opens a lend request against another organisation.
func (o ObjectIDs) CreateLendRequest(orgID string, amount, issuedAtSeconds, durationSeconds int64) Call {
	return Call{
		Target: o.target("create_lend_request"),
		Args:   []any{o.OrgHandler, orgID, amount, issuedAtSeconds, durationSeconds},
	}
}

// FindEvent returns the first event whose type ends with any of the given
// suffixes, or nil.
func FindEvent(events []Event, suffixes ...string) *Event {
	for i := range events {
		for _, s := range suffixes {
			if strings.HasSuffix(events[i].Type, s) {
				return &events[i]
			}
		}
	}
	return nil
}
