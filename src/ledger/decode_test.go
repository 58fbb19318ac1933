package ledger

import (
	"reflect"
	"testing"
)

func claimBag(id, owner string, yes, no, total int64) map[string]any {
	return map[string]any{
		"claim_id":                    id,
		"organisation_wallet_address": owner,
		"longitude":                   float64(12_500_000) / 1e6,
		"latitude":                    float64(-3_250_000) / 1e6,
		"requested_carbon_credits":    float64(100),
		"status":                      float64(0),
		"ipfs_hash":                   "QmEvidence",
		"description":                 "reforestation plot",
		"time_of_issue":               float64(1_700_000_000_000),
		"voting_period":               float64(7),
		"yes_votes":                   float64(yes),
		"no_votes":                    float64(no),
		"total_votes":                 float64(total),
	}
}

func contentsDoc(entries ...any) Document {
	return Document{
		"data": map[string]any{
			"content": map[string]any{
				"fields": map[string]any{
					"claims": map[string]any{
						"fields": map[string]any{"contents": entries},
					},
				},
			},
		},
	}
}

func TestDecodeClaimsContentsShape(t *testing.T) {
	doc := contentsDoc(
		map[string]any{"key": "0xc1", "value": map[string]any{"fields": claimBag("0xc1", "0xalice", 3, 1, 4)}},
		map[string]any{"key": "0xc2", "value": "not a bag"},
		map[string]any{"key": "0xc3", "value": map[string]any{"fields": claimBag("", "0xbob", 0, 0, 0)}},
	)

	records, diags := DecodeClaims(doc)
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if len(diags) != 1 {
		t.Fatalf("diags = %d, want 1", len(diags))
	}
	if diags[0].Entry != 1 {
		t.Errorf("diagnostic entry = %d, want 1", diags[0].Entry)
	}
	if records[0].ClaimID != "0xc1" || records[0].YesVotes != 3 {
		t.Errorf("first record = %+v", records[0])
	}
	// Missing claim_id falls back to the entry key.
	if records[1].ClaimID != "0xc3" {
		t.Errorf("fallback claim id = %q, want 0xc3", records[1].ClaimID)
	}
}

func TestDecodeClaimsDirectShape(t *testing.T) {
	doc := Document{"claims": []any{
		claimBag("0xc1", "0xalice", 1, 0, 1),
		claimBag("0xc2", "0xbob", 0, 2, 2),
	}}
	records, diags := DecodeClaims(doc)
	if len(diags) != 0 {
		t.Fatalf("unexpected diags: %v", diags)
	}
	if len(records) != 2 || records[1].ClaimID != "0xc2" {
		t.Fatalf("records = %+v", records)
	}
}

func TestDecodeClaimsIdempotent(t *testing.T) {
	doc := contentsDoc(
		map[string]any{"key": "0xc1", "value": map[string]any{"fields": claimBag("0xc1", "0xalice", 3, 1, 4)}},
	)
	first, fd := DecodeClaims(doc)
	second, sd := DecodeClaims(doc)
	if !reflect.DeepEqual(first, second) || !reflect.DeepEqual(fd, sd) {
		t.Fatal("decoding the same document twice produced different output")
	}
}

func TestDecodeClaimsDefaults(t *testing.T) {
	doc := Document{"claims": []any{map[string]any{"claim_id": "0xc1"}}}
	records, _ := DecodeClaims(doc)
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.OwnerAddress != "Unknown" {
		t.Errorf("owner default = %q, want Unknown", rec.OwnerAddress)
	}
	if rec.RequestedCredits != 0 || rec.Status != StatusPending {
		t.Errorf("numeric defaults: %+v", rec)
	}
}

func TestDecodeClaimsNumericStrings(t *testing.T) {
	bag := claimBag("0xc1", "0xalice", 0, 0, 0)
	bag["yes_votes"] = "12"
	bag["no_votes"] = "3"
	bag["total_votes"] = "15"
	bag["longitude"] = "12.5"

	records, diags := DecodeClaims(Document{"claims": []any{bag}})
	if len(diags) != 0 {
		t.Fatalf("unexpected diags: %v", diags)
	}
	rec := records[0]
	if rec.YesVotes != 12 || rec.NoVotes != 3 || rec.TotalVotes != 15 {
		t.Errorf("tally = %d/%d/%d", rec.YesVotes, rec.NoVotes, rec.TotalVotes)
	}
	if rec.Longitude != 12.5 {
		t.Errorf("longitude = %v", rec.Longitude)
	}
}

func TestDecodeClaimsEmptyContainer(t *testing.T) {
	doc := Document{"claims": map[string]any{"fields": map[string]any{}}}
	records, diags := DecodeClaims(doc)
	if len(records) != 0 || len(diags) != 0 {
		t.Fatalf("records = %v, diags = %v, want both empty", records, diags)
	}
}

func TestDecodeClaimsMissingContainer(t *testing.T) {
	records, diags := DecodeClaims(Document{"something_else": true})
	if len(records) != 0 {
		t.Fatalf("records = %v, want empty", records)
	}
	if len(diags) != 1 || diags[0].Entry != -1 {
		t.Fatalf("diags = %v", diags)
	}
}

func TestDecodeClaimsMalformedContents(t *testing.T) {
	doc := Document{"claims": map[string]any{"contents": "not a sequence"}}
	records, diags := DecodeClaims(doc)
	if len(records) != 0 || len(diags) != 1 {
		t.Fatalf("records = %v, diags = %v", records, diags)
	}
}

func TestDecodeClaimsTallyMismatch(t *testing.T) {
	doc := Document{"claims": []any{claimBag("0xc1", "0xalice", 3, 1, 5)}}
	records, diags := DecodeClaims(doc)
	// The record is kept; the mismatch is only flagged.
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if len(diags) != 1 || diags[0].Field != "total_votes" {
		t.Fatalf("diags = %v", diags)
	}
}

func orgBag(name string) map[string]any {
	return map[string]any{
		"id":             map[string]any{"fields": map[string]any{"id": "0xorg1"}},
		"owner":          "0xalice",
		"name":           name,
		"description":    "desc",
		"carbon_credits": float64(500),
		"times_lent":     float64(2),
		"total_lent":     float64(300),
		"emissions":      float64(40),
	}
}

func TestDecodeOrganisationsDirectShape(t *testing.T) {
	doc := Document{"organisations": []any{orgBag("Verdant")}}
	orgs, diags := DecodeOrganisations(doc)
	if len(diags) != 0 {
		t.Fatalf("unexpected diags: %v", diags)
	}
	if len(orgs) != 1 {
		t.Fatalf("orgs = %d, want 1", len(orgs))
	}
	org := orgs[0]
	if org.OrgID != "0xorg1" {
		t.Errorf("nested id not unwrapped: %q", org.OrgID)
	}
	if org.WalletAddress != "0xalice" {
		t.Errorf("wallet fallback = %q, want owner address", org.WalletAddress)
	}
	if org.CarbonCredits != 500 || org.TotalLent != 300 {
		t.Errorf("org = %+v", org)
	}
}

func TestDecodeOrganisationEvent(t *testing.T) {
	org := DecodeOrganisationEvent(map[string]any{
		"organisation_id": "0xorg9",
		"owner":           "0xbob",
		"name":            "Evergreen",
		"wallet_address":  "0xwallet",
	})
	if org.OrgID != "0xorg9" || org.Name != "Evergreen" || org.WalletAddress != "0xwallet" {
		t.Fatalf("org = %+v", org)
	}
}
