package ledger

import (
	"encoding/json"
	"strconv"
)

// The node returns claims and organisations as loosely structured nested
// field-bags. Two shapes occur in the wild: a "contents" shape (ordered
// key/value entries, each value a nested field-bag) and a direct sequence of
// record-shaped bags. Decoding detects the shape once and dispatches on it
// instead of probing fields ad hoc.
type shape int

const (
	shapeContents shape = iota
	shapeDirect
	shapeMalformed
)

// fieldBag unwraps the {"fields": {...}} envelope the node puts around nested
// structs. A plain map passes through unchanged.
func fieldBag(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	if inner, ok := m["fields"].(map[string]any); ok {
		return inner, true
	}
	return m, true
}

func detectShape(container any) (shape, []any) {
	if seq, ok := container.([]any); ok {
		return shapeDirect, seq
	}
	bag, ok := fieldBag(container)
	if !ok {
		return shapeMalformed, nil
	}
	if seq, ok := bag["contents"].([]any); ok {
		return shapeContents, seq
	}
	if _, present := bag["contents"]; present {
		return shapeMalformed, nil
	}
	// Absent contents means a well-formed, legitimately empty container.
	return shapeContents, nil
}

// lookup digs through the object-query envelope (data / content / fields
// nesting) for a named container. Event payloads carry the container at the
// top level, so the direct hit is checked first.
func lookup(doc Document, name string, depth int) (any, bool) {
	if doc == nil || depth > 6 {
		return nil, false
	}
	if v, ok := doc[name]; ok {
		return v, true
	}
	for _, k := range []string{"data", "content", "fields"} {
		child, ok := doc[k].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := lookup(child, name, depth+1); ok {
			return v, true
		}
	}
	return nil, false
}

// asString reads a text field, defaulting when absent or not textual.
func asString(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

// asInt reads an integer field that may arrive as a JSON number or a numeric
// string. Anything else decodes to zero.
func asInt(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return int64(f)
		}
	case int64:
		return t
	case int:
		return int64(t)
	}
	return 0
}

// asFloat reads a numeric field that may arrive as a JSON number or a
// numeric string.
func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
	case int64:
		return float64(t)
	case int:
		return float64(t)
	}
	return 0
}

func decodeClaimBag(bag map[string]any) ClaimRecord {
	return ClaimRecord{
		ClaimID:          asString(bag["claim_id"], ""),
		OwnerAddress:     asString(bag["organisation_wallet_address"], "Unknown"),
		Longitude:        asFloat(bag["longitude"]),
		Latitude:         asFloat(bag["latitude"]),
		RequestedCredits: asInt(bag["requested_carbon_credits"]),
		Status:           ClaimStatus(asInt(bag["status"])),
		EvidenceRef:      asString(bag["ipfs_hash"], ""),
		Description:      asString(bag["description"], ""),
		IssuedAtRaw:      asFloat(bag["time_of_issue"]),
		VotingPeriodRaw:  asFloat(bag["voting_period"]),
		YesVotes:         asInt(bag["yes_votes"]),
		NoVotes:          asInt(bag["no_votes"]),
		TotalVotes:       asInt(bag["total_votes"]),
	}
}

// DecodeClaimSequence decodes a flat sequence of claim field-bags, as carried
// by the AllClaimsEvent payload. Malformed entries are skipped with a
// diagnostic; the rest of the sequence still decodes.
func DecodeClaimSequence(seq []any) ([]ClaimRecord, []Diagnostic) {
	records := make([]ClaimRecord, 0, len(seq))
	var diags []Diagnostic
	for i, item := range seq {
		bag, ok := fieldBag(item)
		if !ok {
			diags = append(diags, Diagnostic{Entry: i, Reason: "entry is not a field-bag"})
			continue
		}
		rec := decodeClaimBag(bag)
		if !rec.TallyConsistent() {
			diags = append(diags, Diagnostic{Entry: i, Field: "total_votes", Reason: "tally mismatch"})
		}
		records = append(records, rec)
	}
	return records, diags
}

// DecodeClaims converts a raw claim-handler document into typed records.
// Total function: malformed input yields an empty slice plus diagnostics,
// never a panic. Decoding the same document twice yields equal output.
func DecodeClaims(doc Document) ([]ClaimRecord, []Diagnostic) {
	container, ok := lookup(doc, "claims", 0)
	if !ok {
		return nil, []Diagnostic{{Entry: -1, Reason: "document has no claims container"}}
	}

	sh, seq := detectShape(container)
	switch sh {
	case shapeDirect:
		return DecodeClaimSequence(seq)
	case shapeMalformed:
		return nil, []Diagnostic{{Entry: -1, Reason: "claims container has unexpected shape"}}
	}

	records := make([]ClaimRecord, 0, len(seq))
	var diags []Diagnostic
	for i, item := range seq {
		entry, ok := fieldBag(item)
		if !ok {
			diags = append(diags, Diagnostic{Entry: i, Reason: "entry is not a field-bag"})
			continue
		}
		valueBag, ok := fieldBag(entry["value"])
		if !ok {
			diags = append(diags, Diagnostic{Entry: i, Field: "value", Reason: "missing nested field-bag"})
			continue
		}
		rec := decodeClaimBag(valueBag)
		if rec.ClaimID == "" {
			rec.ClaimID = asString(entry["key"], "")
		}
		if !rec.TallyConsistent() {
			diags = append(diags, Diagnostic{Entry: i, Field: "total_votes", Reason: "tally mismatch"})
		}
		records = append(records, rec)
	}
	return records, diags
}

func decodeOrgBag(bag map[string]any) OrganizationRecord {
	org := OrganizationRecord{
		OrgID:           asString(bag["organisation_id"], ""),
		OwnerAddress:    asString(bag["owner"], "Unknown"),
		Name:            asString(bag["name"], "Unknown"),
		Description:     asString(bag["description"], ""),
		WalletAddress:   asString(bag["wallet_address"], ""),
		CarbonCredits:   asInt(bag["carbon_credits"]),
		ReputationScore: asInt(bag["reputation_score"]),
		TimesLent:       asInt(bag["times_lent"]),
		TotalLent:       asInt(bag["total_lent"]),
		TimesBorrowed:   asInt(bag["times_borrowed"]),
		TotalBorrowed:   asInt(bag["total_borrowed"]),
		TotalReturned:   asInt(bag["total_returned"]),
		TimesReturned:   asInt(bag["times_returned"]),
		Emissions:       asInt(bag["emissions"]),
	}
	// The node nests the object id one level down.
	if org.OrgID == "" {
		if idBag, ok := fieldBag(bag["id"]); ok {
			org.OrgID = asString(idBag["id"], "")
		}
	}
	if org.WalletAddress == "" {
		org.WalletAddress = org.OwnerAddress
	}
	return org
}

// DecodeOrganisations converts a raw organisation-handler document into typed
// records with the same shape handling and skip-on-malformed policy as
// DecodeClaims.
func DecodeOrganisations(doc Document) ([]OrganizationRecord, []Diagnostic) {
	container, ok := lookup(doc, "organisations", 0)
	if !ok {
		return nil, []Diagnostic{{Entry: -1, Reason: "document has no organisations container"}}
	}

	sh, seq := detectShape(container)
	if sh == shapeMalformed {
		return nil, []Diagnostic{{Entry: -1, Reason: "organisations container has unexpected shape"}}
	}

	records := make([]OrganizationRecord, 0, len(seq))
	var diags []Diagnostic
	for i, item := range seq {
		entry, ok := fieldBag(item)
		if !ok {
			diags = append(diags, Diagnostic{Entry: i, Reason: "entry is not a field-bag"})
			continue
		}
		bag := entry
		if sh == shapeContents {
			bag, ok = fieldBag(entry["value"])
			if !ok {
				diags = append(diags, Diagnostic{Entry: i, Field: "value", Reason: "missing nested field-bag"})
				continue
			}
		}
		org := decodeOrgBag(bag)
		if org.OrgID == "" && sh == shapeContents {
			org.OrgID = asString(entry["key"], "")
		}
		records = append(records, org)
	}
	return records, diags
}

// DecodeOrganisationEvent decodes a single OrganisationDetailsEvent payload.
func DecodeOrganisationEvent(parsed map[string]any) OrganizationRecord {
	return decodeOrgBag(parsed)
}
