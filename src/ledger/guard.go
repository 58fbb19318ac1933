package ledger

// IsActive reports whether votes on the claim are currently being accepted.
// Used for read-only status badges; it ignores who is asking. An invalid
// window fails closed.
func IsActive(rec ClaimRecord, w Window, nowMS int64) bool {
	if rec.Status != StatusPending {
		return false
	}
	return w.Valid && nowMS <= w.EndMS
}

// CanVote decides whether the actor may cast a vote on the claim. Pure
// predicate: a known actor, not the claim's owner, a still-Pending claim and
// an unexpired valid window must all hold. The ledger enforces the same rules
// authoritatively; this check exists to avoid wasted submissions.
func CanVote(actor string, rec ClaimRecord, w Window, nowMS int64) bool {
	if actor == "" || actor == rec.OwnerAddress {
		return false
	}
	return IsActive(rec, w, nowMS)
}
