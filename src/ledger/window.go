package ledger

import "math"

// Unit inference thresholds. The ledger does not tag time_of_issue or
// voting_period with a unit, so magnitude decides: issue times above
// msThreshold are already milliseconds, periods above fineThreshold are
// fine-grained (seconds or milliseconds), anything smaller is a day count.
// Borderline values (a period of exactly 1, say) are a documented
// approximation of the ledger's behavior and are deliberately not "fixed".
const (
	msThreshold   = 1e12
	fineThreshold = 1e9
	dayMillis     = 86_400_000
)

// Window is the absolute voting interval derived from a record's raw issue
// time and period. It is recomputed on every decode pass, never cached, since
// raw values may be corrected upstream. An invalid window means the claim is
// treated as not active (fail closed).
type Window struct {
	StartMS int64
	EndMS   int64
	Valid   bool
}

// Resolve infers the units of both raw values and computes the voting-end
// instant in milliseconds.
func Resolve(issuedRaw, periodRaw float64) Window {
	if !finite(issuedRaw) || !finite(periodRaw) {
		return Window{}
	}

	// Issue times above the threshold are milliseconds already; smaller
	// values pass through untouched rather than guessing a unit and
	// silently corrupting a timestamp that may be correct as given.
	issuedMS := issuedRaw

	var periodMS float64
	switch {
	case periodRaw > msThreshold:
		periodMS = periodRaw
	case periodRaw > fineThreshold:
		periodMS = periodRaw * 1000
	default:
		periodMS = periodRaw * dayMillis
	}

	endMS := issuedMS + periodMS
	if !finite(endMS) || endMS < issuedMS {
		return Window{}
	}
	return Window{StartMS: int64(issuedMS), EndMS: int64(endMS), Valid: true}
}

// ResolveWindow computes the record's voting window from its raw fields.
func (c ClaimRecord) ResolveWindow() Window {
	return Resolve(c.IssuedAtRaw, c.VotingPeriodRaw)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
