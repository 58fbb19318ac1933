package ledger

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Diagnostic records a recoverable decode problem. Decoding never fails hard;
// the offending entry is skipped and the rest of the document still decodes.
type Diagnostic struct {
	Entry  int
	Field  string
	Reason string
}

func (d Diagnostic) String() string {
	if d.Field == "" {
		return fmt.Sprintf("entry %d: %s", d.Entry, d.Reason)
	}
	return fmt.Sprintf("entry %d field %s: %s", d.Entry, d.Field, d.Reason)
}

var (
	// ErrVoteInFlight rejects a second submission by an actor whose previous
	// attempt is still live. The ledger is never contacted in this case.
	ErrVoteInFlight = errors.New("a vote attempt is already in flight")

	// ErrAmbiguousEmpty marks an empty decode over prior non-empty state.
	// It may mean "no data" or a query race, so the previous snapshot is
	// kept and the ambiguity surfaced instead of silently clearing.
	ErrAmbiguousEmpty = errors.New("empty record set over non-empty state")

	// ErrNoClaimsEvent means the active fetch confirmed but carried no
	// claims payload.
	ErrNoClaimsEvent = errors.New("no claims event found in transaction result")
)

// EligibilityError is the guard saying no. It surfaces as a disabled or
// forbidden action, never as a panic.
type EligibilityError struct {
	ClaimID string
	Reason  string
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("not eligible to vote on claim %s: %s", e.ClaimID, e.Reason)
}

// DispatchError wraps a transport or signing failure from the node. The raw
// message is surfaced verbatim to the caller.
type DispatchError struct {
	Op  string
	Err error
}

func (e *DispatchError) Error() string { return fmt.Sprintf("ledger %s: %v", e.Op, e.Err) }
func (e *DispatchError) Unwrap() error { return e.Err }

// AbortReason is the classified cause of an on-ledger abort.
type AbortReason int

const (
	AbortUnclassified AbortReason = iota - 1
	AbortClaimNotFound
	AbortVotingExpired
	AbortAlreadyVoted
)

func (r AbortReason) String() string {
	switch r {
	case AbortClaimNotFound:
		return "claim not found or invalid"
	case AbortVotingExpired:
		return "voting period has expired for this claim"
	case AbortAlreadyVoted:
		return "you have already voted on this claim"
	}
	return "unclassified ledger failure"
}

// AbortError is a transaction the ledger executed and rejected. Code is the
// embedded numeric abort code when one could be parsed.
type AbortError struct {
	Code   int64
	Reason AbortReason
	Raw    string
}

func (e *AbortError) Error() string {
	if e.Reason == AbortUnclassified {
		return fmt.Sprintf("%s: %s", e.Reason, e.Raw)
	}
	return e.Reason.String()
}

// ClassifyFailure maps a failed transaction's raw error string onto the known
// abort codes.
func ClassifyFailure(raw string) error { return classifyAbort(raw) }

var abortCodeRe = regexp.MustCompile(`MoveAbort.*?,\s*(\d+)\)`)

// classifyAbort maps the node's raw failure string onto the known abort
// codes. Unknown codes or unparseable messages stay unclassified with the
// raw message preserved.
func classifyAbort(raw string) *AbortError {
	m := abortCodeRe.FindStringSubmatch(raw)
	if m == nil {
		return &AbortError{Code: -1, Reason: AbortUnclassified, Raw: raw}
	}
	code, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return &AbortError{Code: -1, Reason: AbortUnclassified, Raw: raw}
	}
	switch code {
	case 0:
		return &AbortError{Code: code, Reason: AbortClaimNotFound, Raw: raw}
	case 1:
		return &AbortError{Code: code, Reason: AbortVotingExpired, Raw: raw}
	case 2:
		return &AbortError{Code: code, Reason: AbortAlreadyVoted, Raw: raw}
	}
	return &AbortError{Code: code, Reason: AbortUnclassified, Raw: raw}
}
