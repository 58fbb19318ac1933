package ledger

import "fmt"

// ClaimStatus mirrors the numeric status stored on the ledger.
type ClaimStatus int16

const (
	StatusPending ClaimStatus = iota
	StatusApproved
	StatusRejected
)

func (s ClaimStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	}
	return fmt.Sprintf("Unknown(%d)", int16(s))
}

// Terminal reports whether the status can never change again. A claim that
// left Pending must never accept further votes.
func (s ClaimStatus) Terminal() bool { return s != StatusPending }

// ClaimRecord is the typed form of one claim entry from the claim handler
// object. IssuedAtRaw and VotingPeriodRaw keep the ledger's untagged numeric
// values; Resolve turns them into an absolute window.
type ClaimRecord struct {
	ClaimID          string
	OwnerAddress     string
	Longitude        float64
	Latitude         float64
	RequestedCredits int64
	Status           ClaimStatus
	EvidenceRef      string
	Description      string
	IssuedAtRaw      float64
	VotingPeriodRaw  float64
	YesVotes         int64
	NoVotes          int64
	TotalVotes       int64
}

// TallyConsistent checks the yes+no == total invariant the ledger maintains.
func (c ClaimRecord) TallyConsistent() bool {
	return c.YesVotes+c.NoVotes == c.TotalVotes
}

// OrganizationRecord is the typed form of one organisation entry.
type OrganizationRecord struct {
	OrgID           string
	OwnerAddress    string
	Name            string
	Description     string
	WalletAddress   string
	CarbonCredits   int64
	ReputationScore int64
	TimesLent       int64
	TotalLent       int64
	TimesBorrowed   int64
	TotalBorrowed   int64
	TotalReturned   int64
	TimesReturned   int64
	Emissions       int64
}

// Document is a raw ledger object as returned by the node: loosely structured
// nested JSON with field-bags wrapped in "fields" containers.
type Document = map[string]any

// Call is one outbound marketplace invocation. The node owns transaction
// construction and signing; we only name the target and supply arguments.
type Call struct {
	Target string `json:"target"`
	Args   []any  `json:"args"`
}

// Event is one event emitted by a confirmed transaction.
type Event struct {
	Type   string         `json:"type"`
	Parsed map[string]any `json:"parsedJson"`
}

// TxResult is a confirmed transaction with its effects.
type TxResult struct {
	Digest string  `json:"digest"`
	Status string  `json:"status"`
	Error  string  `json:"error"`
	Events []Event `json:"events"`
}

const (
	TxStatusSuccess = "success"
	TxStatusFailure = "failure"
)
