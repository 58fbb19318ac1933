package types

import "time"

// Claim is the persisted form of one snapshot record. The table is replaced
// wholesale per sync generation; it is a cache of ledger state, never the
// source of truth.
type Claim struct {
	ClaimID          string `gorm:"primaryKey;size:128"`
	OwnerAddress     string `gorm:"size:128;index"`
	Longitude        float64
	Latitude         float64
	RequestedCredits int64
	Status           int16  `gorm:"index"`
	EvidenceRef      string `gorm:"size:256"`
	Description      string `gorm:"type:text"`
	IssuedAtRaw      float64
	VotingPeriodRaw  float64
	YesVotes         int64
	NoVotes          int64
	TotalVotes       int64
	SnapshotVersion  uint64 `gorm:"index"`
	UpdatedAt        time.Time
}

// Organisation caches the last decoded organisation record.
type Organisation struct {
	OrgID           string `gorm:"primaryKey;size:128"`
	OwnerAddress    string `gorm:"size:128;index"`
	Name            string `gorm:"size:255"`
	Description     string `gorm:"type:text"`
	WalletAddress   string `gorm:"size:128"`
	CarbonCredits   int64
	ReputationScore int64
	TimesLent       int64
	TotalLent       int64
	TimesBorrowed   int64
	TotalBorrowed   int64
	TotalReturned   int64
	TimesReturned   int64
	Emissions       int64
	UpdatedAt       time.Time
}

// VoteReceipt records one settled vote attempt against the ledger.
type VoteReceipt struct {
	ID        uint64 `gorm:"primaryKey"`
	ClaimID   string `gorm:"size:128;index;not null"`
	Voter     string `gorm:"size:128;index;not null"`
	Choice    int16  `gorm:"not null"`
	TxDigest  string `gorm:"size:128"`
	CallHash  string `gorm:"size:64"`
	EventSeen bool
	CreatedAt time.Time
}
