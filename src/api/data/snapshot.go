package data

import (
	"time"

	"github.com/verdant-dao/carbon-claims/src/api/types"
	"github.com/verdant-dao/carbon-claims/src/ledger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReplaceClaims persists one snapshot generation. The whole table is swapped
// inside a transaction so a reader never sees rows from two decode passes.
func ReplaceClaims(db *gorm.DB, snap ledger.Snapshot) error {
	rows := make([]types.Claim, 0, len(snap.Records))
	now := time.Now()
	for _, rec := range snap.Records {
		rows = append(rows, types.Claim{
			ClaimID:          rec.ClaimID,
			OwnerAddress:     rec.OwnerAddress,
			Longitude:        rec.Longitude,
			Latitude:         rec.Latitude,
			RequestedCredits: rec.RequestedCredits,
			Status:           int16(rec.Status),
			EvidenceRef:      rec.EvidenceRef,
			Description:      rec.Description,
			IssuedAtRaw:      rec.IssuedAtRaw,
			VotingPeriodRaw:  rec.VotingPeriodRaw,
			YesVotes:         rec.YesVotes,
			NoVotes:          rec.NoVotes,
			TotalVotes:       rec.TotalVotes,
			SnapshotVersion:  snap.Version,
			UpdatedAt:        now,
		})
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&types.Claim{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// SaveReceipt records a settled vote attempt.
func SaveReceipt(db *gorm.DB, receipt *types.VoteReceipt) error {
	return db.Create(receipt).Error
}

// CacheOrganisations upserts the last decoded organisation records.
func CacheOrganisations(db *gorm.DB, orgs []ledger.OrganizationRecord) error {
	if len(orgs) == 0 {
		return nil
	}
	rows := make([]types.Organisation, 0, len(orgs))
	now := time.Now()
	for _, org := range orgs {
		rows = append(rows, types.Organisation{
			OrgID:           org.OrgID,
			OwnerAddress:    org.OwnerAddress,
			Name:            org.Name,
			Description:     org.Description,
			WalletAddress:   org.WalletAddress,
			CarbonCredits:   org.CarbonCredits,
			ReputationScore: org.ReputationScore,
			TimesLent:       org.TimesLent,
			TotalLent:       org.TotalLent,
			TimesBorrowed:   org.TimesBorrowed,
			TotalBorrowed:   org.TotalBorrowed,
			TotalReturned:   org.TotalReturned,
			TimesReturned:   org.TimesReturned,
			Emissions:       org.Emissions,
			UpdatedAt:       now,
		})
	}
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}
