package webserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/verdant-dao/carbon-claims/src/api/data"
	"github.com/verdant-dao/carbon-claims/src/api/types"
	"github.com/verdant-dao/carbon-claims/src/ledger"
	"gorm.io/gorm"
)

type Votes struct {
	db     *gorm.DB
	rdb    *redis.Client
	engine *ledger.TallyEngine
	coord  *ledger.Coordinator
	ids    ledger.ObjectIDs
}

func NewVotes(db *gorm.DB, rdb *redis.Client, engine *ledger.TallyEngine, coord *ledger.Coordinator, ids ledger.ObjectIDs) Votes {
	return Votes{db: db, rdb: rdb, engine: engine, coord: coord, ids: ids}
}

var choices = map[string]ledger.Decision{
	"yes": ledger.DecisionYes,
	"no":  ledger.DecisionNo,
}

// Cast submits one vote. The engine re-validates eligibility, holds the
// single-attempt lock, and resyncs before settling; by the time this handler
// answers, the snapshot already reflects the vote.
func (h Votes) Cast(c *gin.Context) {
	var req struct {
		ClaimID string `json:"claim_id" binding:"required"`
		Choice  string `json:"choice" binding:"required,oneof=yes no"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	decision := choices[req.Choice]

	rec, ok := h.coord.Lookup(req.ClaimID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"err": "claim not found"})
		return
	}

	actor := c.GetString("addr")
	res, err := h.engine.Submit(c.Request.Context(), actor, rec, decision)
	if err != nil {
		abortLedgerErr(c, err)
		return
	}

	receipt := types.VoteReceipt{
		ClaimID:   req.ClaimID,
		Voter:     actor,
		Choice:    int16(decision),
		TxDigest:  res.Digest,
		CallHash:  ledger.CallFingerprint(h.ids.VoteOnClaim(req.ClaimID, decision)),
		EventSeen: res.EventSeen,
	}
	if err := data.SaveReceipt(h.db, &receipt); err != nil {
		log.Printf("vote receipt %s: %v", res.Digest, err)
	}
	if err := data.PublishVote(c.Request.Context(), h.rdb, map[string]interface{}{
		"claim_id": req.ClaimID,
		"voter":    actor,
		"choice":   decision.String(),
		"digest":   res.Digest,
	}); err != nil {
		log.Printf("vote publish %s: %v", res.Digest, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"digest":     res.Digest,
		"event_seen": res.EventSeen,
		"version":    h.coord.Snapshot().Version,
	})
}
