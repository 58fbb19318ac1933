package webserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/verdant-dao/carbon-claims/src/ledger"
)

type Claims struct {
	coord     *ledger.Coordinator
	lc        ledger.Client
	ids       ledger.ObjectIDs
	sanitizer *bluemonday.Policy
	now       func() int64
}

func NewClaims(coord *ledger.Coordinator, lc ledger.Client, ids ledger.ObjectIDs) Claims {
	return Claims{
		coord:     coord,
		lc:        lc,
		ids:       ids,
		sanitizer: bluemonday.StrictPolicy(),
		now:       func() int64 { return time.Now().UnixMilli() },
	}
}

type claimView struct {
	ClaimID          string  `json:"claim_id"`
	OwnerAddress     string  `json:"owner_address"`
	Longitude        float64 `json:"longitude"`
	Latitude         float64 `json:"latitude"`
	RequestedCredits int64   `json:"requested_credits"`
	Status           string  `json:"status"`
	EvidenceRef      string  `json:"evidence_ref"`
	Description      string  `json:"description"`
	YesVotes         int64   `json:"yes_votes"`
	NoVotes          int64   `json:"no_votes"`
	TotalVotes       int64   `json:"total_votes"`
	VotingEndsAt     int64   `json:"voting_ends_at,omitempty"`
	WindowValid      bool    `json:"window_valid"`
	IsActive         bool    `json:"is_active"`
	CanVote          bool    `json:"can_vote"`
}

func (h Claims) view(rec ledger.ClaimRecord, actor string, nowMS int64) claimView {
	w := rec.ResolveWindow()
	v := claimView{
		ClaimID:          rec.ClaimID,
		OwnerAddress:     rec.OwnerAddress,
		Longitude:        rec.Longitude,
		Latitude:         rec.Latitude,
		RequestedCredits: rec.RequestedCredits,
		Status:           rec.Status.String(),
		EvidenceRef:      rec.EvidenceRef,
		Description:      h.sanitizer.Sanitize(rec.Description),
		YesVotes:         rec.YesVotes,
		NoVotes:          rec.NoVotes,
		TotalVotes:       rec.TotalVotes,
		WindowValid:      w.Valid,
		IsActive:         ledger.IsActive(rec, w, nowMS),
		CanVote:          ledger.CanVote(actor, rec, w, nowMS),
	}
	if w.Valid {
		v.VotingEndsAt = w.EndMS
	}
	return v
}

func (h Claims) List(c *gin.Context) {
	snap := h.coord.Snapshot()
	actor := c.GetString("addr")
	nowMS := h.now()

	views := make([]claimView, 0, len(snap.Records))
	for _, rec := range snap.Records {
		views = append(views, h.view(rec, actor, nowMS))
	}

	out := gin.H{
		"claims":  views,
		"version": snap.Version,
		"source":  snap.LastSource.String(),
	}
	// An ambiguous empty read keeps the previous records but must be
	// surfaced distinctly from a confirmed-empty state.
	if snap.Err != nil {
		out["warning"] = snap.Err.Error()
	}
	c.JSON(http.StatusOK, out)
}

func (h Claims) Get(c *gin.Context) {
	rec, ok := h.coord.Lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"err": "claim not found"})
		return
	}
	c.JSON(http.StatusOK, h.view(rec, c.GetString("addr"), h.now()))
}

func (h Claims) Create(c *gin.Context) {
	var req struct {
		Longitude        float64 `json:"longitude" binding:"min=-180,max=180"`
		Latitude         float64 `json:"latitude" binding:"min=-90,max=90"`
		Credits          int64   `json:"credits" binding:"required,gt=0"`
		EvidenceRef      string  `json:"evidence_ref" binding:"required,max=256"`
		Description      string  `json:"description" binding:"required,min=1,max=10000"`
		VotingPeriodDays int64   `json:"voting_period_days" binding:"required,gt=0,lte=365"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	req.Description = h.sanitizer.Sanitize(req.Description)

	call := h.ids.CreateClaim(req.Longitude, req.Latitude, req.Credits,
		req.EvidenceRef, req.Description, req.VotingPeriodDays*86_400)

	digest, err := h.lc.Execute(c.Request.Context(), call)
	if err != nil {
		abortLedgerErr(c, err)
		return
	}
	res, err := h.lc.WaitForTransaction(c.Request.Context(), digest)
	if err != nil {
		abortLedgerErr(c, err)
		return
	}
	if res.Status == ledger.TxStatusFailure {
		abortLedgerErr(c, ledger.ClassifyFailure(res.Error))
		return
	}

	// The ClaimCreated event is optional; without it the claim is still
	// registered and the next resync is authoritative.
	out := gin.H{"digest": res.Digest, "registered": true}
	if ev := ledger.FindEvent(res.Events, ledger.EventClaimCreated); ev != nil {
		if id, ok := ev.Parsed["claim_id"].(string); ok {
			out["claim_id"] = id
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.coord.RefreshActive(ctx); err != nil {
			log.Printf("post-create resync: %v", err)
		}
	}()

	c.JSON(http.StatusCreated, out)
}

// Refresh runs the active acquisition path on explicit user request. This is
// the only retry mechanism in the system.
func (h Claims) Refresh(c *gin.Context) {
	if err := h.coord.RefreshActive(c.Request.Context()); err != nil {
		abortLedgerErr(c, err)
		return
	}
	snap := h.coord.Snapshot()
	c.JSON(http.StatusOK, gin.H{"version": snap.Version, "count": len(snap.Records)})
}
