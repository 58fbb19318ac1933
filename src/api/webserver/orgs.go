package webserver

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/verdant-dao/carbon-claims/src/api/data"
	"github.com/verdant-dao/carbon-claims/src/ledger"
	"gorm.io/gorm"
)

type Orgs struct {
	db        *gorm.DB
	lc        ledger.Client
	ids       ledger.ObjectIDs
	sanitizer *bluemonday.Policy
}

func NewOrgs(db *gorm.DB, lc ledger.Client, ids ledger.ObjectIDs) Orgs {
	return Orgs{db: db, lc: lc, ids: ids, sanitizer: bluemonday.StrictPolicy()}
}

// List reads the organisation handler object directly and decodes every
// registered organisation. When the object read fails, the event-emitting
// id-walk path is used instead.
func (h Orgs) List(c *gin.Context) {
	var (
		orgs  []ledger.OrganizationRecord
		diags []ledger.Diagnostic
	)
	doc, err := h.lc.GetObject(c.Request.Context(), h.ids.OrgHandler)
	if err == nil {
		orgs, diags = ledger.DecodeOrganisations(doc)
	} else {
		orgs, err = h.listByIDs(c)
		if err != nil {
			abortLedgerErr(c, err)
			return
		}
	}

	if h.db != nil {
		if err := data.CacheOrganisations(h.db, orgs); err != nil {
			log.Printf("org cache: %v", err)
		}
	}

	out := gin.H{"organisations": orgs}
	if len(diags) > 0 {
		out["skipped"] = len(diags)
	}
	c.JSON(http.StatusOK, out)
}

// listByIDs walks get_all_organisation_ids and fetches each organisation's
// details as events.
func (h Orgs) listByIDs(c *gin.Context) ([]ledger.OrganizationRecord, error) {
	res, err := h.execute(c, h.ids.GetAllOrganisationIDs())
	if err != nil {
		return nil, err
	}
	ev := ledger.FindEvent(res.Events, ledger.EventOrgIDs)
	if ev == nil {
		return nil, nil
	}
	rawIDs, _ := ev.Parsed["organisation_ids"].([]any)

	orgs := make([]ledger.OrganizationRecord, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, ok := raw.(string)
		if !ok {
			continue
		}
		res, err := h.execute(c, h.ids.GetOrganisationDetails(id))
		if err != nil {
			return nil, err
		}
		if dev := ledger.FindEvent(res.Events, ledger.EventOrgDetails); dev != nil {
			orgs = append(orgs, ledger.DecodeOrganisationEvent(dev.Parsed))
		}
	}
	return orgs, nil
}

// Get answers /orgs/:id; the literal id "me" resolves the caller's own
// organisation.
func (h Orgs) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "me" {
		h.Me(c)
		return
	}
	res, err := h.execute(c, h.ids.GetOrganisationDetails(id))
	if err != nil {
		abortLedgerErr(c, err)
		return
	}
	ev := ledger.FindEvent(res.Events, ledger.EventOrgDetails)
	if ev == nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "organisation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"organisation": ledger.DecodeOrganisationEvent(ev.Parsed)})
}

// Me fetches the caller's organisation via the event-emitting read call. A
// confirmed call without the details event means the address has no
// organisation yet.
func (h Orgs) Me(c *gin.Context) {
	res, err := h.execute(c, h.ids.GetMyOrganisationDetails())
	if err != nil {
		abortLedgerErr(c, err)
		return
	}
	ev := ledger.FindEvent(res.Events, ledger.EventOrgDetails)
	if ev == nil {
		c.JSON(http.StatusOK, gin.H{"registered": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"registered":   true,
		"organisation": ledger.DecodeOrganisationEvent(ev.Parsed),
	})
}

func (h Orgs) Register(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1,max=255"`
		Description string `json:"description" binding:"required,min=1,max=10000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	req.Name = h.sanitizer.Sanitize(req.Name)
	req.Description = h.sanitizer.Sanitize(req.Description)

	res, err := h.execute(c, h.ids.RegisterOrganisation(req.Name, req.Description))
	if err != nil {
		abortLedgerErr(c, err)
		return
	}

	out := gin.H{"digest": res.Digest, "registered": true}
	if ev := ledger.FindEvent(res.Events, ledger.EventOrgCreated); ev != nil {
		if id, ok := ev.Parsed["organisation_id"].(string); ok {
			out["org_id"] = id
		}
	}
	c.JSON(http.StatusCreated, out)
}

func (h Orgs) Lend(c *gin.Context) {
	var req struct {
		OrgID        string `json:"org_id" binding:"required"`
		Amount       int64  `json:"amount" binding:"required,gt=0"`
		DurationDays int64  `json:"duration_days" binding:"required,gt=0,lte=3650"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	call := h.ids.CreateLendRequest(req.OrgID, req.Amount,
		time.Now().Unix(), req.DurationDays*86_400)
	res, err := h.execute(c, call)
	if err != nil {
		abortLedgerErr(c, err)
		return
	}

	out := gin.H{"digest": res.Digest}
	if ev := ledger.FindEvent(res.Events, ledger.EventLendRequestMade); ev != nil {
		out["lend_request"] = ev.Parsed
	}
	c.JSON(http.StatusCreated, out)
}

// execute runs the dispatch-then-await sequence shared by every org call.
func (h Orgs) execute(c *gin.Context, call ledger.Call) (*ledger.TxResult, error) {
	digest, err := h.lc.Execute(c.Request.Context(), call)
	if err != nil {
		return nil, err
	}
	res, err := h.lc.WaitForTransaction(c.Request.Context(), digest)
	if err != nil {
		return nil, err
	}
	if res.Status == ledger.TxStatusFailure {
		return nil, ledger.ClassifyFailure(res.Error)
	}
	return res, nil
}
