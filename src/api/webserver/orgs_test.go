package webserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/verdant-dao/carbon-claims/src/ledger"
)

func orgsRig(fc *fakeLedger, actor string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewOrgs(nil, fc, rigIDs)

	r := gin.New()
	r.GET("/orgs", asAddr(actor), h.List)
	r.GET("/orgs/:id", asAddr(actor), h.Get)
	return r
}

func rigOrgBag(id, name string) map[string]any {
	return map[string]any{
		"organisation_id": id,
		"owner":           "0xalice",
		"name":            name,
		"carbon_credits":  float64(250),
	}
}

func TestOrgsListFromObject(t *testing.T) {
	fc := &fakeLedger{objects: map[string]ledger.Document{
		"0xorgs": {"organisations": []any{rigOrgBag("0xorg1", "Verdant")}},
	}}
	r := orgsRig(fc, "0xvoter")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orgs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var out struct {
		Organisations []ledger.OrganizationRecord `json:"organisations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Organisations) != 1 || out.Organisations[0].Name != "Verdant" {
		t.Fatalf("body = %s", w.Body)
	}
}

func TestOrgsListFallsBackToIDWalk(t *testing.T) {
	// No object scripted: the read fails and the event path takes over.
	fc := &fakeLedger{results: map[string]*ledger.TxResult{
		"get_all_organisation_ids": {
			Status: ledger.TxStatusSuccess,
			Events: []ledger.Event{{
				Type:   "0xpkg::carbon_marketplace::OrganisationIDsEvent",
				Parsed: map[string]any{"organisation_ids": []any{"0xorg1"}},
			}},
		},
		"get_organisation_details": {
			Status: ledger.TxStatusSuccess,
			Events: []ledger.Event{{
				Type:   "0xpkg::carbon_marketplace::OrganisationDetailsEvent",
				Parsed: rigOrgBag("0xorg1", "Evergreen"),
			}},
		},
	}}
	r := orgsRig(fc, "0xvoter")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orgs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var out struct {
		Organisations []ledger.OrganizationRecord `json:"organisations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Organisations) != 1 || out.Organisations[0].Name != "Evergreen" {
		t.Fatalf("body = %s", w.Body)
	}
}

func TestOrgsGetByID(t *testing.T) {
	fc := &fakeLedger{results: map[string]*ledger.TxResult{
		"get_organisation_details": {
			Status: ledger.TxStatusSuccess,
			Events: []ledger.Event{{
				Type:   "0xpkg::carbon_marketplace::OrganisationDetailsEvent",
				Parsed: rigOrgBag("0xorg1", "Verdant"),
			}},
		},
	}}
	r := orgsRig(fc, "0xvoter")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orgs/0xorg1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
}

func TestOrgsGetMeUnregistered(t *testing.T) {
	// get_my_organisation_details confirms with no details event.
	fc := &fakeLedger{results: map[string]*ledger.TxResult{
		"get_my_organisation_details": {Status: ledger.TxStatusSuccess},
	}}
	r := orgsRig(fc, "0xvoter")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orgs/me", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var out struct {
		Registered bool `json:"registered"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || out.Registered {
		t.Fatalf("body = %s", w.Body)
	}
}
