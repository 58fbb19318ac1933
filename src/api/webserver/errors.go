package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/verdant-dao/carbon-claims/src/ledger"
)

// abortLedgerErr maps the ledger error taxonomy onto HTTP statuses. Guard
// refusals are the caller's fault, classified aborts are the ledger saying no
// to a well-formed request, and dispatch failures are upstream trouble.
func abortLedgerErr(c *gin.Context, err error) {
	var elig *ledger.EligibilityError
	var abort *ledger.AbortError
	var dispatch *ledger.DispatchError

	switch {
	case errors.As(err, &elig):
		c.JSON(http.StatusForbidden, gin.H{"err": elig.Error(), "claim_id": elig.ClaimID})
	case errors.Is(err, ledger.ErrVoteInFlight):
		c.JSON(http.StatusConflict, gin.H{"err": err.Error()})
	case errors.As(err, &abort):
		out := gin.H{"err": abort.Error(), "code": abort.Code}
		if abort.Reason == ledger.AbortUnclassified {
			out["raw"] = abort.Raw
		}
		c.JSON(http.StatusUnprocessableEntity, out)
	case errors.Is(err, ledger.ErrNoClaimsEvent), errors.As(err, &dispatch):
		c.JSON(http.StatusBadGateway, gin.H{"err": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
	}
}
