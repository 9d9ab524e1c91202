package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type createDistributionRequest struct {
	// Regime optionally pins the expected regime; the call fails instead of
	// silently splitting under the other one.
	Regime string `json:"regime,omitempty"`
}

func (s *Server) CreateDistribution(c *gin.Context) {
	bookingID := strings.TrimSpace(c.Param("id"))
	if bookingID == "" {
		AbortWithError(c, newValidationError("id", "invalid_booking_id", "invalid booking id"))
		return
	}

	var req createDistributionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	ctx := c.Request.Context()
	regime := strings.ToLower(strings.TrimSpace(req.Regime))

	resp, err := func() (any, error) {
		switch regime {
		case "":
			return s.payoutSvc.Distribute(ctx, bookingID)
		case "prime":
			return s.payoutSvc.DistributePrime(ctx, bookingID)
		case "non_prime":
			return s.payoutSvc.DistributeNonPrime(ctx, bookingID)
		default:
			return nil, newValidationError("regime", "invalid_regime", "regime must be prime or non_prime")
		}
	}()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
