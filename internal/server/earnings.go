package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	earningdomain "github.com/tablenest/tablenest/internal/earning/domain"
	"github.com/tablenest/tablenest/pkg/db/pagination"
)

func (s *Server) GetBookingEarnings(c *gin.Context) {
	bookingID := strings.TrimSpace(c.Param("id"))
	if bookingID == "" {
		AbortWithError(c, newValidationError("id", "invalid_booking_id", "invalid booking id"))
		return
	}

	resp, err := s.earningSvc.GetBookingEarnings(c.Request.Context(), bookingID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListEarnings(c *gin.Context) {
	var query struct {
		BookingID   string `form:"booking_id"`
		RecipientID string `form:"recipient_id"`
		Role        string `form:"role_type"`
		pagination.Pagination
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	role := earningdomain.RoleType(strings.TrimSpace(query.Role))
	if role != "" && !role.Valid() {
		AbortWithError(c, newValidationError("role_type", "invalid_role_type", "unknown role type"))
		return
	}

	resp, err := s.earningSvc.List(c.Request.Context(), earningdomain.ListRequest{
		BookingID:   strings.TrimSpace(query.BookingID),
		RecipientID: strings.TrimSpace(query.RecipientID),
		Role:        role,
		Page:        query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
