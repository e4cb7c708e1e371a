package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/storagedesk/internal/payment/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
)

type createPaymentRequest struct {
	RentalID string           `json:"rental_id"`
	Amount   *decimal.Decimal `json:"amount"`
	Date     *string          `json:"date"`
	Method   string           `json:"method"`
	IsLate   *bool            `json:"is_late"`
}

func (s *Server) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	date, err := parseOptionalDate(req.Date)
	if err != nil {
		AbortWithError(c, newValidationError("date", "invalid_date", "invalid date"))
		return
	}

	resp, err := s.paymentSvc.Create(c.Request.Context(), paymentdomain.CreatePaymentRequest{
		RentalID: strings.TrimSpace(req.RentalID),
		Amount:   req.Amount,
		Date:     date,
		Method:   strings.TrimSpace(req.Method),
		IsLate:   req.IsLate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPayments(c *gin.Context) {
	var query struct {
		pagination.Pagination
		RentalID string `form:"rental_id"`
		IsLate   string `form:"is_late"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	isLate, err := parseOptionalBool(query.IsLate)
	if err != nil {
		AbortWithError(c, newValidationError("is_late", "invalid_is_late", "invalid is_late"))
		return
	}

	resp, err := s.paymentSvc.List(c.Request.Context(), paymentdomain.ListPaymentRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		RentalID:  strings.TrimSpace(query.RentalID),
		IsLate:    isLate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePayment(c *gin.Context) {
	if err := s.paymentSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isPaymentValidationError(err error) bool {
	switch err {
	case paymentdomain.ErrInvalidID,
		paymentdomain.ErrInvalidRental,
		paymentdomain.ErrInvalidAmount,
		paymentdomain.ErrInvalidMethod:
		return true
	default:
		return false
	}
}
