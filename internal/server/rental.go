package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storagedesk/internal/providers/pdf"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"go.uber.org/zap"
)

type createRentalRequest struct {
	UnitID      string           `json:"unit_id"`
	CustomerID  string           `json:"customer_id"`
	StartDate   string           `json:"start_date"`
	EndDate     *string          `json:"end_date"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
}

type completeRentalRequest struct {
	UnitID  string  `json:"unit_id"`
	EndDate *string `json:"end_date"`
}

type quoteRentalRequest struct {
	UnitID    string `json:"unit_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (s *Server) CreateRental(c *gin.Context) {
	var req createRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_start_date", "invalid start_date"))
		return
	}
	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		AbortWithError(c, newValidationError("end_date", "invalid_end_date", "invalid end_date"))
		return
	}

	resp, err := s.rentalSvc.Create(c.Request.Context(), rentaldomain.CreateRentalRequest{
		UnitID:      strings.TrimSpace(req.UnitID),
		CustomerID:  strings.TrimSpace(req.CustomerID),
		StartDate:   startDate,
		EndDate:     endDate,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListRentals(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Search     string `form:"search"`
		Status     string `form:"status"`
		BuildingID string `form:"building_id"`
		CustomerID string `form:"customer_id"`
		UnitID     string `form:"unit_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.rentalSvc.List(c.Request.Context(), rentaldomain.ListRentalRequest{
		PageToken:  query.PageToken,
		PageSize:   query.PageSize,
		Search:     strings.TrimSpace(query.Search),
		Status:     strings.TrimSpace(query.Status),
		BuildingID: strings.TrimSpace(query.BuildingID),
		CustomerID: strings.TrimSpace(query.CustomerID),
		UnitID:     strings.TrimSpace(query.UnitID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRentalByID(c *gin.Context) {
	resp, err := s.rentalSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CompleteRental(c *gin.Context) {
	// Ending a rental takes no input in the common case, so an empty body
	// means today on the rental's own unit.
	var req completeRentalRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		AbortWithError(c, newValidationError("end_date", "invalid_end_date", "invalid end_date"))
		return
	}

	resp, err := s.rentalSvc.Complete(c.Request.Context(), rentaldomain.CompleteRentalRequest{
		ID:      strings.TrimSpace(c.Param("id")),
		UnitID:  strings.TrimSpace(req.UnitID),
		EndDate: endDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveRental(c *gin.Context) {
	if err := s.rentalSvc.Remove(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ReconcileRentals(c *gin.Context) {
	completed, err := s.rentalSvc.Reconcile(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"completed": completed}})
}

func (s *Server) QuoteRental(c *gin.Context) {
	var req quoteRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_start_date", "invalid start_date"))
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		AbortWithError(c, newValidationError("end_date", "invalid_end_date", "invalid end_date"))
		return
	}

	resp, err := s.rentalSvc.Quote(c.Request.Context(), rentaldomain.QuoteRequest{
		UnitID:    strings.TrimSpace(req.UnitID),
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenderRentalStatement(c *gin.Context) {
	ctx := c.Request.Context()

	statement, err := s.rentalSvc.Statement(ctx, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	reader, err := s.pdfProvider.GenerateStatement(ctx, pdf.NewStatementData(s.cfg.AppName, statement))
	if err != nil {
		s.log.Error("render rental statement", zap.String("rental_id", statement.Rental.ID.String()), zap.Error(err))
		AbortWithError(c, ErrInternal)
		return
	}
	if reader == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("statement-%s.pdf", statement.Rental.ID.String())
	if name := slug.Make(statement.Rental.CustomerName); name != "" {
		filename = fmt.Sprintf("statement-%s-%s.pdf", name, statement.Rental.ID.String())
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", body)
}

func isRentalValidationError(err error) bool {
	switch err {
	case rentaldomain.ErrInvalidID,
		rentaldomain.ErrInvalidUnit,
		rentaldomain.ErrInvalidCustomer,
		rentaldomain.ErrInvalidStatus,
		rentaldomain.ErrInvalidFilter:
		return true
	default:
		return false
	}
}
