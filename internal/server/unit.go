package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	unitdomain "github.com/smallbiznis/storagedesk/internal/unit/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
)

type createUnitRequest struct {
	BuildingID          string          `json:"building_id"`
	Number              string          `json:"number"`
	Size                string          `json:"size"`
	PricePerMonth       decimal.Decimal `json:"price_per_month"`
	IsClimateControlled bool            `json:"is_climate_controlled"`
	Status              string          `json:"status"`
}

type updateUnitRequest struct {
	Number              *string          `json:"number"`
	Size                *string          `json:"size"`
	PricePerMonth       *decimal.Decimal `json:"price_per_month"`
	IsClimateControlled *bool            `json:"is_climate_controlled"`
}

type changeUnitStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) CreateUnit(c *gin.Context) {
	var req createUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.unitSvc.Create(c.Request.Context(), unitdomain.CreateUnitRequest{
		BuildingID:          strings.TrimSpace(req.BuildingID),
		Number:              strings.TrimSpace(req.Number),
		Size:                strings.TrimSpace(req.Size),
		PricePerMonth:       req.PricePerMonth,
		IsClimateControlled: req.IsClimateControlled,
		Status:              strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListUnits(c *gin.Context) {
	var query struct {
		pagination.Pagination
		BuildingID string `form:"building_id"`
		Status     string `form:"status"`
		Size       string `form:"size"`
		Search     string `form:"search"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.unitSvc.List(c.Request.Context(), unitdomain.ListUnitRequest{
		PageToken:  query.PageToken,
		PageSize:   query.PageSize,
		BuildingID: strings.TrimSpace(query.BuildingID),
		Status:     strings.TrimSpace(query.Status),
		Size:       strings.TrimSpace(query.Size),
		Search:     strings.TrimSpace(query.Search),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetUnitByID(c *gin.Context) {
	resp, err := s.unitSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateUnit(c *gin.Context) {
	var req updateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.unitSvc.Update(c.Request.Context(), unitdomain.UpdateUnitRequest{
		ID:                  strings.TrimSpace(c.Param("id")),
		Number:              trimOptional(req.Number),
		Size:                trimOptional(req.Size),
		PricePerMonth:       req.PricePerMonth,
		IsClimateControlled: req.IsClimateControlled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ChangeUnitStatus(c *gin.Context) {
	var req changeUnitStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.unitSvc.ChangeStatus(c.Request.Context(), unitdomain.ChangeStatusRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Status: strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteUnit(c *gin.Context) {
	if err := s.unitSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isUnitValidationError(err error) bool {
	switch err {
	case unitdomain.ErrInvalidID,
		unitdomain.ErrInvalidBuilding,
		unitdomain.ErrInvalidNumber,
		unitdomain.ErrInvalidSize,
		unitdomain.ErrInvalidPrice,
		unitdomain.ErrInvalidStatus:
		return true
	default:
		return false
	}
}
