package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	buildingdomain "github.com/smallbiznis/storagedesk/internal/building/domain"
)

type createBuildingRequest struct {
	Name                string `json:"name"`
	Address             string `json:"address"`
	Floors              int    `json:"floors"`
	IsClimateControlled bool   `json:"is_climate_controlled"`
}

type updateBuildingRequest struct {
	Name                *string `json:"name"`
	Address             *string `json:"address"`
	Floors              *int    `json:"floors"`
	IsClimateControlled *bool   `json:"is_climate_controlled"`
}

func (s *Server) CreateBuilding(c *gin.Context) {
	var req createBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.buildingSvc.Create(c.Request.Context(), buildingdomain.CreateBuildingRequest{
		Name:                strings.TrimSpace(req.Name),
		Address:             strings.TrimSpace(req.Address),
		Floors:              req.Floors,
		IsClimateControlled: req.IsClimateControlled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListBuildings(c *gin.Context) {
	resp, err := s.buildingSvc.List(c.Request.Context(), buildingdomain.ListBuildingRequest{
		Search: strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBuildingByID(c *gin.Context) {
	resp, err := s.buildingSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateBuilding(c *gin.Context) {
	var req updateBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.buildingSvc.Update(c.Request.Context(), buildingdomain.UpdateBuildingRequest{
		ID:                  strings.TrimSpace(c.Param("id")),
		Name:                trimOptional(req.Name),
		Address:             trimOptional(req.Address),
		Floors:              req.Floors,
		IsClimateControlled: req.IsClimateControlled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteBuilding(c *gin.Context) {
	if err := s.buildingSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isBuildingValidationError(err error) bool {
	switch err {
	case buildingdomain.ErrInvalidName,
		buildingdomain.ErrInvalidAddress,
		buildingdomain.ErrInvalidFloors,
		buildingdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
