package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storagedesk/internal/config"
)

type lateFeeSettings struct {
	Amount    decimal.Decimal `json:"amount"`
	GraceDays int             `json:"grace_days"`
}

type settingsResponse struct {
	LateFee         lateFeeSettings `json:"late_fee"`
	UnitSizes       []string        `json:"unit_sizes"`
	DefaultPageSize int             `json:"default_page_size"`
	AtomicWrites    bool            `json:"atomic_writes"`
}

func (s *Server) GetDashboard(c *gin.Context) {
	resp, err := s.reportSvc.Dashboard(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSettings(c *gin.Context) {
	cfg := config.DefaultLedgerConfig()
	if s.ledgerCfg != nil {
		cfg = s.ledgerCfg.Get()
	}

	c.JSON(http.StatusOK, gin.H{"data": settingsResponse{
		LateFee: lateFeeSettings{
			Amount:    cfg.LateFee.Amount,
			GraceDays: cfg.LateFee.GraceDays,
		},
		UnitSizes:       cfg.UnitSizes,
		DefaultPageSize: cfg.DefaultPageSize,
		AtomicWrites:    cfg.AtomicWrites,
	}})
}
