package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const TableName = "buildings"

type Building struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	Name                string       `gorm:"not null" json:"name"`
	Address             string       `gorm:"not null" json:"address"`
	Floors              int          `gorm:"not null;default:1" json:"floors"`
	IsClimateControlled bool         `gorm:"not null;default:false" json:"is_climate_controlled"`
	CreatedAt           time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"not null" json:"updated_at"`
}

func (Building) TableName() string { return TableName }

// Occupancy is a building with its unit counts.
type Occupancy struct {
	Building
	TotalUnits     int `json:"total_units"`
	AvailableUnits int `json:"available_units"`
	OccupancyRate  int `json:"occupancy_rate"`
}
