// internal/storage/models/opportunity.go
package models

import (
	"time"
)

// OpportunityRecord – строка истории обнаруженных арбитражных возможностей.
type OpportunityRecord struct {
	BaseModel
	Pair          string    `gorm:"index;not null;type:varchar(100)"`
	Direction     string    `gorm:"index;not null;type:varchar(50)"`
	Capital       string    `gorm:"not null;type:varchar(50)"`
	NetProfitRaw  int64     `gorm:"not null"`
	ProfitPercent float64   `gorm:"not null;type:decimal(12,4)"`
	BuyVenue      string    `gorm:"not null;type:varchar(50)"`
	SellVenue     string    `gorm:"not null;type:varchar(50)"`
	JupiterLink   string    `gorm:"type:text"`
	MeteoraLink   string    `gorm:"type:text"`
	DiscoveredAt  time.Time `gorm:"index;not null"`
}
