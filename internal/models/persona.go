package models

import (
	"time"

	"gorm.io/datatypes"
)

// Persona is a configured strategy instance: strategy logic plus token scope,
// timeframe and owner. The scheduler only reads these; the web layer mutates
// them.
type Persona struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	PersonaID string `gorm:"type:varchar(100);uniqueIndex;not null" json:"persona_id"`
	Name      string `gorm:"type:varchar(100);not null" json:"name"`

	StrategyID string `gorm:"type:varchar(100);not null;index" json:"strategy_id"`

	// Tokens holds either an explicit symbol list or a scanner marker
	// ("ALL", "SCANNER", "*") meaning the full supported catalog.
	Tokens     datatypes.JSON `gorm:"type:jsonb" json:"tokens"`
	Timeframes datatypes.JSON `gorm:"type:jsonb" json:"timeframes"`

	Enabled bool    `gorm:"default:false;index" json:"enabled"`
	UserID  *uint64 `gorm:"index" json:"user_id,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Persona) TableName() string {
	return "personas"
}
