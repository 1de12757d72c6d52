package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Signal outcome values attached by the pending-signal evaluator.
const (
	OutcomeWin     = "win"
	OutcomeLoss    = "loss"
	OutcomeExpired = "expired"
)

// Signal is the canonical signal record. Uniqueness of IdempotencyKey is the
// pipeline's core correctness property: concurrent writers racing on the same
// key rely on this constraint, not on any application-level lock.
type Signal struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// Timestamp is candle-grid aligned, not the raw strategy event time.
	Timestamp time.Time `gorm:"type:timestamptz;not null;index" json:"timestamp"`
	Token     string    `gorm:"type:varchar(20);not null;index" json:"token"`
	Timeframe string    `gorm:"type:varchar(10);not null" json:"timeframe"`
	Direction string    `gorm:"type:varchar(10);not null" json:"direction"`

	Entry      decimal.Decimal `gorm:"type:numeric(30,10)" json:"entry"`
	TakeProfit decimal.Decimal `gorm:"type:numeric(30,10)" json:"take_profit"`
	StopLoss   decimal.Decimal `gorm:"type:numeric(30,10)" json:"stop_loss"`
	Confidence float64         `gorm:"not null;default:0" json:"confidence"`
	Rationale  string          `gorm:"type:text" json:"rationale"`

	Source     string `gorm:"type:varchar(100);index" json:"source"`
	Mode       string `gorm:"type:varchar(20);not null;index" json:"mode"`
	StrategyID string `gorm:"type:varchar(100);index" json:"strategy_id"`

	IdempotencyKey string  `gorm:"type:varchar(300);uniqueIndex;not null" json:"idempotency_key"`
	UserID         *uint64 `gorm:"index" json:"user_id,omitempty"`

	// Saved distinguishes scheduler-confirmed history from transient
	// analyst-tool output.
	Saved bool `gorm:"default:false;index" json:"saved"`

	Outcome      *string          `gorm:"type:varchar(10);index" json:"outcome,omitempty"`
	OutcomePrice *decimal.Decimal `gorm:"type:numeric(30,10)" json:"outcome_price,omitempty"`
	EvaluatedAt  *time.Time       `gorm:"type:timestamptz" json:"evaluated_at,omitempty"`

	Extra datatypes.JSON `gorm:"type:jsonb" json:"extra,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
}

func (Signal) TableName() string {
	return "signals"
}
