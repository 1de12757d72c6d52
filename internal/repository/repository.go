package repository

import (
	"context"
	"time"

	"tradercopilot/internal/models"
)

type ListSignalsParams struct {
	Limit      int
	Offset     int
	Token      *string
	Direction  *string
	Mode       *string
	StrategyID *string
	Outcome    *string
	UserID     *uint64
	Since      *time.Time
	Until      *time.Time
	OrderBy    string
	Asc        *bool
}

type ListPendingSignalsParams struct {
	// Signals younger than MinAge are skipped so the first candles after
	// the entry have time to print. Over-age signals are still listed; the
	// evaluator closes them as expired.
	MinAge time.Duration
	Limit  int
}

// PersonaTarget is a persona joined with its owner's plan and delivery
// address. Ownerless personas have an empty plan and no chat id.
type PersonaTarget struct {
	models.Persona
	Plan           string
	TelegramChatID *int64
}

// Repository is the storage surface shared by the scheduler, the evaluator
// and the HTTP handlers.
type Repository interface {
	// Signals.
	InsertSignal(ctx context.Context, item *models.Signal) error
	ListSignals(ctx context.Context, params ListSignalsParams) ([]models.Signal, error)
	CountSignals(ctx context.Context, params ListSignalsParams) (int64, error)
	ListPendingSignals(ctx context.Context, params ListPendingSignalsParams) ([]models.Signal, error)
	UpdateSignalOutcome(ctx context.Context, id uint64, outcome string, outcomePrice *float64, evaluatedAt time.Time) error
	DeleteSignalsBefore(ctx context.Context, before time.Time) (int64, error)

	// Personas.
	ListEnabledPersonas(ctx context.Context) ([]PersonaTarget, error)
	ListPersonas(ctx context.Context) ([]models.Persona, error)
	GetPersonaByID(ctx context.Context, personaID string) (*models.Persona, error)
	CreatePersona(ctx context.Context, item *models.Persona) error
	SetPersonaEnabled(ctx context.Context, personaID string, enabled bool) error
	DeletePersona(ctx context.Context, personaID string) error

	// Users.
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)

	// Distributed scheduler lock.
	GetSchedulerLock(ctx context.Context, name string) (*models.SchedulerLock, error)
	CreateSchedulerLock(ctx context.Context, item *models.SchedulerLock) error
	TakeoverSchedulerLock(ctx context.Context, name string, ownerID string, now time.Time, expiresAt time.Time) (bool, error)
	ReleaseSchedulerLock(ctx context.Context, name string, ownerID string) error
}
