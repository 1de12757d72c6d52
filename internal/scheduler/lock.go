package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tradercopilot/internal/models"
)

const DefaultLockName = "strategy_scheduler"

// LockStore is the slice of the repository the lock manager needs.
type LockStore interface {
	GetSchedulerLock(ctx context.Context, name string) (*models.SchedulerLock, error)
	CreateSchedulerLock(ctx context.Context, item *models.SchedulerLock) error
	TakeoverSchedulerLock(ctx context.Context, name string, ownerID string, now time.Time, expiresAt time.Time) (bool, error)
	ReleaseSchedulerLock(ctx context.Context, name string, ownerID string) error
}

// LockManager gives at most one process at a time the right to run ticks.
// Ownership lives in the scheduler_locks row; the manager only remembers its
// own randomly generated owner id, so a crashed holder is recovered by any
// peer once the row's expiry passes.
type LockManager struct {
	Store  LockStore
	Logger *zap.Logger

	Name    string
	OwnerID string
	TTL     time.Duration
}

func NewLockManager(store LockStore, logger *zap.Logger, ttl time.Duration) *LockManager {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LockManager{
		Store:   store,
		Logger:  logger,
		Name:    DefaultLockName,
		OwnerID: uuid.NewString(),
		TTL:     ttl,
	}
}

// Acquire tries to obtain or renew the lock. It first attempts the
// conditional takeover (which covers both renewal and stealing an expired
// lock) and falls back to inserting a fresh row when none exists. Losing the
// insert race to a peer is a normal outcome, not an error.
func (m *LockManager) Acquire(ctx context.Context) (bool, error) {
	if m == nil || m.Store == nil {
		return false, nil
	}
	now := time.Now().UTC()
	expires := now.Add(m.TTL)

	ok, err := m.Store.TakeoverSchedulerLock(ctx, m.Name, m.OwnerID, now, expires)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	existing, err := m.Store.GetSchedulerLock(ctx, m.Name)
	if err != nil {
		return false, err
	}
	if existing != nil {
		// Held by someone else and not yet expired.
		return false, nil
	}

	err = m.Store.CreateSchedulerLock(ctx, &models.SchedulerLock{
		LockName:  m.Name,
		OwnerID:   m.OwnerID,
		ExpiresAt: expires,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	if m.Logger != nil {
		m.Logger.Info("scheduler lock acquired",
			zap.String("lock", m.Name),
			zap.String("owner", m.OwnerID),
		)
	}
	return true, nil
}

// Release drops the lock if this process still owns it. Called on shutdown
// so a peer can take over without waiting out the TTL.
func (m *LockManager) Release(ctx context.Context) {
	if m == nil || m.Store == nil {
		return
	}
	if err := m.Store.ReleaseSchedulerLock(ctx, m.Name, m.OwnerID); err != nil && m.Logger != nil {
		m.Logger.Warn("scheduler lock release failed", zap.Error(err))
	}
}
