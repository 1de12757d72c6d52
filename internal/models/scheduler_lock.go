package models

import "time"

// SchedulerLock is the storage-backed mutual-exclusion record. A process may
// act as scheduler only while the record holds its owner id with an expiry in
// the future; any process may reclaim the lock once the expiry passes.
type SchedulerLock struct {
	LockName  string    `gorm:"primaryKey;type:varchar(100)"`
	OwnerID   string    `gorm:"type:varchar(64);not null"`
	ExpiresAt time.Time `gorm:"type:timestamptz;not null"`
}

func (SchedulerLock) TableName() string {
	return "scheduler_locks"
}
