package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"tradercopilot/internal/models"
	"tradercopilot/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- signals ----------------------------------------------------------------

func (s *Store) InsertSignal(ctx context.Context, item *models.Signal) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListSignals(ctx context.Context, params repository.ListSignalsParams) ([]models.Signal, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applySignalFilters(s.db.WithContext(ctx).Model(&models.Signal{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "timestamp")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Signal
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSignals(ctx context.Context, params repository.ListSignalsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	query := applySignalFilters(s.db.WithContext(ctx).Model(&models.Signal{}), params)
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func applySignalFilters(query *gorm.DB, params repository.ListSignalsParams) *gorm.DB {
	if params.Token != nil && strings.TrimSpace(*params.Token) != "" {
		query = query.Where("token = ?", strings.ToUpper(strings.TrimSpace(*params.Token)))
	}
	if params.Direction != nil && strings.TrimSpace(*params.Direction) != "" {
		query = query.Where("direction = ?", strings.ToLower(strings.TrimSpace(*params.Direction)))
	}
	if params.Mode != nil && strings.TrimSpace(*params.Mode) != "" {
		query = query.Where("mode = ?", strings.TrimSpace(*params.Mode))
	}
	if params.StrategyID != nil && strings.TrimSpace(*params.StrategyID) != "" {
		query = query.Where("strategy_id = ?", strings.TrimSpace(*params.StrategyID))
	}
	if params.Outcome != nil {
		if strings.TrimSpace(*params.Outcome) == "" {
			query = query.Where("outcome IS NULL OR outcome = ''")
		} else {
			query = query.Where("outcome = ?", strings.TrimSpace(*params.Outcome))
		}
	}
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("timestamp >= ?", *params.Since)
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("timestamp < ?", *params.Until)
	}
	return query
}

func (s *Store) ListPendingSignals(ctx context.Context, params repository.ListPendingSignalsParams) ([]models.Signal, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	now := time.Now().UTC()
	query := s.db.WithContext(ctx).
		Model(&models.Signal{}).
		Where("outcome IS NULL OR outcome = ''")
	if params.MinAge > 0 {
		query = query.Where("created_at <= ?", now.Add(-params.MinAge))
	}
	limit := normalizeLimit(params.Limit, 200)
	var items []models.Signal
	if err := query.Order("created_at asc").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateSignalOutcome(ctx context.Context, id uint64, outcome string, outcomePrice *float64, evaluatedAt time.Time) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	updates := map[string]any{
		"outcome":      outcome,
		"evaluated_at": evaluatedAt,
	}
	if outcomePrice != nil {
		updates["outcome_price"] = *outcomePrice
	}
	return s.db.WithContext(ctx).
		Model(&models.Signal{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (s *Store) DeleteSignalsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil || before.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&models.Signal{})
	return res.RowsAffected, res.Error
}

// --- personas ---------------------------------------------------------------

func (s *Store) ListEnabledPersonas(ctx context.Context) ([]repository.PersonaTarget, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []repository.PersonaTarget
	err := s.db.WithContext(ctx).
		Table("personas").
		Select("personas.*, COALESCE(users.plan, '') AS plan, users.telegram_chat_id AS telegram_chat_id").
		Joins("LEFT JOIN users ON users.id = personas.user_id").
		Where("personas.enabled = ?", true).
		Order("personas.persona_id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListPersonas(ctx context.Context) ([]models.Persona, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Persona
	if err := s.db.WithContext(ctx).
		Model(&models.Persona{}).
		Order("persona_id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetPersonaByID(ctx context.Context, personaID string) (*models.Persona, error) {
	if s == nil || s.db == nil || strings.TrimSpace(personaID) == "" {
		return nil, nil
	}
	var item models.Persona
	err := s.db.WithContext(ctx).
		Where("persona_id = ?", strings.TrimSpace(personaID)).
		First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreatePersona(ctx context.Context, item *models.Persona) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) SetPersonaEnabled(ctx context.Context, personaID string, enabled bool) error {
	if s == nil || s.db == nil || strings.TrimSpace(personaID) == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Persona{}).
		Where("persona_id = ?", strings.TrimSpace(personaID)).
		Update("enabled", enabled).Error
}

func (s *Store) DeletePersona(ctx context.Context, personaID string) error {
	if s == nil || s.db == nil || strings.TrimSpace(personaID) == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("persona_id = ?", strings.TrimSpace(personaID)).
		Delete(&models.Persona{}).Error
}

// --- users ------------------------------------------------------------------

func (s *Store) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// --- scheduler lock ---------------------------------------------------------

func (s *Store) GetSchedulerLock(ctx context.Context, name string) (*models.SchedulerLock, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SchedulerLock
	err := s.db.WithContext(ctx).Where("lock_name = ?", name).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// CreateSchedulerLock races on the lock_name primary key. A duplicate-key
// error means another instance created the row first and the caller lost.
func (s *Store) CreateSchedulerLock(ctx context.Context, item *models.SchedulerLock) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

// TakeoverSchedulerLock renews a lock the caller already owns, or steals one
// whose expiry has passed. The single conditional UPDATE is the compare and
// swap; a zero row count means some other owner holds an unexpired lock.
func (s *Store) TakeoverSchedulerLock(ctx context.Context, name string, ownerID string, now time.Time, expiresAt time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.SchedulerLock{}).
		Where("lock_name = ?", name).
		Where("owner_id = ? OR expires_at < ?", ownerID, now).
		Updates(map[string]any{
			"owner_id":   ownerID,
			"expires_at": expiresAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ReleaseSchedulerLock(ctx context.Context, name string, ownerID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("lock_name = ?", name).
		Where("owner_id = ?", ownerID).
		Delete(&models.SchedulerLock{}).Error
}

// --- helpers ----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
