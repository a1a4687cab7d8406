package schedule

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles persistence for slots, configs and exceptions. Reserve
// and Release are the only writers of reserved_count and are safe under
// concurrent callers.
type Repository interface {
	// Configs
	ListConfigs(ctx context.Context, companyID int64) ([]ScheduleConfig, error)
	ActiveConfigs(ctx context.Context, companyID int64) ([]ScheduleConfig, error)
	SaveConfig(ctx context.Context, cfg *ScheduleConfig) error

	// Exceptions
	ActiveExceptionForDate(ctx context.Context, companyID int64, date time.Time) (*ScheduleException, error)
	CreateException(ctx context.Context, exc *ScheduleException) error
	GetExceptionByID(ctx context.Context, id int64) (*ScheduleException, error)
	DeleteException(ctx context.Context, id int64) error

	// Slots
	SlotsForDate(ctx context.Context, companyID int64, date time.Time) ([]Slot, error)
	SlotsInRange(ctx context.Context, companyID int64, from, to time.Time) ([]Slot, error)
	GetSlotByID(ctx context.Context, id int64) (*Slot, error)
	FindSlotByTime(ctx context.Context, companyID int64, start, end time.Time) (*Slot, error)
	InsertMissingSlots(ctx context.Context, slots []Slot) (int, error)
	Reserve(ctx context.Context, slotID int64) error
	Release(ctx context.Context, slotID int64) error
	UpdateSlotWindow(ctx context.Context, id int64, start, end time.Time) error
	UpdateSlotCapacity(ctx context.Context, id int64, capacity int) error
	DeleteSlot(ctx context.Context, id int64) error
	DeleteIfEmptyCreatedSince(ctx context.Context, slotID int64, since time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListConfigs(ctx context.Context, companyID int64) ([]ScheduleConfig, error) {
	var out []ScheduleConfig
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("day_of_week ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) ActiveConfigs(ctx context.Context, companyID int64) ([]ScheduleConfig, error) {
	var out []ScheduleConfig
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Order("day_of_week ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) SaveConfig(ctx context.Context, cfg *ScheduleConfig) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}

func (r *repository) ActiveExceptionForDate(ctx context.Context, companyID int64, date time.Time) (*ScheduleException, error) {
	var exc ScheduleException
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND date = ? AND is_active = ?", companyID, DateOnly(date), true).
		First(&exc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &exc, nil
}

func (r *repository) CreateException(ctx context.Context, exc *ScheduleException) error {
	exc.Date = DateOnly(exc.Date)
	return r.db.WithContext(ctx).Create(exc).Error
}

func (r *repository) GetExceptionByID(ctx context.Context, id int64) (*ScheduleException, error) {
	var exc ScheduleException
	err := r.db.WithContext(ctx).First(&exc, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExceptionNotFound
		}
		return nil, err
	}
	return &exc, nil
}

func (r *repository) DeleteException(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&ScheduleException{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrExceptionNotFound
	}
	return nil
}

func (r *repository) SlotsForDate(ctx context.Context, companyID int64, date time.Time) ([]Slot, error) {
	var out []Slot
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND date = ?", companyID, DateOnly(date)).
		Order("start_time ASC, is_intermediate ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) SlotsInRange(ctx context.Context, companyID int64, from, to time.Time) ([]Slot, error) {
	var out []Slot
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND date >= ? AND date <= ?", companyID, DateOnly(from), DateOnly(to)).
		Order("date ASC, start_time ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) GetSlotByID(ctx context.Context, id int64) (*Slot, error) {
	var s Slot
	err := r.db.WithContext(ctx).First(&s, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindSlotByTime(ctx context.Context, companyID int64, start, end time.Time) (*Slot, error) {
	var s Slot
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND start_time = ? AND end_time = ?", companyID, start, end).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

// InsertMissingSlots inserts only slots that don't exist yet, keyed by the
// (company, date, start, end, intermediate) unique index. Existing slots and
// their reserved counts are never touched, which keeps generation idempotent.
func (r *repository) InsertMissingSlots(ctx context.Context, slots []Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&slots)
	return int(res.RowsAffected), res.Error
}

// Reserve commits the increment only while reserved_count < capacity still
// holds, so two concurrent callers can never oversell the slot.
func (r *repository) Reserve(ctx context.Context, slotID int64) error {
	res := r.db.WithContext(ctx).
		Model(&Slot{}).
		Where("id = ? AND reserved_count < capacity", slotID).
		Update("reserved_count", gorm.Expr("reserved_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&Slot{}).Where("id = ?", slotID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrSlotNotFound
		}
		return ErrSlotFull
	}
	return nil
}

func (r *repository) Release(ctx context.Context, slotID int64) error {
	res := r.db.WithContext(ctx).
		Model(&Slot{}).
		Where("id = ? AND reserved_count > 0", slotID).
		Update("reserved_count", gorm.Expr("reserved_count - 1"))
	return res.Error
}

func (r *repository) UpdateSlotWindow(ctx context.Context, id int64, start, end time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Slot{}).
		Where("id = ?", id).
		Updates(map[string]any{"start_time": start, "end_time": end}).Error
}

func (r *repository) UpdateSlotCapacity(ctx context.Context, id int64, capacity int) error {
	return r.db.WithContext(ctx).
		Model(&Slot{}).
		Where("id = ?", id).
		Update("capacity", capacity).Error
}

func (r *repository) DeleteSlot(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&Slot{}, id).Error
}

// DeleteIfEmptyCreatedSince removes a slot only when it carries no
// reservations and was created on/after the given date. Used by recurring
// teardown, which must never delete slots predating the rule.
func (r *repository) DeleteIfEmptyCreatedSince(ctx context.Context, slotID int64, since time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND reserved_count = 0 AND created_at >= ?", slotID, since).
		Delete(&Slot{})
	return res.RowsAffected > 0, res.Error
}
