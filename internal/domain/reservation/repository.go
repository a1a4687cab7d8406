package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create inserts the reservation; the (user_id, slot_id) unique index turns
// a concurrent double-book into ErrDuplicate instead of a second row.
func (r *repository) Create(ctx context.Context, res *Reservation) error {
	err := r.db.WithContext(ctx).Create(res).Error
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Reservation, error) {
	var res Reservation
	err := r.db.WithContext(ctx).First(&res, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&Reservation{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func (r *repository) ExistsForSlot(ctx context.Context, userID, slotID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Reservation{}).
		Where("user_id = ? AND slot_id = ?", userID, slotID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListByUserCompanySince(ctx context.Context, userID, companyID int64, since time.Time) ([]Reservation, error) {
	var out []Reservation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ? AND created_at >= ?", userID, companyID, since).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Reservation, error) {
	var out []Reservation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *repository) CreateRule(ctx context.Context, rule *RecurringReservation) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) GetRuleByID(ctx context.Context, id int64) (*RecurringReservation, error) {
	var rule RecurringReservation
	err := r.db.WithContext(ctx).First(&rule, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}

func (r *repository) UpdateRuleStatus(ctx context.Context, id int64, status RuleStatus) error {
	res := r.db.WithContext(ctx).Model(&RecurringReservation{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (r *repository) SaveRuleProgress(ctx context.Context, id int64, occurrences int, lastGenerated *time.Time) error {
	return r.db.WithContext(ctx).Model(&RecurringReservation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_occurrences": occurrences,
			"last_generated_date": lastGenerated,
			"updated_at":          time.Now().UTC(),
		}).Error
}

func (r *repository) ListActiveRules(ctx context.Context, userID, companyID int64) ([]RecurringReservation, error) {
	var out []RecurringReservation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ? AND status = ?", userID, companyID, RuleActive).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// isUniqueViolation recognizes duplicate-key failures from both drivers:
// pgconn code 23505 on PostgreSQL, translated gorm.ErrDuplicatedKey on
// SQLite.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
