package company

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrCompanyNotFound = errors.New("company not found")

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Company, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, c *Company) error
	List(ctx context.Context) ([]Company, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Company, error) {
	var c Company
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Company{}).Where("id = ? AND is_active = ?", id, true).Count(&count).Error
	return count > 0, err
}

func (r *repository) Create(ctx context.Context, c *Company) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) List(ctx context.Context) ([]Company, error) {
	var out []Company
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&out).Error
	return out, err
}
