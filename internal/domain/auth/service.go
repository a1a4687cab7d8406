package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"classbook/internal/domain/company"
	jwtsvc "classbook/internal/pkg/jwt"
)

type Service struct {
	db        *gorm.DB
	companies company.Repository
	jwt       *jwtsvc.Service
}

func NewService(db *gorm.DB, companies company.Repository, jwt *jwtsvc.Service) *Service {
	return &Service{db: db, companies: companies, jwt: jwt}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	exists, err := s.companies.Exists(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, company.ErrCompanyNotFound
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := RoleMember
	if req.Role == string(RoleAdmin) {
		role = RoleAdmin
	}

	u := &User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         role,
		CompanyID:    req.CompanyID,
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	var u User
	err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(u.ID, u.CompanyID, string(u.Role))
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: &u, AccessToken: token}, nil
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
