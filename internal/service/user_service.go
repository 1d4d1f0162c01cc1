package service

import (
	"context"
	"strings"

	"saas-billing-be/internal/dto"
	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/repository/specification"
	"saas-billing-be/internal/repository/unitofwork"

	"golang.org/x/crypto/bcrypt"
)

type IUserService interface {
	GetMe(ctx context.Context, principal entity.Principal) (*dto.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, principal entity.Principal, userId uint, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
	UpdatePassword(ctx context.Context, principal entity.Principal, userId uint, req *dto.UpdatePasswordRequest) error
	GetUserDetails(ctx context.Context, principal entity.Principal, userId uint) (*dto.UserProfileResponse, error)
	ListUsers(ctx context.Context, principal entity.Principal, page, limit int) (*dto.UserListResponse, error)
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, logger logger.ILogger) IUserService {
	return &userService{
		uowFactory: uowFactory,
		logger:     logger,
	}
}

func (s *userService) GetMe(ctx context.Context, principal entity.Principal) (*dto.UserProfileResponse, error) {
	return s.GetUserDetails(ctx, principal, principal.UserId)
}

// UpdateProfile only ever edits the caller's own profile, admins included.
func (s *userService) UpdateProfile(ctx context.Context, principal entity.Principal, userId uint, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	if principal.UserId != userId {
		return nil, apperror.ErrForbidden
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}

	if email := normalizeEmail(req.Email); email != "" && email != user.Email {
		taken, err := uow.UserRepository().Count(ctx, specification.ByEmail{Email: email}, specification.ExcludeID{ID: user.Id})
		if err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, apperror.ErrEmailTaken
		}
		user.Email = email
	}
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)

	if err := uow.UserRepository().Update(ctx, user); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return toProfile(user), nil
}

func (s *userService) UpdatePassword(ctx context.Context, principal entity.Principal, userId uint, req *dto.UpdatePasswordRequest) error {
	if principal.UserId != userId {
		return apperror.ErrForbidden
	}
	if req.NewPassword != req.ConfirmPassword {
		return apperror.Validation("passwords do not match")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return apperror.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := uow.UserRepository().UpdatePassword(ctx, userId, string(hash)); err != nil {
		return err
	}

	s.logger.Info("USER", "Password changed", map[string]interface{}{"user_id": userId})
	return nil
}

func (s *userService) GetUserDetails(ctx context.Context, principal entity.Principal, userId uint) (*dto.UserProfileResponse, error) {
	if !principal.CanAccess(userId) {
		return nil, apperror.ErrForbidden
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}
	return toProfile(user), nil
}

func (s *userService) ListUsers(ctx context.Context, principal entity.Principal, page, limit int) (*dto.UserListResponse, error) {
	if !principal.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.UserRepository().Count(ctx)
	if err != nil {
		return nil, err
	}
	users, err := uow.UserRepository().FindAll(ctx,
		specification.OrderBy{Field: "id"},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.UserListResponse{
		Users: make([]*dto.UserProfileResponse, 0, len(users)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, u := range users {
		res.Users = append(res.Users, toProfile(u))
	}
	return res, nil
}

func toProfile(u *entity.User) *dto.UserProfileResponse {
	return &dto.UserProfileResponse{
		Id:               u.Id,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Role:             string(u.Role),
		Enabled:          u.Enabled,
		StripeCustomerId: u.StripeCustomerId,
		LastLoginAt:      u.LastLoginAt,
		CreatedAt:        u.CreatedAt,
	}
}
