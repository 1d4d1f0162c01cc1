package implementation

import (
	"context"
	"errors"
	"time"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/mapper"
	"saas-billing-be/internal/model"
	"saas-billing-be/internal/repository/contract"
	"saas-billing-be/internal/repository/specification"

	"gorm.io/gorm"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entity.User) error {
	modelUser := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Create(modelUser).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(modelUser)
	return nil
}

func (r *UserRepositoryImpl) Update(ctx context.Context, user *entity.User) error {
	modelUser := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Save(modelUser).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(modelUser)
	return nil
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var modelUser model.User
	query := applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelUser), nil
}

func (r *UserRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	var modelUsers []*model.User
	query := applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&modelUsers).Error; err != nil {
		return nil, err
	}

	return r.mapper.ToEntities(modelUsers), nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.User{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserRepositoryImpl) LinkStripeCustomer(ctx context.Context, userId uint, customerId string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND (stripe_customer_id IS NULL OR stripe_customer_id = '')", userId).
		Update("stripe_customer_id", customerId)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *UserRepositoryImpl) Enable(ctx context.Context, userId uint) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userId).Update("enabled", true).Error
}

func (r *UserRepositoryImpl) UpdatePassword(ctx context.Context, userId uint, hash string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userId).Update("password_hash", hash).Error
}

func (r *UserRepositoryImpl) TouchLastLogin(ctx context.Context, userId uint) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userId).Update("last_login_at", time.Now()).Error
}

// Token Implementations

func (r *UserRepositoryImpl) CreatePasswordResetToken(ctx context.Context, token *entity.PasswordResetToken) error {
	m := r.mapper.PasswordResetTokenToModel(token)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*token = *r.mapper.PasswordResetTokenToEntity(m)
	return nil
}

func (r *UserRepositoryImpl) FindPasswordResetToken(ctx context.Context, specs ...specification.Specification) (*entity.PasswordResetToken, error) {
	var m model.PasswordResetToken
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PasswordResetTokenToEntity(&m), nil
}

func (r *UserRepositoryImpl) MarkTokenUsed(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.PasswordResetToken{}).Where("id = ?", id).Update("used", true).Error
}

func (r *UserRepositoryImpl) CreateEmailVerificationToken(ctx context.Context, token *entity.EmailVerificationToken) error {
	m := r.mapper.EmailVerificationTokenToModel(token)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*token = *r.mapper.EmailVerificationTokenToEntity(m)
	return nil
}

func (r *UserRepositoryImpl) FindEmailVerificationToken(ctx context.Context, specs ...specification.Specification) (*entity.EmailVerificationToken, error) {
	var m model.EmailVerificationToken
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.EmailVerificationTokenToEntity(&m), nil
}

func (r *UserRepositoryImpl) DeleteEmailVerificationTokens(ctx context.Context, userId uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.EmailVerificationToken{}).Error
}
