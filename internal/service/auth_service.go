package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"saas-billing-be/internal/config"
	"saas-billing-be/internal/dto"
	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/pkg/mailer"
	"saas-billing-be/internal/pkg/serverutils"
	"saas-billing-be/internal/repository/specification"
	"saas-billing-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) error
	ResendVerification(ctx context.Context, req *dto.ResendVerificationRequest) error
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
}

type authService struct {
	uowFactory   unitofwork.RepositoryFactory
	emailService mailer.IEmailService
	logger       logger.ILogger
	cfg          config.AuthConfig
	clientURL    string
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	logger logger.ILogger,
	cfg config.AuthConfig,
	clientURL string,
) IAuthService {
	return &authService{
		uowFactory:   uowFactory,
		emailService: emailService,
		logger:       logger,
		cfg:          cfg,
		clientURL:    strings.TrimRight(clientURL, "/"),
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := normalizeEmail(req.Email)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// Accounts stay disabled until the email address is verified.
	user := &entity.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         entity.UserRoleUser,
		Enabled:      false,
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.newVerificationToken(ctx, uow, user.Id)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("AUTH", "User registered", map[string]interface{}{"user_id": user.Id})
	s.sendVerification(user, token)

	return &dto.RegisterResponse{Id: user.Id, Email: user.Email}, nil
}

// VerifyEmail enables the account. An expired token is replaced and a fresh
// link is mailed before the error is returned.
func (s *authService) VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	token, err := uow.UserRepository().FindEmailVerificationToken(ctx, specification.ByToken{Token: req.Token})
	if err != nil {
		return err
	}
	if token == nil {
		return apperror.ErrInvalidToken
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: token.UserId})
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.ErrInvalidToken
	}

	if time.Now().After(token.ExpiresAt) {
		fresh, err := s.newVerificationToken(ctx, uow, user.Id)
		if err != nil {
			return err
		}
		if err := uow.Commit(); err != nil {
			return err
		}
		s.sendVerification(user, fresh)
		return apperror.ErrTokenExpired
	}

	if err := uow.UserRepository().Enable(ctx, user.Id); err != nil {
		return err
	}
	if err := uow.UserRepository().DeleteEmailVerificationTokens(ctx, user.Id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.logger.Info("AUTH", "Email verified", map[string]interface{}{"user_id": user.Id})
	s.send(user.Email, mailer.TemplateWelcome, map[string]interface{}{
		"Name": user.FullName(),
		"Link": s.clientURL + "/login",
	})
	return nil
}

func (s *authService) ResendVerification(ctx context.Context, req *dto.ResendVerificationRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: normalizeEmail(req.Email)})
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.ErrNotFound
	}
	if user.Enabled {
		return apperror.ErrAlreadyVerified
	}

	token, err := s.newVerificationToken(ctx, uow, user.Id)
	if err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}
	s.sendVerification(user, token)
	return nil
}

// Login issues an access token. Disabled accounts may log in; checkout is
// where the enabled flag is enforced.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: normalizeEmail(req.Email)})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	token, err := serverutils.IssueToken(s.cfg.JWTSecret, user, s.cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	if err := uow.UserRepository().TouchLastLogin(ctx, user.Id); err != nil {
		s.logger.Warn("AUTH", "Failed to record last login", map[string]interface{}{"user_id": user.Id, "error": err.Error()})
	}

	return &dto.LoginResponse{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.cfg.TokenTTL).Unix(),
		User: dto.UserDTO{
			Id:       user.Id,
			Email:    user.Email,
			FullName: user.FullName(),
			Role:     string(user.Role),
		},
	}, nil
}

// ForgotPassword never reveals whether the address is registered.
func (s *authService) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: normalizeEmail(req.Email)})
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	resetToken := &entity.PasswordResetToken{
		UserId:    user.Id,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(s.cfg.ResetTTL),
	}
	if err := uow.UserRepository().CreatePasswordResetToken(ctx, resetToken); err != nil {
		return err
	}

	s.send(user.Email, mailer.TemplatePasswordReset, map[string]interface{}{
		"Link":      s.clientURL + "/reset-password?token=" + resetToken.Token,
		"ExpiresIn": humanDuration(s.cfg.ResetTTL),
	})
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	token, err := uow.UserRepository().FindPasswordResetToken(ctx,
		specification.ByToken{Token: req.Token},
		specification.UnusedToken{},
	)
	if err != nil {
		return err
	}
	if token == nil {
		return apperror.ErrInvalidToken
	}
	if time.Now().After(token.ExpiresAt) {
		return apperror.ErrTokenExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := uow.UserRepository().UpdatePassword(ctx, token.UserId, string(hash)); err != nil {
		return err
	}
	if err := uow.UserRepository().MarkTokenUsed(ctx, token.Id); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *authService) newVerificationToken(ctx context.Context, uow unitofwork.UnitOfWork, userId uint) (*entity.EmailVerificationToken, error) {
	if err := uow.UserRepository().DeleteEmailVerificationTokens(ctx, userId); err != nil {
		return nil, err
	}
	token := &entity.EmailVerificationToken{
		UserId:    userId,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(s.cfg.VerificationTTL),
	}
	if err := uow.UserRepository().CreateEmailVerificationToken(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *authService) sendVerification(user *entity.User, token *entity.EmailVerificationToken) {
	s.send(user.Email, mailer.TemplateVerification, map[string]interface{}{
		"Name":      user.FullName(),
		"Link":      s.clientURL + "/verify-email?token=" + token.Token,
		"ExpiresIn": humanDuration(s.cfg.VerificationTTL),
	})
}

// send is best effort: the account change already committed.
func (s *authService) send(to string, tmpl mailer.Template, vars map[string]interface{}) {
	if err := s.emailService.SendTemplate(to, tmpl, vars); err != nil {
		s.logger.Error("AUTH", "Failed to send email", map[string]interface{}{
			"template": string(tmpl),
			"error":    err.Error(),
		})
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return strconv.Itoa(h) + " hours"
	}
	return d.String()
}
