package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks UserFinder,TokenIssuer,AuditPublisher

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"sacra360/internal/auth/models"
	usermodels "sacra360/internal/user/models"
	"sacra360/internal/user/secrets"
	dErrors "sacra360/pkg/domain-errors"
	audit "sacra360/pkg/platform/audit"
	"sacra360/pkg/platform/sentinel"
)

type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*usermodels.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID int64, username, role string) (string, error)
	TTL() time.Duration
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service authenticates operators with email and password.
type Service struct {
	users          UserFinder
	tokens         TokenIssuer
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(users UserFinder, tokens TokenIssuer, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("user finder is required")
	}
	if tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	s := &Service{users: users, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// dummyHash keeps the cost of a login for an unknown email close to that of
// a wrong password.
var dummyHash, _ = secrets.Hash("sacra360-dummy-password")

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "correo o contraseña incorrectos")

func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResult, error) {
	email := usermodels.NormalizeEmail(req.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo verificar las credenciales")
		}
		_ = secrets.Verify(req.Password, dummyHash)
		s.emit(ctx, audit.EventLoginFailed, 0, email)
		return nil, errInvalidCredentials
	}

	if err := secrets.Verify(req.Password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.emit(ctx, audit.EventLoginFailed, user.ID, email)
			return nil, errInvalidCredentials
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo verificar las credenciales")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Rol)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.EventLoginSucceeded, user.ID, email)

	return &models.TokenResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		UserID:      user.ID,
		Rol:         user.Rol,
	}, nil
}

// emit records security events without failing the login.
func (s *Service) emit(ctx context.Context, action audit.AuditEvent, userID int64, email string) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:        string(action),
		AggregateType: "usuario",
		AggregateID:   strconv.FormatInt(userID, 10),
		UserID:        userID,
		Subject:       email,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit security audit event", "action", action, "error", err)
	}
}
