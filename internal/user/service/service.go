package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,AuditPublisher

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"sacra360/internal/user/models"
	"sacra360/internal/user/secrets"
	dErrors "sacra360/pkg/domain-errors"
	audit "sacra360/pkg/platform/audit"
	"sacra360/pkg/platform/sentinel"
	"sacra360/pkg/platform/tx"
	"sacra360/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, f models.ListFilter) ([]*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Deactivate(ctx context.Context, id int64, at time.Time) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages operator accounts.
type Service struct {
	users          Store
	tx             tx.Runner
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

func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func New(users Store, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	s := &Service{users: users}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewMemoryRunner()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

func (s *Service) Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	req.Normalize()
	hash, err := secrets.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	var created *models.User
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		u := &models.User{
			Nombre:             req.Nombre,
			Email:              req.Email,
			PasswordHash:       hash,
			Rol:                req.Rol,
			Activo:             true,
			FechaRegistro:      now,
			FechaActualizacion: now,
		}
		if err := s.users.Create(txCtx, u); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeDuplicate, "ya existe un usuario con el correo "+req.Email).
					WithDetail("email", req.Email)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo crear el usuario")
		}
		if err := s.emit(txCtx, audit.EventUserCreated, u); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, wrapUserErr(err, "no se pudo obtener el usuario")
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, f models.ListFilter) ([]*models.User, error) {
	users, err := s.users.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo listar usuarios")
	}
	return users, nil
}

func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateUserRequest) (*models.User, error) {
	var hash string
	if req.Password != "" {
		var err error
		if hash, err = secrets.Hash(req.Password); err != nil {
			return nil, err
		}
	}

	var updated *models.User
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		u, err := s.users.FindByID(txCtx, id)
		if err != nil {
			return wrapUserErr(err, "no se pudo obtener el usuario")
		}
		u.Nombre = req.Nombre
		u.Rol = req.Rol
		if hash != "" {
			u.PasswordHash = hash
		}
		u.FechaActualizacion = requestcontext.Now(txCtx)
		if err := s.users.Update(txCtx, u); err != nil {
			return wrapUserErr(err, "no se pudo actualizar el usuario")
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Deactivate soft-deletes an account. Callers cannot deactivate themselves.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id == requestcontext.UserID(ctx) {
		return dErrors.New(dErrors.CodeConflict, "no puede desactivar su propia cuenta")
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		u, err := s.users.FindByID(txCtx, id)
		if err != nil {
			return wrapUserErr(err, "no se pudo obtener el usuario")
		}
		if err := s.users.Deactivate(txCtx, id, requestcontext.Now(txCtx)); err != nil {
			return wrapUserErr(err, "no se pudo desactivar el usuario")
		}
		return s.emit(txCtx, audit.EventUserDeactivated, u)
	})
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, u *models.User) error {
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:        string(action),
		AggregateType: "usuario",
		AggregateID:   strconv.FormatInt(u.ID, 10),
		Subject:       u.Email,
		Details:       map[string]any{"rol": u.Rol},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "action", action, "usuario_id", u.ID, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo registrar la auditoría")
	}
	return nil
}

func wrapUserErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "usuario no encontrado")
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
