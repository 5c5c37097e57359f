package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"commoni-api/internal/model"
	"commoni-api/internal/password"
	"commoni-api/internal/util"
	"commoni-api/pkg/apierror"
)

const presenceKeyPrefix = "user:live:"

type userStore interface {
	ExistsByLoginID(ctx context.Context, loginID string) (bool, error)
	FindByLoginID(ctx context.Context, loginID string) (model.User, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, loginID string, upd model.UserUpdate) error
	SoftDelete(ctx context.Context, loginID string) error
}

type presenceCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetWithExpire(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// UserService is the single place where store errors become apierror values.
type UserService struct {
	store       userStore
	hasher      password.Hasher
	presence    presenceCache
	presenceTTL time.Duration
}

func NewUserService(store userStore, hasher password.Hasher) *UserService {
	return &UserService{store: store, hasher: hasher}
}

// SetPresenceCache lets EnsureLive remember live accounts for ttl. Delete
// drops the marker. A non-positive ttl disables the cache.
func (s *UserService) SetPresenceCache(c presenceCache, ttl time.Duration) {
	if c == nil || ttl <= 0 {
		s.presence, s.presenceTTL = nil, 0
		return
	}
	s.presence, s.presenceTTL = c, ttl
}

type UpdateUserInput struct {
	Password *string
}

func (s *UserService) Create(ctx context.Context, loginID string, plaintext string) (model.User, error) {
	if err := util.ValidateLoginID(loginID); err != nil {
		return model.User{}, err
	}
	if plaintext == "" {
		return model.User{}, apierror.BadRequest("password is required", "password")
	}

	exists, err := s.store.ExistsByLoginID(ctx, loginID)
	if err != nil {
		return model.User{}, s.translate(ctx, "get", loginID, err)
	}
	if exists {
		slog.WarnContext(ctx, "user already exists", "user_id", loginID)
		return model.User{}, apierror.AlreadyExistedUser(loginID)
	}

	digest, err := s.hash(plaintext)
	if err != nil {
		return model.User{}, err
	}

	user := model.User{LoginID: loginID, PasswordDigest: digest}
	if err := s.store.Create(ctx, &user); err != nil {
		return model.User{}, s.translate(ctx, "create", loginID, err)
	}

	slog.InfoContext(ctx, "user created", "user_id", loginID, "no", user.NumericID)
	return user, nil
}

// Get never returns soft-deleted users.
func (s *UserService) Get(ctx context.Context, loginID string) (model.User, error) {
	user, err := s.store.FindByLoginID(ctx, loginID)
	if err != nil {
		return model.User{}, s.translate(ctx, "get", loginID, err)
	}
	return user, nil
}

// EnsureLive reports whether loginID names a live account, answering from the
// presence cache when it can. Cache failures fall through to the store.
func (s *UserService) EnsureLive(ctx context.Context, loginID string) error {
	key := presenceKeyPrefix + loginID

	if s.presence != nil {
		_, hit, err := s.presence.Get(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "presence cache read failed", "user_id", loginID, "error", err)
		}
		if hit {
			return nil
		}
	}

	if _, err := s.Get(ctx, loginID); err != nil {
		return err
	}

	if s.presence != nil {
		if err := s.presence.SetWithExpire(ctx, key, "1", s.presenceTTL); err != nil {
			slog.WarnContext(ctx, "presence cache write failed", "user_id", loginID, "error", err)
		}
	}
	return nil
}

func (s *UserService) GetStatus(ctx context.Context, loginID string) (model.UserStatus, error) {
	user, err := s.Get(ctx, loginID)
	if err != nil {
		return model.UserStatus{}, err
	}
	return user.Status(), nil
}

func (s *UserService) Update(ctx context.Context, loginID string, in UpdateUserInput) error {
	if _, err := s.Get(ctx, loginID); err != nil {
		return err
	}

	var upd model.UserUpdate
	if in.Password != nil && *in.Password != "" {
		digest, err := s.hash(*in.Password)
		if err != nil {
			return err
		}
		upd.PasswordDigest = &digest
	}

	if err := s.store.Update(ctx, loginID, upd); err != nil {
		return s.translate(ctx, "update", loginID, err)
	}
	return nil
}

// Delete flags the user as deleted; the row is kept.
func (s *UserService) Delete(ctx context.Context, loginID string) error {
	if _, err := s.Get(ctx, loginID); err != nil {
		return err
	}

	if err := s.store.SoftDelete(ctx, loginID); err != nil {
		return s.translate(ctx, "delete", loginID, err)
	}

	if s.presence != nil {
		if err := s.presence.Delete(ctx, presenceKeyPrefix+loginID); err != nil {
			slog.WarnContext(ctx, "presence cache invalidation failed", "user_id", loginID, "error", err)
		}
	}

	slog.InfoContext(ctx, "user deleted", "user_id", loginID)
	return nil
}

func (s *UserService) hash(plaintext string) (string, error) {
	digest, err := s.hasher.Hash(plaintext)
	if errors.Is(err, password.ErrTooLong) {
		return "", apierror.BadRequest("password is too long", "password")
	}
	if err != nil {
		return "", apierror.ServerError("password hash", err)
	}
	return digest, nil
}

func (s *UserService) translate(ctx context.Context, op string, loginID string, err error) error {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		slog.WarnContext(ctx, "user not found", "op", op, "user_id", loginID)
		return apierror.UserNotFound(loginID)
	case errors.Is(err, model.ErrUserAlreadyExists):
		slog.WarnContext(ctx, "user already exists", "op", op, "user_id", loginID)
		return apierror.AlreadyExistedUser(loginID)
	default:
		slog.ErrorContext(ctx, "user store failure", "op", op, "user_id", loginID, "error", err)
		return apierror.ServerError("UserCRUD "+op, err)
	}
}
