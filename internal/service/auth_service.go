package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"commoni-api/internal/model"
	"commoni-api/internal/password"
	"commoni-api/internal/token"
	"commoni-api/pkg/apierror"
)

// AuthReason is the closed set of authentication failures.
type AuthReason uint8

const (
	ReasonBadCredentials AuthReason = iota + 1
	ReasonInvalidToken
	ReasonExpired
	ReasonWrongType
	ReasonUnknownSubject
)

func (r AuthReason) String() string {
	switch r {
	case ReasonBadCredentials:
		return "bad_credentials"
	case ReasonInvalidToken:
		return "invalid_token"
	case ReasonExpired:
		return "expired"
	case ReasonWrongType:
		return "wrong_type"
	case ReasonUnknownSubject:
		return "unknown_subject"
	default:
		return fmt.Sprintf("auth_reason(%d)", uint8(r))
	}
}

// AuthError is the Cause of every Unauthorized error returned by AuthService.
type AuthError struct {
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Reason.String()
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ReasonOf extracts the AuthReason carried by err, if any.
func ReasonOf(err error) (AuthReason, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Reason, true
	}
	return 0, false
}

var errPasswordMismatch = errors.New("password mismatch")

type userLookup interface {
	Get(ctx context.Context, loginID string) (model.User, error)
	EnsureLive(ctx context.Context, loginID string) error
}

type AuthService struct {
	codec       *token.Codec
	users       userLookup
	hasher      password.Hasher
	renewWindow time.Duration
}

// NewAuthService wires the login/verify/renew flow. renewWindow is how long
// before its expiration a refresh token gets replaced on renewal.
func NewAuthService(codec *token.Codec, users userLookup, hasher password.Hasher, renewWindow time.Duration) (*AuthService, error) {
	if codec == nil || users == nil || hasher == nil {
		return nil, errors.New("auth service: codec, user lookup and hasher are required")
	}
	if renewWindow < 0 {
		return nil, errors.New("auth service: renew window must not be negative")
	}
	return &AuthService{codec: codec, users: users, hasher: hasher, renewWindow: renewWindow}, nil
}

// Login checks the password of loginID and issues an access/refresh pair.
// Unknown, deleted and mismatching accounts are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, loginID string, plaintext string) (model.TokenPair, error) {
	user, err := s.users.Get(ctx, loginID)
	if err != nil {
		if apierror.IsStatus(err, http.StatusNotFound) {
			return model.TokenPair{}, s.reject(ctx, ReasonBadCredentials, "invalid credentials", err)
		}
		return model.TokenPair{}, err
	}

	if !s.hasher.Verify(plaintext, user.PasswordDigest) {
		return model.TokenPair{}, s.reject(ctx, ReasonBadCredentials, "invalid credentials", errPasswordMismatch)
	}

	access, err := s.issue(token.TypeAccess, loginID)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, err := s.issue(token.TypeRefresh, loginID)
	if err != nil {
		return model.TokenPair{}, err
	}

	slog.InfoContext(ctx, "user logged in", "user_id", loginID)
	return model.TokenPair{AccessToken: access.Raw(), RefreshToken: refresh.Raw()}, nil
}

// Verify parses raw, rejects it when expired, and confirms its subject still
// resolves to a live account.
func (s *AuthService) Verify(ctx context.Context, raw string) (token.Token, error) {
	tok, err := s.codec.Parse(raw)
	if err != nil {
		return token.Token{}, s.reject(ctx, ReasonInvalidToken, "token is invalid", err)
	}

	if tok.IsExpired(s.codec.Now().Unix()) {
		exp, _ := tok.Expiration()
		return token.Token{}, s.reject(ctx, ReasonExpired, "token is expired", fmt.Errorf("expired at %s", exp.Format(time.RFC3339)))
	}

	subject := tok.Subject()
	if subject == "" {
		return token.Token{}, s.reject(ctx, ReasonInvalidToken, "token is invalid", fmt.Errorf("missing %q claim", token.KeyUserID))
	}

	if err := s.users.EnsureLive(ctx, subject); err != nil {
		if apierror.IsStatus(err, http.StatusNotFound) {
			return token.Token{}, s.reject(ctx, ReasonUnknownSubject, "token is invalid", err)
		}
		return token.Token{}, err
	}

	return tok, nil
}

// Renew exchanges a refresh token for a new access token. A new refresh token
// is issued only when the presented one expires within the renew window.
func (s *AuthService) Renew(ctx context.Context, raw string) (model.RenewedTokens, error) {
	tok, err := s.Verify(ctx, raw)
	if err != nil {
		return model.RenewedTokens{}, err
	}
	if tok.Type() != token.TypeRefresh {
		return model.RenewedTokens{}, s.reject(ctx, ReasonWrongType, "token is invalid", fmt.Errorf("got %s token, want %s", tok.Type(), token.TypeRefresh))
	}

	loginID := tok.Subject()
	var out model.RenewedTokens

	lookAhead := s.codec.Now().Add(s.renewWindow).Unix()
	if tok.IsExpired(lookAhead) {
		slog.InfoContext(ctx, "refresh token expiration is approaching, renewing it", "user_id", loginID)
		refresh, err := s.issue(token.TypeRefresh, loginID)
		if err != nil {
			return model.RenewedTokens{}, err
		}
		out.RefreshToken = refresh.Raw()
	}

	access, err := s.issue(token.TypeAccess, loginID)
	if err != nil {
		return model.RenewedTokens{}, err
	}
	out.AccessToken = access.Raw()

	return out, nil
}

// IssuePermanent returns a non-expiring token for an existing account.
func (s *AuthService) IssuePermanent(ctx context.Context, loginID string) (string, error) {
	if _, err := s.users.Get(ctx, loginID); err != nil {
		return "", err
	}

	tok, err := s.issue(token.TypePermanent, loginID)
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "permanent token issued", "user_id", loginID)
	return tok.Raw(), nil
}

func (s *AuthService) issue(typ token.Type, loginID string) (token.Token, error) {
	tok, err := s.codec.Issue(typ, map[string]any{token.KeyUserID: loginID})
	if err != nil {
		return token.Token{}, apierror.ServerError("token issue", err)
	}
	return tok, nil
}

func (s *AuthService) reject(ctx context.Context, reason AuthReason, message string, cause error) error {
	authErr := &AuthError{Reason: reason, Err: cause}
	slog.WarnContext(ctx, "authentication rejected", "reason", reason.String(), "error", authErr.Error())
	return apierror.Unauthorized(message, authErr)
}
