package middleware

import (
	"context"
	"net/http"
	"strings"

	"commoni-api/internal/model"
	"commoni-api/internal/token"
	"commoni-api/pkg/apierror"
)

type tokenVerifier interface {
	Verify(ctx context.Context, raw string) (token.Token, error)
}

type contextKey string

const authSubjectContextKey contextKey = "auth_subject"

type AuthMiddleware struct {
	verifier tokenVerifier
}

func NewAuthMiddleware(verifier tokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth admits ACCESS and PERMANENT tokens. REFRESH tokens are only
// accepted by the renewal endpoint, which reads the header itself.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := BearerToken(r)
		if !ok {
			WriteUnauthorized(w, "Unauthorized: missing or invalid authorization header")
			return
		}

		tok, err := m.verifier.Verify(r.Context(), raw)
		if err != nil {
			if apiErr, ok := apierror.As(err); ok && apiErr.HTTPStatus != http.StatusUnauthorized {
				writeJSONError(w, apiErr.HTTPStatus, apiErr.Code, apiErr.Message)
				return
			}
			WriteUnauthorized(w, unauthorizedMessage(err))
			return
		}

		if tok.Type() == token.TypeRefresh {
			WriteUnauthorized(w, "Unauthorized: refresh token cannot be used here")
			return
		}

		subject := &model.AuthSubject{UserID: tok.Subject(), TokenType: string(tok.Type())}
		if exp, ok := tok.Expiration(); ok {
			subject.ExpiresAt = &exp
		}

		ctx := context.WithValue(r.Context(), authSubjectContextKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClaimsFromContext(ctx context.Context) (*model.AuthSubject, bool) {
	subject, ok := ctx.Value(authSubjectContextKey).(*model.AuthSubject)
	return subject, ok
}

// WithSubject stores subject the way RequireAuth does.
func WithSubject(ctx context.Context, subject *model.AuthSubject) context.Context {
	return context.WithValue(ctx, authSubjectContextKey, subject)
}

// BearerToken extracts the credential of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}

	raw := strings.TrimSpace(header[7:])
	return raw, raw != ""
}

// WriteUnauthorized writes a 401 envelope with the Bearer challenge header.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSONError(w, http.StatusUnauthorized, apierror.CodeUnauthorized, message)
}

func unauthorizedMessage(err error) string {
	if apiErr, ok := apierror.As(err); ok {
		return apiErr.Message
	}
	return "Unauthorized: token is invalid"
}
