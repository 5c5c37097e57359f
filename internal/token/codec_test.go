package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "0548a115e749bd446115d6c05e95838b2f7b47568e110186e0fe81fca376e19d"
	otherSecret = "0548a115e749bd446115d6c05e95838b2f7b47568e110186e0fe81fca376e1ff"
)

var testConfig = Config{AccessTTL: 20 * time.Minute, RefreshTTL: 15 * 24 * time.Hour}

func newTestCodec(t *testing.T, secret string, alg string, now time.Time) *Codec {
	t.Helper()

	signer, err := NewJWTSigner(secret, alg)
	require.NoError(t, err)
	codec, err := NewCodec(testConfig, signer, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return codec
}

func TestIssueSetsTypeSpecificExpiration(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, testSecret, "HS256", now)
	claims := map[string]any{KeyUserID: "tester"}

	t.Run("access", func(t *testing.T) {
		tok, err := codec.Issue(TypeAccess, claims)
		require.NoError(t, err)

		require.Equal(t, TypeAccess, tok.Type())
		require.Equal(t, "tester", tok.Subject())
		exp, ok := tok.Expiration()
		require.True(t, ok)
		require.Equal(t, now.Add(20*time.Minute).Unix(), exp.Unix())
		require.False(t, tok.IsExpired(now.Unix()))
	})

	t.Run("refresh", func(t *testing.T) {
		tok, err := codec.Issue(TypeRefresh, claims)
		require.NoError(t, err)

		require.Equal(t, TypeRefresh, tok.Type())
		raw, ok := tok.Claim(KeyExpiration)
		require.True(t, ok)
		require.Equal(t, "1773662400", raw)
		require.False(t, tok.IsExpired(now.Unix()))
	})

	t.Run("permanent has no expiration claim", func(t *testing.T) {
		tok, err := codec.Issue(TypePermanent, claims)
		require.NoError(t, err)

		require.Equal(t, TypePermanent, tok.Type())
		_, ok := tok.Claim(KeyExpiration)
		require.False(t, ok)
		_, ok = tok.Expiration()
		require.False(t, ok)
		require.False(t, tok.IsExpired(now.Unix()))
	})
}

func TestIssueTypeAndExpirationOverrideCallerClaims(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, testSecret, "HS256", now)

	tok, err := codec.Issue(TypeAccess, map[string]any{
		KeyUserID:     "tester",
		KeyType:       "PERMANENT",
		KeyExpiration: int64(1),
		"device":      "cli",
	})
	require.NoError(t, err)

	require.Equal(t, TypeAccess, tok.Type())
	exp, _ := tok.Expiration()
	require.Equal(t, now.Add(20*time.Minute).Unix(), exp.Unix())
	device, ok := tok.Claim("device")
	require.True(t, ok)
	require.Equal(t, "cli", device)

	perm, err := codec.Issue(TypePermanent, map[string]any{KeyUserID: "tester", KeyExpiration: int64(1)})
	require.NoError(t, err)
	_, ok = perm.Claim(KeyExpiration)
	require.False(t, ok)
}

func TestIssueRejectsUnknownType(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, testSecret, "HS256", time.Now())
	_, err := codec.Issue(Type("SESSION"), map[string]any{KeyUserID: "tester"})
	require.Error(t, err)
}

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, testSecret, "HS512", time.Now())

	for _, typ := range []Type{TypeAccess, TypeRefresh, TypePermanent} {
		issued, err := codec.Issue(typ, map[string]any{KeyUserID: "tester", "scope_hint": "none"})
		require.NoError(t, err)

		parsed, err := codec.Parse(issued.Raw())
		require.NoError(t, err)
		require.Equal(t, issued.Raw(), parsed.Raw())
		require.Equal(t, issued.Type(), parsed.Type())
		require.Equal(t, issued.Claims(), parsed.Claims())

		issuedExp, issuedHas := issued.Expiration()
		parsedExp, parsedHas := parsed.Expiration()
		require.Equal(t, issuedHas, parsedHas)
		require.Equal(t, issuedExp, parsedExp)
	}
}

func TestIsExpiredBoundaryAndMonotonicity(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, testSecret, "HS256", now)

	tok, err := codec.Issue(TypeAccess, map[string]any{KeyUserID: "tester"})
	require.NoError(t, err)
	exp, _ := tok.Expiration()

	require.False(t, tok.IsExpired(exp.Unix()-1))
	require.True(t, tok.IsExpired(exp.Unix()), "expiring exactly at the comparison instant counts as expired")

	for _, offset := range []int64{1, 60, 86400, 1 << 40} {
		require.True(t, tok.IsExpired(exp.Unix()+offset))
	}
}

func TestPermanentNeverExpires(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, testSecret, "HS256", time.Now())
	tok, err := codec.Issue(TypePermanent, map[string]any{KeyUserID: "tester"})
	require.NoError(t, err)

	for _, ts := range []int64{0, time.Now().Unix(), time.Now().AddDate(500, 0, 0).Unix(), 1<<62 - 1} {
		require.False(t, tok.IsExpired(ts))
	}
}

func TestParseAcceptsExpiredTokens(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-48 * time.Hour)
	issuer := newTestCodec(t, testSecret, "HS256", past)
	tok, err := issuer.Issue(TypeAccess, map[string]any{KeyUserID: "tester"})
	require.NoError(t, err)

	parser := newTestCodec(t, testSecret, "HS256", time.Now())
	parsed, err := parser.Parse(tok.Raw())
	require.NoError(t, err)
	require.True(t, parsed.IsExpired(time.Now().Unix()))
}

func TestParseCrossKeyRejection(t *testing.T) {
	t.Parallel()

	now := time.Now()
	issuer := newTestCodec(t, testSecret, "HS256", now)
	tok, err := issuer.Issue(TypeAccess, map[string]any{KeyUserID: "tester"})
	require.NoError(t, err)

	cases := map[string]*Codec{
		"other secret":             newTestCodec(t, otherSecret, "HS256", now),
		"other algorithm":          newTestCodec(t, testSecret, "HS384", now),
		"other secret + algorithm": newTestCodec(t, otherSecret, "HS512", now),
	}

	for name, codec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Parse(tok.Raw())
			require.ErrorIs(t, err, ErrInvalidToken)

			var tokErr *Error
			require.True(t, errors.As(err, &tokErr))
			require.Equal(t, ReasonSignature, tokErr.Reason)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, testSecret, "HS256", time.Now())

	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c"} {
		_, err := codec.Parse(raw)
		require.ErrorIs(t, err, ErrInvalidToken, raw)

		var tokErr *Error
		require.True(t, errors.As(err, &tokErr))
		require.Equal(t, ReasonMalformed, tokErr.Reason, raw)
	}
}

func TestParseRejectsSignedTokenWithoutKnownType(t *testing.T) {
	t.Parallel()

	signed := func(claims jwt.MapClaims) string {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return raw
	}
	codec := newTestCodec(t, testSecret, "HS256", time.Now())

	for name, raw := range map[string]string{
		"missing type":       signed(jwt.MapClaims{KeyUserID: "tester"}),
		"unknown type":       signed(jwt.MapClaims{KeyType: "SESSION", KeyUserID: "tester"}),
		"access without exp": signed(jwt.MapClaims{KeyType: "ACCESS", KeyUserID: "tester"}),
		"non numeric exp":    signed(jwt.MapClaims{KeyType: "REFRESH", KeyExpiration: "soon"}),
	} {
		_, err := codec.Parse(raw)
		require.ErrorIs(t, err, ErrInvalidToken, name)
		require.ErrorIs(t, err, ErrMalformed, name)
	}
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		KeyType:   "PERMANENT",
		KeyUserID: "tester",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	codec := newTestCodec(t, testSecret, "HS256", time.Now())
	_, err = codec.Parse(unsigned)
	require.ErrorIs(t, err, ErrInvalidToken)
}

type failingSigner struct{}

func (failingSigner) Sign(map[string]any) (string, error) { return "", errors.New("hsm unavailable") }
func (failingSigner) Verify(string) (map[string]any, error) {
	return nil, errors.New("unused")
}

func TestIssueSigningFailureIsNotADomainError(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec(testConfig, failingSigner{})
	require.NoError(t, err)

	_, err = codec.Issue(TypeAccess, map[string]any{KeyUserID: "tester"})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidToken)
	require.True(t, strings.Contains(err.Error(), "hsm unavailable"))
}

func TestNewJWTSignerValidation(t *testing.T) {
	t.Parallel()

	_, err := NewJWTSigner("", "HS256")
	require.Error(t, err)

	_, err = NewJWTSigner(testSecret, "HS128")
	require.Error(t, err)

	_, err = NewJWTSigner(testSecret, "RS256")
	require.Error(t, err)

	signer, err := NewJWTSigner(testSecret, "hs384")
	require.NoError(t, err)
	require.Equal(t, "HS384", signer.Algorithm())
}

func TestNewCodecValidatesConfig(t *testing.T) {
	t.Parallel()

	signer, err := NewJWTSigner(testSecret, "HS256")
	require.NoError(t, err)

	_, err = NewCodec(Config{AccessTTL: 0, RefreshTTL: time.Hour}, signer)
	require.Error(t, err)
	_, err = NewCodec(Config{AccessTTL: time.Hour, RefreshTTL: -time.Hour}, signer)
	require.Error(t, err)
	_, err = NewCodec(testConfig, nil)
	require.Error(t, err)
}
