// Package token issues and parses signed, typed session tokens.
//
// A token carries three claims on the wire: "type", "user_id" and, for
// ACCESS and REFRESH tokens only, "exp" in epoch seconds. Expiration is fixed
// at issue time and checked with IsExpired; there is no server-side revocation.
package token

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"strconv"
	"time"
)

type Type string

const (
	TypeAccess    Type = "ACCESS"
	TypeRefresh   Type = "REFRESH"
	TypePermanent Type = "PERMANENT"
)

// Claim keys.
const (
	KeyType       = "type"
	KeyExpiration = "exp"
	KeyUserID     = "user_id"
)

func ParseType(raw string) (Type, error) {
	switch t := Type(raw); t {
	case TypeAccess, TypeRefresh, TypePermanent:
		return t, nil
	default:
		return "", fmt.Errorf("unknown token type %q", raw)
	}
}

// Token is an immutable, verified claim set together with its encoded form.
type Token struct {
	raw     string
	typ     Type
	exp     int64
	hasExp  bool
	payload map[string]any
}

func newToken(raw string, claims map[string]any) (Token, error) {
	typClaim, ok := claims[KeyType].(string)
	if !ok {
		return Token{}, fmt.Errorf("missing %q claim", KeyType)
	}
	typ, err := ParseType(typClaim)
	if err != nil {
		return Token{}, err
	}

	t := Token{raw: raw, typ: typ, payload: claims}
	if typ == TypePermanent {
		return t, nil
	}

	exp, ok := claims[KeyExpiration]
	if !ok {
		return Token{}, fmt.Errorf("missing %q claim on %s token", KeyExpiration, typ)
	}
	t.exp, err = epochSeconds(exp)
	if err != nil {
		return Token{}, fmt.Errorf("invalid %q claim: %w", KeyExpiration, err)
	}
	t.hasExp = true

	return t, nil
}

// Raw returns the encoded token string.
func (t Token) Raw() string { return t.raw }

func (t Token) Type() Type { return t.typ }

// Subject returns the user_id claim.
func (t Token) Subject() string {
	s, _ := t.Claim(KeyUserID)
	return s
}

// Claim returns the claim stored under key rendered as a string. The second
// value is false when the key was never set, which is always the case for
// "exp" on a PERMANENT token.
func (t Token) Claim(key string) (string, bool) {
	v, ok := t.payload[key]
	if !ok || v == nil {
		return "", false
	}

	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return fmt.Sprint(val), true
	}
}

// Claims returns a copy of the decoded claim set.
func (t Token) Claims() map[string]any {
	return maps.Clone(t.payload)
}

func (t Token) Expiration() (time.Time, bool) {
	if !t.hasExp {
		return time.Time{}, false
	}
	return time.Unix(t.exp, 0).UTC(), true
}

// IsExpired reports whether the token is expired at compareUnix (epoch
// seconds). A token whose expiration equals compareUnix is expired.
// PERMANENT tokens never expire.
func (t Token) IsExpired(compareUnix int64) bool {
	if t.typ == TypePermanent {
		return false
	}
	return t.exp <= compareUnix
}

func epochSeconds(v any) (int64, error) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, fmt.Errorf("not a finite number")
		}
		return int64(val), nil
	case int64:
		return val, nil
	case int:
		return int64(val), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, nil
		}
		f, err := val.Float64()
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
