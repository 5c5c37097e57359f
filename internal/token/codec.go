package token

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the lifetimes applied at issue time.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (c Config) Validate() error {
	if c.AccessTTL <= 0 {
		return errors.New("access token lifetime must be positive")
	}
	if c.RefreshTTL <= 0 {
		return errors.New("refresh token lifetime must be positive")
	}
	return nil
}

type Option func(*Codec)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

type Codec struct {
	cfg    Config
	signer Signer
	now    func() time.Time
}

func NewCodec(cfg Config, signer Signer, opts ...Option) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if signer == nil {
		return nil, errors.New("token signer is required")
	}

	c := &Codec{cfg: cfg, signer: signer, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a new token of the given type. The "type" and "exp" keys always
// win over values of the same name in claims. A signing error is unexpected
// and is returned unclassified.
func (c *Codec) Issue(typ Type, claims map[string]any) (Token, error) {
	if _, err := ParseType(string(typ)); err != nil {
		return Token{}, err
	}

	payload := make(map[string]any, len(claims)+2)
	for k, v := range claims {
		payload[k] = v
	}
	delete(payload, KeyExpiration)
	payload[KeyType] = string(typ)

	now := c.now()
	switch typ {
	case TypeAccess:
		payload[KeyExpiration] = now.Add(c.cfg.AccessTTL).Unix()
	case TypeRefresh:
		payload[KeyExpiration] = now.Add(c.cfg.RefreshTTL).Unix()
	}

	raw, err := c.signer.Sign(payload)
	if err != nil {
		return Token{}, fmt.Errorf("issue %s token: %w", typ, err)
	}

	// Decode what was actually signed so issued and parsed tokens agree.
	t, err := c.Parse(raw)
	if err != nil {
		return Token{}, fmt.Errorf("issue %s token: %w", typ, err)
	}
	return t, nil
}

// Parse verifies raw and decodes its claim set. Every failure is an *Error
// matching ErrInvalidToken.
func (c *Codec) Parse(raw string) (Token, error) {
	if raw == "" {
		return Token{}, &Error{Reason: ReasonMalformed, Err: ErrMalformed}
	}

	claims, err := c.signer.Verify(raw)
	if err != nil {
		return Token{}, classify(err)
	}

	t, err := newToken(raw, claims)
	if err != nil {
		return Token{}, &Error{Reason: ReasonMalformed, Err: fmt.Errorf("%w: %w", ErrMalformed, err)}
	}
	return t, nil
}

// Now returns the codec clock, so callers compare against the same time source
// used for issuing.
func (c *Codec) Now() time.Time {
	return c.now()
}
