package model

import "time"

// User is a persisted account. LoginID is the natural key; NumericID is
// assigned by the store.
type User struct {
	NumericID      int64     `json:"no"`
	LoginID        string    `json:"id"`
	PasswordDigest string    `json:"-"`
	Deleted        bool      `json:"deleted"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserUpdate lists the mutable fields. A nil or empty field is left untouched.
type UserUpdate struct {
	PasswordDigest *string
}

func (u UserUpdate) IsEmpty() bool {
	return u.PasswordDigest == nil || *u.PasswordDigest == ""
}

type UserView struct {
	NumericID int64     `json:"no"`
	LoginID   string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserStatus struct {
	LoginID string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (u User) View() UserView {
	return UserView{NumericID: u.NumericID, LoginID: u.LoginID, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

func (u User) Status() UserStatus {
	return UserStatus{LoginID: u.LoginID, Deleted: u.Deleted}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RenewedTokens omits RefreshToken when the presented refresh token is still
// outside its renewal window and should be kept.
type RenewedTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type PermanentToken struct {
	Token string `json:"token"`
}

type AuthSubject struct {
	UserID    string     `json:"user_id"`
	TokenType string     `json:"token_type"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
