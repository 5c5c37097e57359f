package model

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// UpdateUserRequest is a partial update; omitted or empty fields are ignored.
type UpdateUserRequest struct {
	Password *string `json:"password"`
}
