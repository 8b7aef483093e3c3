package handler

import (
	"time"

	"usersvc/internal/model"
)

// UserPostRequest represents a user registration request.
type UserPostRequest struct {
	Username string `json:"username" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
	BirthDay string `json:"birthDay"`
}

// UserPutRequest represents a profile edit request.
type UserPutRequest struct {
	Username string `json:"username" validate:"required"`
	Name     string `json:"name" validate:"required"`
	BirthDay string `json:"birthDay"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LogoutRequest identifies the user to log out, by token or by credentials.
type LogoutRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// TokenRequest carries a session token.
type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID           uint             `json:"id"`
	Name         string           `json:"name"`
	Username     string           `json:"username"`
	Token        string           `json:"token,omitempty"`
	Status       model.UserStatus `json:"status"`
	CreationDate *time.Time       `json:"creationDate,omitempty"`
	BirthDay     *string          `json:"birthDay,omitempty"`
}

// userFields selects the optional parts of a UserResponse.
type userFields uint8

const (
	withToken userFields = 1 << iota
	withDates

	summaryFields = userFields(0)
	detailFields  = withToken | withDates
)

func toUserResponse(u *model.User, fields userFields) UserResponse {
	resp := UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Status:   u.Status,
	}
	if fields&withToken != 0 {
		resp.Token = u.Token
	}
	if fields&withDates != 0 {
		created := u.CreationDate
		birthDay := u.BirthDay
		resp.CreationDate = &created
		resp.BirthDay = &birthDay
	}
	return resp
}

func toUserResponses(users []model.User, fields userFields) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i], fields))
	}
	return out
}
