package auth

import (
	"github.com/comses/citation/pkg/api/types/misc/rfctime"
)

// TokenRequest is the request body of a token issue.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (tr TokenRequest) Equal(o TokenRequest) bool {
	return tr == o
}

// TokenResponse carries a signed bearer token and when it stops working.
type TokenResponse struct {
	Token     string          `json:"token"`
	ExpiresAt rfctime.RFC3339 `json:"expires_at"`
}

func (tr TokenResponse) Equal(o TokenResponse) bool {
	return tr.Token == o.Token &&
		tr.ExpiresAt.Equal(o.ExpiresAt)
}
