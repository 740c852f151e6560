package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the JWT payload carried by the session cookie.
type SessionClaims struct {
	jwt.RegisteredClaims
	Role       string `json:"role"`
	Identifier string `json:"identifier"`
}
