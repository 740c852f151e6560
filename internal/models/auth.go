package models

import (
	"fmt"
	"time"
)

// Channel selects how a verification code is delivered and which account
// identifier it proves control of.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// ParseChannel parses the {email|phone} path segment.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelEmail, ChannelPhone:
		return Channel(s), nil
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

// Mode is the action a verification session was started for. It decides
// which precondition send-code enforces and which terminal step the flow
// has.
type Mode string

const (
	ModeLogin  Mode = "login"
	ModeSignup Mode = "signup"
	ModeVerify Mode = "verify"
)

// ParseMode parses the action query parameter.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLogin, ModeSignup, ModeVerify:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// ActorKind selects the role-scoped endpoint set. The three prefixes are
// handled by one route group parameterized by the actor.
type ActorKind string

const (
	ActorUser       ActorKind = "user"
	ActorAdmin      ActorKind = "admin"
	ActorSuperAdmin ActorKind = "super-admin"
)

// Prefix returns the URL prefix for the actor's endpoint set.
func (a ActorKind) Prefix() string {
	return "/" + string(a)
}

// Role returns the account role a registration through this actor's
// endpoints is assigned.
func (a ActorKind) Role() string {
	return string(a)
}

// Verification configuration
const (
	VerificationCodeLength  = 6
	MaxVerificationAttempts = 3
)

// CodeEntry is the redis-stored state of one issued verification code.
type CodeEntry struct {
	Code     string    `json:"code"`
	Attempts int       `json:"attempts"`
	IssuedAt time.Time `json:"issued_at"`
}

// SendCodeRequest is the body of POST {prefix}/auth/{channel}/send-code.
// Exactly one of Email/PhoneNumber is set, matching the channel.
type SendCodeRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// Identifier returns the raw identifier for the given channel.
func (r *SendCodeRequest) Identifier(channel Channel) string {
	if channel == ChannelEmail {
		return r.Email
	}
	return r.PhoneNumber
}

// VerifyCodeRequest is the body of POST {prefix}/auth/{channel}/verify-code.
type VerifyCodeRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code" binding:"required"`
}

// Identifier returns the raw identifier for the given channel.
func (r *VerifyCodeRequest) Identifier(channel Channel) string {
	if channel == ChannelEmail {
		return r.Email
	}
	return r.PhoneNumber
}

// RegisterRequest is the body of POST {prefix}/auth/{channel}/register.
// Password is optional: phone-first accounts may not set one.
type RegisterRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	Gender      string `json:"gender" binding:"omitempty,oneof=male female other"`
}

// Identifier returns the raw identifier for the given channel.
func (r *RegisterRequest) Identifier(channel Channel) string {
	if channel == ChannelEmail {
		return r.Email
	}
	return r.PhoneNumber
}

// LoginRequest is the body of POST {prefix}/login (password login).
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Profile carries the extra fields collected on the signup profile step.
type Profile struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
	Gender   string `json:"gender,omitempty"`
}
