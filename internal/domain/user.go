package domain

import (
	"context"
	"errors"
)

// Role represents a caller's access level
type Role string

const (
	// RoleAdmin decides requests and manages investors, projects and banks
	RoleAdmin Role = "admin"

	// RoleInvestor manages their own portfolio
	RoleInvestor Role = "investor"
)

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleInvestor
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the caller may decide requests.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccessInvestor reports whether the caller may read or act for investorID.
func (p Principal) CanAccessInvestor(investorID string) bool {
	return p.IsAdmin() || p.UserID == investorID
}

type principalKey struct{}

// WithPrincipal stores the caller in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
