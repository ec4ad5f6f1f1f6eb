package model

import "fmt"

// Role is the closed set of account roles. Authorization compares Role
// values, never raw strings; ParseRole is the only way in from the wire.
type Role string

const (
	RoleClient   Role = "client"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// ParseRole validates a raw role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClient, RoleEmployee, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// String returns the wire representation.
func (r Role) String() string { return string(r) }
