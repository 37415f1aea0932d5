package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Role represents a principal's role in the system
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole converts a stored role value to a Role.
// Anything that is not exactly "admin" resolves to RoleUser.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// AccountStatus represents whether a principal may use the platform
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// Principal is an authenticated actor resolved by the identity gate
type Principal struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	Role          Role          `json:"role"`
	AccountStatus AccountStatus `json:"account_status"`
}

// IsAdmin reports whether the principal holds the admin role
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// IsActive reports whether the principal's account is active
func (p *Principal) IsActive() bool {
	return p != nil && p.AccountStatus != AccountInactive
}

// RequestKind distinguishes deposit and withdrawal requests
type RequestKind string

const (
	KindDeposit    RequestKind = "deposit"
	KindWithdrawal RequestKind = "withdrawal"
)

// RequestStatus is the lifecycle state of a monetary request
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"  // withdrawals
	StatusConfirmed RequestStatus = "confirmed" // deposits
	StatusRejected  RequestStatus = "rejected"
)

// IsTerminal reports whether no further transition is allowed
func (s RequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusConfirmed || s == StatusRejected
}

// ApprovedStatus returns the terminal-approved status for a request kind
func (k RequestKind) ApprovedStatus() RequestStatus {
	if k == KindDeposit {
		return StatusConfirmed
	}
	return StatusApproved
}

// Decision is the outcome of an admin adjudication
type Decision struct {
	Kind        RequestKind
	RequestID   string
	UserID      string
	Amount      decimal.Decimal
	Status      RequestStatus
	ProcessedBy string
	ProcessedAt time.Time
	// BalanceAfter is only set when the decision moved money
	BalanceAfter *decimal.Decimal
}
