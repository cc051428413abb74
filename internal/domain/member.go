package domain

import (
	"fmt"
	"time"
)

// MemberStatus represents whether a member is currently active
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// Member represents a member of the organization roster. Like projects,
// members are read-only inputs to context assembly.
type Member struct {
	ID         string
	Name       string
	Role       string
	Department string
	Status     MemberStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewMember creates a new Member instance
func NewMember(id, name, role, department string, status MemberStatus, now time.Time) *Member {
	if status == "" {
		status = MemberStatusActive
	}
	return &Member{
		ID:         id,
		Name:       name,
		Role:       role,
		Department: department,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ValidateMember validates a Member instance
func ValidateMember(m *Member) error {
	if m == nil {
		return fmt.Errorf("member cannot be nil")
	}

	if m.ID == "" {
		return fmt.Errorf("member ID is required")
	}

	if m.Name == "" {
		return fmt.Errorf("member Name is required")
	}

	if m.Status != MemberStatusActive && m.Status != MemberStatusInactive {
		return fmt.Errorf("member Status is invalid: %s", m.Status)
	}

	return nil
}
