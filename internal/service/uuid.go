package service

import "github.com/google/uuid"

// UUIDGenerator abstracts id generation so tests can produce stable ids.
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator generates random v4 UUIDs.
type DefaultUUIDGenerator struct{}

func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}
