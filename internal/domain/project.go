package domain

import (
	"fmt"
	"time"
)

// ProjectStatus represents the lifecycle status of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusPaused    ProjectStatus = "paused"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Project represents an organizational project. The answer pipeline consumes
// projects as read-only context; it never mutates them.
type Project struct {
	ID          string
	Name        string
	Description string
	Status      ProjectStatus
	Lead        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Active reports whether the project is in a non-terminal status.
func (p *Project) Active() bool {
	return p.Status == ProjectStatusActive || p.Status == ProjectStatusPaused
}

// NewProject creates a new Project instance
func NewProject(id, name, description string, status ProjectStatus, lead string, now time.Time) *Project {
	if status == "" {
		status = ProjectStatusActive
	}
	return &Project{
		ID:          id,
		Name:        name,
		Description: description,
		Status:      status,
		Lead:        lead,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ValidateProject validates a Project instance
func ValidateProject(p *Project) error {
	if p == nil {
		return fmt.Errorf("project cannot be nil")
	}

	if p.ID == "" {
		return fmt.Errorf("project ID is required")
	}

	if p.Name == "" {
		return fmt.Errorf("project Name is required")
	}

	if !isValidProjectStatus(p.Status) {
		return fmt.Errorf("project Status is invalid: %s", p.Status)
	}

	return nil
}

// isValidProjectStatus checks if a ProjectStatus is valid
func isValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectStatusActive, ProjectStatusPaused, ProjectStatusCompleted, ProjectStatusArchived:
		return true
	}
	return false
}
