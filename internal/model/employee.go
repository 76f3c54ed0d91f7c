package model

import (
	"time"

	"roster-bot/internal/domain"
)

// Employee is the wire shape; timestamps may be missing.
type Employee struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Position  string `json:"position"`
	Salary    int64  `json:"salary"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func (e Employee) ToDomain() domain.Employee {
	return domain.Employee{
		ID:        e.ID,
		Name:      e.Name,
		Age:       e.Age,
		Position:  e.Position,
		Salary:    e.Salary,
		CreatedAt: parseTime(e.CreatedAt),
		UpdatedAt: parseTime(e.UpdatedAt),
	}
}

func EmployeeFromDomain(e domain.Employee) Employee {
	return Employee{
		ID:        e.ID,
		Name:      e.Name,
		Age:       e.Age,
		Position:  e.Position,
		Salary:    e.Salary,
		CreatedAt: formatTime(e.CreatedAt),
		UpdatedAt: formatTime(e.UpdatedAt),
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
