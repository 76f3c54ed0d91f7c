package domain

import (
	"context"
	"io"
	"strings"
	"time"
)

// PageSize is fixed for every roster listing.
const PageSize = 80

type Employee struct {
	ID        string
	Name      string
	Age       int
	Position  string
	Salary    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type NewEmployee struct {
	Name     string `json:"name" validate:"required,max=120"`
	Age      int    `json:"age" validate:"gte=0,lte=150"`
	Position string `json:"position" validate:"required,max=120"`
	Salary   int64  `json:"salary" validate:"gte=0"`
}

// EmployeePatch carries only the fields being changed.
type EmployeePatch struct {
	ID       string  `json:"id" validate:"required"`
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Age      *int    `json:"age,omitempty" validate:"omitempty,gte=0,lte=150"`
	Position *string `json:"position,omitempty" validate:"omitempty,min=1,max=120"`
	Salary   *int64  `json:"salary,omitempty" validate:"omitempty,gte=0"`
}

func (p EmployeePatch) Empty() bool {
	return p.Name == nil && p.Age == nil && p.Position == nil && p.Salary == nil
}

type SortField string

const (
	SortByName     SortField = "name"
	SortByAge      SortField = "age"
	SortByPosition SortField = "position"
	SortBySalary   SortField = "salary"
)

func ParseSortField(s string) (SortField, bool) {
	switch SortField(strings.ToLower(strings.TrimSpace(s))) {
	case SortByName:
		return SortByName, true
	case SortByAge:
		return SortByAge, true
	case SortByPosition:
		return SortByPosition, true
	case SortBySalary:
		return SortBySalary, true
	}
	return "", false
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func (d SortDirection) Toggle() SortDirection {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// ListQuery is the full key of a roster listing.
type ListQuery struct {
	Search    string
	Page      int
	Sort      SortField
	Direction SortDirection
}

func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	q.Search = strings.TrimSpace(q.Search)
	sort, ok := ParseSortField(string(q.Sort))
	if !ok {
		sort = SortByName
	}
	q.Sort = sort
	if q.Direction != SortDesc {
		q.Direction = SortAsc
	}
	return q
}

type EmployeePage struct {
	Items []Employee
	Total int
}

// TotalPages is never less than one.
func (p EmployeePage) TotalPages() int {
	pages := (p.Total + PageSize - 1) / PageSize
	if pages < 1 {
		return 1
	}
	return pages
}

type EmployeeRepo interface {
	ListEmployees(ctx context.Context, token string, q ListQuery) (EmployeePage, error)
	CreateEmployees(ctx context.Context, token string, rows []NewEmployee) (int, error)
	UpdateEmployees(ctx context.Context, token string, patches []EmployeePatch) (int, error)
	DeleteEmployees(ctx context.Context, token string, ids []string) (int, error)
	ImportEmployeesCSV(ctx context.Context, token, filename string, r io.Reader) (int, error)
}
