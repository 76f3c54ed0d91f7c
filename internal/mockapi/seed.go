package mockapi

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"roster-bot/internal/domain"
)

var positions = []string{
	"Product Analyst",
	"Backend Engineer",
	"Frontend Engineer",
	"QA Specialist",
	"Data Scientist",
	"Product Manager",
	"People Ops",
	"Security Engineer",
	"DevOps Engineer",
	"Designer",
}

func seedEmployees(n int, now time.Time) []domain.Employee {
	list := make([]domain.Employee, 0, n)
	for i := 1; i <= n; i++ {
		created := now.Add(-time.Duration(i) * 12 * time.Minute).UTC()
		list = append(list, domain.Employee{
			ID:        uuid.NewString(),
			Name:      fmt.Sprintf("Example %04d", i),
			Age:       21 + (i*7)%25,
			Position:  positions[i%len(positions)],
			Salary:    int64(6000000 + (i*12345)%15000000),
			CreatedAt: created,
			UpdatedAt: created,
		})
	}
	return list
}
