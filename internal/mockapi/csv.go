package mockapi

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"roster-bot/internal/domain"
)

// parseCSV reads name,age,position,salary rows. A leading header row is
// skipped; rows that do not validate are counted and dropped.
func parseCSV(r io.Reader, v *validator.Validate) ([]domain.NewEmployee, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []domain.NewEmployee
	skipped := 0
	first := true
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, skipped, err
		}
		if first {
			first = false
			if len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "name") {
				continue
			}
		}
		row, ok := parseRow(rec)
		if !ok || v.Struct(row) != nil {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func parseRow(rec []string) (domain.NewEmployee, bool) {
	if len(rec) < 4 {
		return domain.NewEmployee{}, false
	}
	age, err := strconv.Atoi(strings.TrimSpace(rec[1]))
	if err != nil {
		return domain.NewEmployee{}, false
	}
	salary, err := strconv.ParseInt(strings.TrimSpace(rec[3]), 10, 64)
	if err != nil {
		return domain.NewEmployee{}, false
	}
	return domain.NewEmployee{
		Name:     strings.TrimSpace(rec[0]),
		Age:      age,
		Position: strings.TrimSpace(rec[2]),
		Salary:   salary,
	}, true
}
