package flows

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"roster-bot/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// maxRows bounds one add dialog submission.
const maxRows = 50

// ParseRows reads one employee per line as "name; age; position; salary".
// Blank lines are skipped.
func ParseRows(text string) ([]domain.NewEmployee, error) {
	var rows []domain.NewEmployee
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ";")
		if len(parts) != 4 {
			return nil, errors.Errorf("Baris %d: format harus nama; umur; posisi; gaji", i+1)
		}
		for j := range parts {
			parts[j] = strings.TrimSpace(parts[j])
		}
		age, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, errors.Errorf("Baris %d: umur harus angka", i+1)
		}
		salary, err := ParseSalary(parts[3])
		if err != nil {
			return nil, errors.Errorf("Baris %d: gaji harus angka", i+1)
		}
		row := domain.NewEmployee{Name: parts[0], Age: age, Position: parts[2], Salary: salary}
		if err := validate.Struct(row); err != nil {
			return nil, errors.Errorf("Baris %d: %s", i+1, describe(err))
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, errors.New("Tidak ada baris data")
	}
	if len(rows) > maxRows {
		return nil, errors.Errorf("Maksimal %d baris sekaligus", maxRows)
	}
	return rows, nil
}

// ParseSalary accepts plain digits or id-ID grouping, with or without "Rp".
func ParseSalary(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Rp"), "rp")
	s = strings.NewReplacer(".", "", ",", "", " ", "").Replace(s)
	return strconv.ParseInt(s, 10, 64)
}

// ParsePatch builds a single-field patch for id from typed input.
func ParsePatch(id string, field domain.SortField, text string) (domain.EmployeePatch, error) {
	text = strings.TrimSpace(text)
	patch := domain.EmployeePatch{ID: id}
	switch field {
	case domain.SortByName:
		patch.Name = &text
	case domain.SortByPosition:
		patch.Position = &text
	case domain.SortByAge:
		age, err := strconv.Atoi(text)
		if err != nil {
			return patch, errors.New("Umur harus angka")
		}
		patch.Age = &age
	case domain.SortBySalary:
		salary, err := ParseSalary(text)
		if err != nil {
			return patch, errors.New("Gaji harus angka")
		}
		patch.Salary = &salary
	default:
		return patch, errors.Errorf("Kolom %q tidak dikenal", field)
	}
	if err := validate.Struct(patch); err != nil {
		return patch, errors.New(describe(err))
	}
	return patch, nil
}

// ParseLogin splits "/login email password" arguments.
func ParseLogin(args []string) (email, password string, err error) {
	if len(args) != 2 {
		return "", "", errors.New("Format: /login email password")
	}
	email = strings.TrimSpace(args[0])
	if err := validate.Var(email, "required,email"); err != nil {
		return "", "", errors.New("Email tidak valid")
	}
	return email, args[1], nil
}

var fieldNames = map[string]string{
	"Name":     "nama",
	"Age":      "umur",
	"Position": "posisi",
	"Salary":   "gaji",
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	name := fieldNames[fe.Field()]
	if name == "" {
		name = strings.ToLower(fe.Field())
	}
	switch fe.Tag() {
	case "required", "min":
		return fmt.Sprintf("%s wajib diisi", name)
	case "max":
		return fmt.Sprintf("%s terlalu panjang", name)
	case "lte":
		return fmt.Sprintf("%s terlalu besar", name)
	case "gte":
		return fmt.Sprintf("%s tidak boleh negatif", name)
	}
	return fmt.Sprintf("%s tidak valid", name)
}
