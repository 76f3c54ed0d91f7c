package view

import (
	"github.com/Rhymond/go-money"
)

// Salaries are whole rupiah, grouped id-ID style.
var rupiah = money.AddCurrency("IDR", "Rp", "$ 1", ",", ".", 0)

var plainCount = money.AddCurrency("CNT", "", "1", ",", ".", 0)

func FormatSalary(amount int64) string {
	return money.New(amount, rupiah.Code).Display()
}

// FormatCount groups n with dots, e.g. 12.000.
func FormatCount(n int) string {
	return money.New(int64(n), plainCount.Code).Display()
}
