package keyboards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster-bot/internal/domain"
)

func TestRoster_SortRowMarksActiveField(t *testing.T) {
	q := domain.ListQuery{Page: 1, Sort: domain.SortBySalary, Direction: domain.SortDesc}
	kb := Roster(q, 1, 0)

	sortRow := kb.InlineKeyboard[0]
	require.Len(t, sortRow, 4)
	assert.Equal(t, "Nama", sortRow[0].Text)
	assert.Equal(t, "Gaji ↓", sortRow[3].Text)
	assert.Equal(t, KeySort, sortRow[3].Unique)
	assert.Equal(t, "salary", sortRow[3].Data)

	// single page: no navigation row
	assert.Len(t, kb.InlineKeyboard, 4)
}

func TestRoster_PageRow(t *testing.T) {
	kb := Roster(domain.ListQuery{Page: 10, Sort: domain.SortByName, Direction: domain.SortAsc}, 150, 3)

	nav := kb.InlineKeyboard[1]
	require.Len(t, nav, 7)
	assert.Equal(t, "9", nav[0].Data)
	assert.Equal(t, "8", nav[1].Text)
	assert.Equal(t, "·10·", nav[3].Text)
	assert.Equal(t, KeyNoop, nav[3].Unique)
	assert.Equal(t, "11", nav[6].Data)

	assert.Equal(t, "🔔 Notifikasi (3)", kb.InlineKeyboard[3][2].Text)
}

func TestRoster_SearchToggle(t *testing.T) {
	kb := Roster(domain.ListQuery{Page: 1, Search: "bob"}, 1, 0)
	assert.Equal(t, KeyClear, kb.InlineKeyboard[1][1].Unique)
}

func TestNotifications(t *testing.T) {
	items := []domain.NotificationItem{
		{ID: "a", Message: "Profil Bob selesai diproses."},
		{ID: "b", Message: "Data lama", Read: true},
	}
	kb := Notifications(items)
	require.Len(t, kb.InlineKeyboard, 3)
	assert.Equal(t, KeyReadAll, kb.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "a", kb.InlineKeyboard[1][0].Data)
	assert.Equal(t, KeyBack, kb.InlineKeyboard[2][0].Unique)

	kb = Notifications(nil)
	require.Len(t, kb.InlineKeyboard, 1)
}

func TestConfirmDelete(t *testing.T) {
	kb := ConfirmDelete("e1")
	assert.Equal(t, KeyConfirm, kb.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "e1", kb.InlineKeyboard[0][0].Data)
}
