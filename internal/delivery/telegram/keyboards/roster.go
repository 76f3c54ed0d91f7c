package keyboards

import (
	"fmt"
	"strconv"

	"gopkg.in/telebot.v3"

	"roster-bot/internal/delivery/telegram/view"
	"roster-bot/internal/domain"
	"roster-bot/pkg/pager"
)

// Callback keys.
const (
	KeySort      = "sort"
	KeyPage      = "page"
	KeyNoop      = "noop"
	KeyRefresh   = "refresh"
	KeyAdd       = "add"
	KeySearch    = "search"
	KeyClear     = "clear_search"
	KeyImport    = "import"
	KeyEdit      = "edit"
	KeyEditField = "edit_field"
	KeyDelete    = "delete"
	KeyConfirm   = "delete_yes"
	KeyCancel    = "cancel"
	KeyNotifs    = "notifs"
	KeyReadAll   = "read_all"
	KeyReadOne   = "read"
	KeyBack      = "back"
)

var sortOrder = []domain.SortField{domain.SortByName, domain.SortByAge, domain.SortByPosition, domain.SortBySalary}

const pageWindow = 5

// Roster builds the dashboard keyboard: sort headers, page navigation and
// the action rows.
func Roster(q domain.ListQuery, totalPages, unread int) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	rows := []telebot.Row{sortRow(markup, q)}
	if totalPages > 1 {
		rows = append(rows, pageRow(markup, q.Page, totalPages))
	}

	search := markup.Data("🔍 Cari", KeySearch)
	if q.Search != "" {
		search = markup.Data("✖️ Hapus cari", KeyClear)
	}
	notifs := "🔔 Notifikasi"
	if unread > 0 {
		notifs = fmt.Sprintf("🔔 Notifikasi (%d)", unread)
	}
	rows = append(rows,
		markup.Row(markup.Data("➕ Tambah", KeyAdd), search, markup.Data("📥 Import CSV", KeyImport)),
		markup.Row(markup.Data("✏️ Edit", KeyEdit), markup.Data("🗑 Hapus", KeyDelete), markup.Data(notifs, KeyNotifs)),
		markup.Row(markup.Data("🔄 Muat ulang", KeyRefresh)),
	)
	markup.Inline(rows...)
	return markup
}

func sortRow(markup *telebot.ReplyMarkup, q domain.ListQuery) telebot.Row {
	row := make(telebot.Row, 0, len(sortOrder))
	for _, f := range sortOrder {
		label := view.SortLabel(f)
		if f == q.Sort {
			label += " " + view.Arrow(q.Direction)
		}
		row = append(row, markup.Data(label, KeySort, string(f)))
	}
	return row
}

func pageRow(markup *telebot.ReplyMarkup, current, total int) telebot.Row {
	prev, next := pager.Neighbors(current, total)
	row := telebot.Row{markup.Data("‹", KeyPage, strconv.Itoa(prev))}
	for _, p := range pager.Window(current, total, pageWindow) {
		label := strconv.Itoa(p)
		if p == current {
			row = append(row, markup.Data("·"+label+"·", KeyNoop))
			continue
		}
		row = append(row, markup.Data(label, KeyPage, label))
	}
	row = append(row, markup.Data("›", KeyPage, strconv.Itoa(next)))
	return row
}

// Cancel is attached to every prompt that waits for typed input.
func Cancel() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("Batal", KeyCancel)))
	return markup
}

func EditFields() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	row := make(telebot.Row, 0, len(sortOrder))
	for _, f := range sortOrder {
		row = append(row, markup.Data(view.SortLabel(f), KeyEditField, string(f)))
	}
	markup.Inline(row, markup.Row(markup.Data("Batal", KeyCancel)))
	return markup
}

func ConfirmDelete(id string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("Ya, hapus", KeyConfirm, id),
		markup.Data("Batal", KeyCancel),
	))
	return markup
}

const maxReadButtons = 5

// Notifications offers mark-all plus one button per newest unread item.
func Notifications(items []domain.NotificationItem) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	var rows []telebot.Row
	unread := 0
	for _, it := range items {
		if it.Read {
			continue
		}
		unread++
		if unread <= maxReadButtons {
			rows = append(rows, markup.Row(markup.Data("✅ "+label(it), KeyReadOne, it.ID)))
		}
	}
	if unread > 0 {
		rows = append([]telebot.Row{markup.Row(markup.Data("✅ Tandai semua dibaca", KeyReadAll))}, rows...)
	}
	rows = append(rows, markup.Row(markup.Data("⬅️ Kembali", KeyBack)))
	markup.Inline(rows...)
	return markup
}

func label(it domain.NotificationItem) string {
	r := []rune(it.Message)
	if len(r) > 32 {
		return string(r[:31]) + "…"
	}
	return string(r)
}
