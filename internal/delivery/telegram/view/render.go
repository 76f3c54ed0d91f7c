package view

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"roster-bot/internal/domain"
)

// MaxMessage stays under Telegram's 4096 character limit.
const MaxMessage = 4000

const (
	nameWidth     = 12
	positionWidth = 10
	salaryWidth   = 14
)

var sortLabels = map[domain.SortField]string{
	domain.SortByName:     "Nama",
	domain.SortByAge:      "Umur",
	domain.SortByPosition: "Posisi",
	domain.SortBySalary:   "Gaji",
}

func SortLabel(f domain.SortField) string {
	return sortLabels[f]
}

func Arrow(d domain.SortDirection) string {
	if d == domain.SortDesc {
		return "↓"
	}
	return "↑"
}

// Stats is the summary shown above the table.
type Stats struct {
	Total     int
	ImportPct int
	Importing bool
	Unread    int
	Notifs    int
}

func RenderStats(s Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 Total karyawan: <b>%s</b>\n", FormatCount(s.Total))
	if s.Importing {
		fmt.Fprintf(&b, "📥 Import: %d%% (perkiraan)\n", s.ImportPct)
	}
	hint := "semua dibaca"
	if s.Unread > 0 {
		hint = fmt.Sprintf("%d baru masuk", s.Unread)
	}
	fmt.Fprintf(&b, "🔔 Notifikasi: %d (%s)\n", s.Notifs, hint)
	return b.String()
}

// RenderRoster renders one page as a fixed-width table and reports how many
// rows it shows. Rows that would push the message past MaxMessage are left
// out and counted in a footer.
func RenderRoster(page domain.EmployeePage, st State, stats Stats) (string, int) {
	q := st.Query
	var head strings.Builder
	head.WriteString("<b>Daftar Karyawan</b>\n")
	head.WriteString(RenderStats(stats))
	if q.Search != "" {
		fmt.Fprintf(&head, "🔍 Cari: <code>%s</code>\n", html.EscapeString(q.Search))
	}
	fmt.Fprintf(&head, "Urut: %s %s · Halaman %d/%d\n",
		SortLabel(q.Sort), Arrow(q.Direction), q.Page, page.TotalPages())
	if st.Processing != "" {
		fmt.Fprintf(&head, "⏳ %s\n", st.Processing)
	}

	if len(page.Items) == 0 {
		head.WriteString("\n<i>Tidak ada data.</i>")
		return head.String(), 0
	}

	header := fmt.Sprintf("%2s %s %4s %s %s\n", "#",
		pad("Nama", nameWidth), "Umur", pad("Posisi", positionWidth), padLeft("Gaji", salaryWidth))

	var footer string
	shown := len(page.Items)
	budget := MaxMessage - utf8.RuneCountInString(head.String()) - len("\n<pre></pre>") - utf8.RuneCountInString(header) - 40
	var rows strings.Builder
	for i, e := range page.Items {
		row := fmt.Sprintf("%2d %s %4d %s %s\n", i+1,
			pad(e.Name, nameWidth), e.Age, pad(e.Position, positionWidth), padLeft(FormatSalary(e.Salary), salaryWidth))
		escaped := html.EscapeString(row)
		if utf8.RuneCountInString(rows.String())+utf8.RuneCountInString(escaped) > budget {
			footer = fmt.Sprintf("… %d baris tidak ditampilkan", len(page.Items)-i)
			shown = i
			break
		}
		rows.WriteString(escaped)
	}

	var b strings.Builder
	b.WriteString(head.String())
	b.WriteString("\n<pre>")
	b.WriteString(html.EscapeString(header))
	b.WriteString(rows.String())
	b.WriteString("</pre>")
	if footer != "" {
		b.WriteString("\n")
		b.WriteString(footer)
	}
	return b.String(), shown
}

// RenderEmployee is the detail card used by the edit and delete dialogs.
func RenderEmployee(e domain.Employee) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(e.Name))
	fmt.Fprintf(&b, "ID: <code>%s</code>\n", html.EscapeString(e.ID))
	fmt.Fprintf(&b, "Umur: %d\n", e.Age)
	fmt.Fprintf(&b, "Posisi: %s\n", html.EscapeString(e.Position))
	fmt.Fprintf(&b, "Gaji: %s\n", FormatSalary(e.Salary))
	if !e.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "Diperbarui: %s\n", e.UpdatedAt.Format("02/01/2006 15:04"))
	}
	return b.String()
}

const panelLimit = 10

// RenderNotifications lists the newest items of the feed.
func RenderNotifications(items []domain.NotificationItem) string {
	if len(items) == 0 {
		return "<b>Notifikasi</b>\n\n<i>Belum ada notifikasi.</i>"
	}
	var b strings.Builder
	b.WriteString("<b>Notifikasi</b>\n")
	for i, it := range items {
		if i == panelLimit {
			fmt.Fprintf(&b, "\n… %d lainnya", len(items)-panelLimit)
			break
		}
		mark := "•"
		if !it.Read {
			mark = "🆕"
		}
		fmt.Fprintf(&b, "\n%s <b>%s</b> <i>%s</i>\n%s\n", mark,
			html.EscapeString(it.Title), it.CreatedAt.Local().Format("02/01 15:04"), html.EscapeString(it.Message))
	}
	return b.String()
}

// RenderPush is the short message sent when a live update arrives.
func RenderPush(it domain.NotificationItem) string {
	return fmt.Sprintf("🔔 <b>%s</b>\n%s", html.EscapeString(it.Title), html.EscapeString(it.Message))
}

func RenderProgress(p int, done bool) string {
	const width = 20
	filled := p * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if done {
		return fmt.Sprintf("📥 Import selesai\n<code>%s</code> %d%%", bar, p)
	}
	return fmt.Sprintf("📥 %s\n<code>%s</code> %d%% (perkiraan)", LabelImport, bar, p)
}

func pad(s string, width int) string {
	s = truncate(s, width)
	return s + strings.Repeat(" ", width-utf8.RuneCountInString(s))
}

func padLeft(s string, width int) string {
	s = truncate(s, width)
	return strings.Repeat(" ", width-utf8.RuneCountInString(s)) + s
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}
