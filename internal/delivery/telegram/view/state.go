package view

import (
	"strings"

	"roster-bot/internal/domain"
)

type Modal int

const (
	ModalNone Modal = iota
	ModalSearch
	ModalAdd
	ModalEdit
	ModalDelete
	ModalImport
	ModalNotifications
)

// Labels shown while a write is in flight.
const (
	LabelImport = "Import in progress"
	LabelCreate = "Membuat data..."
	LabelUpdate = "Memperbarui data..."
	LabelDelete = "Menghapus data..."
)

// State is the per-chat dashboard state. It is never persisted.
type State struct {
	Query      domain.ListQuery
	Modal      Modal
	Target     string
	Processing string
	ImportPct  int
	rows       []string
}

func NewState() State {
	return State{Query: domain.ListQuery{}.Normalize()}
}

// Search replaces the search text and returns to the first page.
func (s *State) Search(text string) {
	s.Query.Search = strings.TrimSpace(text)
	s.Query.Page = 1
}

// ToggleSort flips the direction of the active field or switches to f
// ascending. Either way the listing restarts at page one.
func (s *State) ToggleSort(f domain.SortField) {
	if s.Query.Sort == f {
		s.Query.Direction = s.Query.Direction.Toggle()
	} else {
		s.Query.Sort = f
		s.Query.Direction = domain.SortAsc
	}
	s.Query.Page = 1
}

// GoTo moves to page, clamped to [1, totalPages].
func (s *State) GoTo(page, totalPages int) {
	if totalPages < 1 {
		totalPages = 1
	}
	switch {
	case page < 1:
		page = 1
	case page > totalPages:
		page = totalPages
	}
	s.Query.Page = page
}

func (s *State) Open(m Modal, target string) {
	s.Modal = m
	s.Target = target
}

func (s *State) Close() {
	s.Modal = ModalNone
	s.Target = ""
}

// Remember records the ids of the rows shown on screen so row numbers can be
// resolved later.
func (s *State) Remember(rows []domain.Employee) {
	s.rows = make([]string, 0, len(rows))
	for _, e := range rows {
		s.rows = append(s.rows, e.ID)
	}
}

// RowID resolves a 1-based row number of the last rendered page.
func (s *State) RowID(n int) (string, bool) {
	if n < 1 || n > len(s.rows) {
		return "", false
	}
	return s.rows[n-1], true
}
