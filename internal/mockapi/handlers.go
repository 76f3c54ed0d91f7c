package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"roster-bot/internal/domain"
	"roster-bot/internal/model"
)

const (
	msgBadCredentials = "Email atau password salah"
	msgNotFound       = "Data tidak ditemukan"
	msgUnauthorized   = "Unauthorized"
	msgBadPayload     = "Payload tidak valid"
	maxLimit          = 500
)

func writeJSON[T any](w http.ResponseWriter, status int, env model.Envelope[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeData[T any](w http.ResponseWriter, data T, pagination *model.Pagination) {
	writeJSON(w, http.StatusOK, model.Envelope[T]{Status: "success", Data: &data, Pagination: pagination})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.Envelope[struct{}]{Status: "error", Message: message})
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.validToken(bearer(r)) {
			writeError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadPayload)
		return
	}
	if req.Email != AdminEmail || bcrypt.CompareHashAndPassword(s.pwHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}
	token := TokenPrefix + uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = struct{}{}
	s.mu.Unlock()
	s.log.WithField("email", req.Email).Info("login")
	writeData(w, model.LoginData{Token: token}, nil)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeData(w, model.ProfileData{Username: AdminName, Role: "admin"}, nil)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	limit := atoiDefault(q.Get("limit"), domain.PageSize)
	if limit < 1 || limit > maxLimit {
		limit = domain.PageSize
	}
	term := strings.ToLower(strings.TrimSpace(q.Get("search")))

	s.mu.RLock()
	filtered := make([]domain.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		if term == "" || matches(e, term) {
			filtered = append(filtered, e)
		}
	}
	s.mu.RUnlock()

	if field, ok := domain.ParseSortField(q.Get("sort")); ok {
		sortEmployees(filtered, field, q.Get("sorttype") == string(domain.SortDesc))
	}

	total := len(filtered)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	out := make([]model.Employee, 0, end-start)
	for _, e := range filtered[start:end] {
		out = append(out, model.EmployeeFromDomain(e))
	}
	writeData(w, out, &model.Pagination{
		TotalData: total,
		TotalPage: (total + limit - 1) / limit,
		Page:      page,
		Limit:     limit,
	})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var rows []domain.NewEmployee
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil || len(rows) == 0 {
		writeError(w, http.StatusBadRequest, msgBadPayload)
		return
	}
	for _, row := range rows {
		if err := s.validate.Struct(row); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Data tidak valid: %s", row.Name))
			return
		}
	}
	created := s.insert(rows)
	for _, e := range created {
		s.scheduleNotification(fmt.Sprintf("Profil %s selesai diproses.", e.Name))
	}
	writeData(w, model.QueuedData{TotalQueued: len(created)}, nil)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patches []domain.EmployeePatch
	if err := json.NewDecoder(r.Body).Decode(&patches); err != nil || len(patches) == 0 {
		writeError(w, http.StatusBadRequest, msgBadPayload)
		return
	}
	for _, p := range patches {
		if err := s.validate.Struct(p); err != nil {
			writeError(w, http.StatusBadRequest, msgBadPayload)
			return
		}
	}

	now := s.opts.Now().UTC()
	s.mu.Lock()
	idx := make([]int, len(patches))
	for i, p := range patches {
		idx[i] = s.indexLocked(p.ID)
		if idx[i] < 0 {
			s.mu.Unlock()
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		}
	}
	names := make([]string, 0, len(patches))
	for i, p := range patches {
		e := &s.employees[idx[i]]
		applyPatch(e, p)
		if now.After(e.UpdatedAt) {
			e.UpdatedAt = now
		}
		names = append(names, e.Name)
	}
	s.mu.Unlock()

	for _, name := range names {
		s.scheduleNotification(fmt.Sprintf("Perubahan %s dikonfirmasi.", name))
	}
	writeData(w, model.QueuedData{TotalQueued: len(patches)}, nil)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil || len(ids) == 0 {
		writeError(w, http.StatusBadRequest, msgBadPayload)
		return
	}

	s.mu.Lock()
	for _, id := range ids {
		if s.indexLocked(id) < 0 {
			s.mu.Unlock()
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		}
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := s.employees[:0]
	var names []string
	for _, e := range s.employees {
		if _, ok := drop[e.ID]; ok {
			names = append(names, e.Name)
			continue
		}
		kept = append(kept, e)
	}
	s.employees = kept
	s.mu.Unlock()

	for _, name := range names {
		s.scheduleNotification(fmt.Sprintf("Data %s dihapus.", name))
	}
	writeData(w, model.QueuedData{TotalQueued: len(names)}, nil)
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File tidak ditemukan")
		return
	}
	defer file.Close()

	rows, skipped, err := parseCSV(file, s.validate)
	if err != nil || len(rows) == 0 {
		writeError(w, http.StatusBadRequest, "File CSV tidak berisi data valid")
		return
	}
	created := s.insert(rows)
	s.log.WithFields(logrus.Fields{"rows": len(created), "skipped": skipped}).Info("csv imported")
	s.scheduleNotification(fmt.Sprintf("Import batch (%d data) selesai.", len(created)))
	writeData(w, model.QueuedData{TotalQueued: len(created)}, nil)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	items := make([]domain.NotificationItem, len(s.notifications))
	copy(items, s.notifications)
	s.mu.RUnlock()
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	writeData(w, items, nil)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
		writeError(w, http.StatusBadRequest, msgBadPayload)
		return
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	modified := 0
	s.mu.Lock()
	for i := range s.notifications {
		n := &s.notifications[i]
		if _, ok := want[n.ID]; (ok || len(want) == 0) && !n.Read {
			n.Read = true
			modified++
		}
	}
	s.mu.Unlock()
	writeData(w, model.ModifiedData{Modified: modified}, nil)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	if !s.validToken(r.URL.Query().Get("token")) {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("push upgrade failed")
		return
	}
	s.hub.add(conn)
	defer func() {
		s.hub.remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) pushNotification(message string) domain.NotificationItem {
	item := domain.NotificationItem{
		ID:        uuid.NewString(),
		Title:     "Job Update",
		Message:   message,
		CreatedAt: s.opts.Now().UTC(),
	}
	s.mu.Lock()
	s.notifications = append([]domain.NotificationItem{item}, s.notifications...)
	s.mu.Unlock()

	data, _ := json.Marshal(item)
	s.hub.broadcast(model.PushEvent{Type: model.PushTypeNotification, Data: data})
	return item
}

func (s *Server) insert(rows []domain.NewEmployee) []domain.Employee {
	now := s.opts.Now().UTC()
	created := make([]domain.Employee, 0, len(rows))
	for _, row := range rows {
		created = append(created, domain.Employee{
			ID:        uuid.NewString(),
			Name:      row.Name,
			Age:       row.Age,
			Position:  row.Position,
			Salary:    row.Salary,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	s.mu.Lock()
	s.employees = append(append(make([]domain.Employee, 0, len(created)+len(s.employees)), created...), s.employees...)
	s.mu.Unlock()
	return created
}

func (s *Server) indexLocked(id string) int {
	for i, e := range s.employees {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func applyPatch(e *domain.Employee, p domain.EmployeePatch) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Age != nil {
		e.Age = *p.Age
	}
	if p.Position != nil {
		e.Position = *p.Position
	}
	if p.Salary != nil {
		e.Salary = *p.Salary
	}
}

func matches(e domain.Employee, term string) bool {
	return strings.Contains(strings.ToLower(e.Name), term) ||
		strings.Contains(strings.ToLower(e.Position), term) ||
		strings.Contains(strconv.Itoa(e.Age), term)
}

func sortEmployees(list []domain.Employee, field domain.SortField, desc bool) {
	less := func(a, b domain.Employee) bool {
		switch field {
		case domain.SortByAge:
			return a.Age < b.Age
		case domain.SortByPosition:
			return strings.ToLower(a.Position) < strings.ToLower(b.Position)
		case domain.SortBySalary:
			return a.Salary < b.Salary
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if desc {
			return less(list[j], list[i])
		}
		return less(list[i], list[j])
	})
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
