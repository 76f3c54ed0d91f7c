package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster-bot/config"
	"roster-bot/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestClient_UnconfiguredBaseURL(t *testing.T) {
	c := NewClient("")
	_, err := c.ListEmployees(context.Background(), "tok", domain.ListQuery{})
	require.Error(t, err)
	assert.True(t, errors.As(err, &config.ErrNoAPIBaseURL{}))

	_, err = c.PushURL("tok")
	assert.Error(t, err)
}

func TestClient_ListEmployees_QueryAndEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/employee/data", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "80", q.Get("limit"))
		assert.Equal(t, "salary", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("sorttype"))
		assert.Equal(t, "Bob", q.Get("search"))
		_, _ = io.WriteString(w, `{"status":"success","data":[
			{"id":"e1","name":"Bob","age":30,"position":"QA","salary":5000,"created_at":"2024-01-02T03:04:05Z"}
		],"pagination":{"total_data":321,"total_page":5,"page":2,"limit":80}}`)
	})

	page, err := c.ListEmployees(context.Background(), "tok", domain.ListQuery{
		Search: "Bob", Page: 2, Sort: domain.SortBySalary, Direction: domain.SortDesc,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 321, page.Total)
	assert.Equal(t, "Bob", page.Items[0].Name)
	assert.Equal(t, int64(5000), page.Items[0].Salary)
	assert.Equal(t, 2024, page.Items[0].CreatedAt.Year())
	assert.True(t, page.Items[0].UpdatedAt.IsZero())
}

func TestClient_ListEmployees_OmitsEmptySearchAndDefaultsTotal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, has := r.URL.Query()["search"]
		assert.False(t, has)
		_, _ = io.WriteString(w, `{"data":[{"id":"a"},{"id":"b"}]}`)
	})

	page, err := c.ListEmployees(context.Background(), "tok", domain.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/employee/remove" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"status":"error","message":"Data tidak ditemukan"}`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `<html>bad gateway</html>`)
	})

	_, err := c.DeleteEmployees(context.Background(), "tok", []string{"missing"})
	require.Error(t, err)
	assert.Equal(t, "Data tidak ditemukan", err.Error())
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	_, err = c.Notifications(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, "Request failed with status 502", err.Error())
}

func TestClient_MutationsSendJSONArrays(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = append(seen, r.Method+" "+r.URL.Path+" "+string(raw))
		_, _ = io.WriteString(w, `{"data":{"total_queued":1,"modified":3}}`)
	})
	ctx := context.Background()

	n, err := c.CreateEmployees(ctx, "tok", []domain.NewEmployee{{Name: "Bob", Age: 30, Position: "QA", Salary: 5000}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	name := "Robert"
	_, err = c.UpdateEmployees(ctx, "tok", []domain.EmployeePatch{{ID: "e1", Name: &name}})
	require.NoError(t, err)

	_, err = c.DeleteEmployees(ctx, "tok", []string{"e1"})
	require.NoError(t, err)

	modified, err := c.MarkNotificationsRead(ctx, "tok", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, modified)

	assert.Equal(t, []string{
		`POST /employee/add [{"name":"Bob","age":30,"position":"QA","salary":5000}]`,
		`PATCH /employee/update [{"id":"e1","name":"Robert"}]`,
		`DELETE /employee/remove ["e1"]`,
		`PATCH /notifications/read []`,
	}, seen)
}

func TestClient_ImportCSVUsesMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		raw, _ := io.ReadAll(file)
		assert.Equal(t, "roster.csv", header.Filename)
		assert.Equal(t, "name,age\nBob,30\n", string(raw))
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]int{"total_queued": 1}})
	})

	n, err := c.ImportEmployeesCSV(context.Background(), "tok", "roster.csv", strings.NewReader("name,age\nBob,30\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClient_LoginAndProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["password"] != "ok" {
				_, _ = io.WriteString(w, `{"message":"no token here"}`)
				return
			}
			_, _ = io.WriteString(w, `{"data":{"token":"abc"}}`)
		case "/auth/me":
			_, _ = io.WriteString(w, `{}`)
		}
	})
	ctx := context.Background()

	token, err := c.Login(ctx, "a@b.c", "ok")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = c.Login(ctx, "a@b.c", "bad")
	var authErr *domain.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "no token here", authErr.Message)

	_, err = c.Profile(ctx, "abc")
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Profile tidak ditemukan", authErr.Message)
}

func TestClient_PushURL(t *testing.T) {
	c := NewClient("https://api.example.com/v1/")
	u, err := c.PushURL("mock-jwt-1")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.example.com/v1/ws/notifications?token=mock-jwt-1", u)

	c = NewClient("http://api", WithPushURL("ws://push.example.com/stream"))
	u, err = c.PushURL("a b")
	require.NoError(t, err)
	assert.Equal(t, "ws://push.example.com/stream?token=a+b", u)
}
