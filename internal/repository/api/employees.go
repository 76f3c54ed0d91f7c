package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"roster-bot/internal/domain"
	"roster-bot/internal/model"
)

func (c *Client) ListEmployees(ctx context.Context, token string, q domain.ListQuery) (domain.EmployeePage, error) {
	q = q.Normalize()
	values := url.Values{}
	values.Set("page", strconv.Itoa(q.Page))
	values.Set("limit", strconv.Itoa(domain.PageSize))
	values.Set("sort", string(q.Sort))
	values.Set("sorttype", string(q.Direction))
	if q.Search != "" {
		values.Set("search", q.Search)
	}

	env, err := do[[]model.Employee](ctx, c, request{
		method: http.MethodGet,
		path:   "/employee/data?" + values.Encode(),
		token:  token,
	})
	if err != nil {
		return domain.EmployeePage{}, err
	}

	var items []domain.Employee
	if env.Data != nil {
		items = make([]domain.Employee, 0, len(*env.Data))
		for _, e := range *env.Data {
			items = append(items, e.ToDomain())
		}
	}
	total := len(items)
	if env.Pagination != nil {
		total = env.Pagination.TotalData
	}
	return domain.EmployeePage{Items: items, Total: total}, nil
}

func (c *Client) CreateEmployees(ctx context.Context, token string, rows []domain.NewEmployee) (int, error) {
	return queued(ctx, c, request{
		method: http.MethodPost,
		path:   "/employee/add",
		token:  token,
		body:   rows,
	})
}

func (c *Client) UpdateEmployees(ctx context.Context, token string, patches []domain.EmployeePatch) (int, error) {
	return queued(ctx, c, request{
		method: http.MethodPatch,
		path:   "/employee/update",
		token:  token,
		body:   patches,
	})
}

func (c *Client) DeleteEmployees(ctx context.Context, token string, ids []string) (int, error) {
	return queued(ctx, c, request{
		method: http.MethodDelete,
		path:   "/employee/remove",
		token:  token,
		body:   ids,
	})
}

// ImportEmployeesCSV uploads the raw file as the multipart field "file".
func (c *Client) ImportEmployeesCSV(ctx context.Context, token, filename string, r io.Reader) (int, error) {
	return queued(ctx, c, request{
		method: http.MethodPost,
		path:   "/employee/add/csv",
		token:  token,
		form:   &formFile{field: "file", filename: filename, r: r},
	})
}

func queued(ctx context.Context, c *Client, req request) (int, error) {
	env, err := do[model.QueuedData](ctx, c, req)
	if err != nil {
		return 0, err
	}
	if env.Data == nil {
		return 0, nil
	}
	return env.Data.TotalQueued, nil
}
