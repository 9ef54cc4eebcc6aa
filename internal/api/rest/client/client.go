// Package client implements a client for the EarnHub REST API.
package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modeldto"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Reason  string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Reason, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Client defines attributes of a struct available to its methods.
type Client struct {
	client *resty.Client
	log    *zerolog.Logger
}

// InitClient initializes a resty client for the API at baseURL.
func InitClient(baseURL, token string, log *zerolog.Logger) *Client {
	c := resty.New().SetBaseURL(baseURL).SetHeader("Accept", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	log.Debug().Str("url", baseURL).Msg("api client initialized")
	return &Client{client: c, log: log}
}

// SetToken replaces the bearer token sent with each request.
func (c *Client) SetToken(token string) {
	c.client.SetAuthToken(token)
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	req := c.client.R().SetContext(ctx).SetError(&modeldto.Error{})
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	c.log.Debug().Str("method", method).Str("path", path).Msg("sending request")
	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Err(err).Str("path", path).Msg("request failed")
		return err
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Message: resp.Status()}
		if e, ok := resp.Error().(*modeldto.Error); ok && e.Message != "" {
			apiErr.Message = e.Message
			apiErr.Reason = e.Reason
		}
		return apiErr
	}
	return nil
}

func withStatus(path, status string) string {
	if status == "" {
		return path
	}
	return path + "?status=" + url.QueryEscape(status)
}

func (c *Client) Register(ctx context.Context, r modeldto.Registration) (*modeldto.Auth, error) {
	var auth modeldto.Auth
	if err := c.do(ctx, resty.MethodPost, "/api/user/register", r, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*modeldto.Auth, error) {
	var auth modeldto.Auth
	if err := c.do(ctx, resty.MethodPost, "/api/user/login", modeldto.Credentials{Email: email, Password: password}, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

func (c *Client) Profile(ctx context.Context) (*modeldto.User, error) {
	var user modeldto.User
	if err := c.do(ctx, resty.MethodGet, "/api/user/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Tasks(ctx context.Context) ([]modeldto.Task, error) {
	var tasks []modeldto.Task
	err := c.do(ctx, resty.MethodGet, "/api/tasks", nil, &tasks)
	return tasks, err
}

func (c *Client) Submit(ctx context.Context, taskID, proof string) (*modeldto.Submission, error) {
	var s modeldto.Submission
	if err := c.do(ctx, resty.MethodPost, "/api/user/submissions", modeldto.NewSubmission{TaskID: taskID, Proof: proof}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Submissions(ctx context.Context) ([]modeldto.Submission, error) {
	var submissions []modeldto.Submission
	err := c.do(ctx, resty.MethodGet, "/api/user/submissions", nil, &submissions)
	return submissions, err
}

func (c *Client) Withdraw(ctx context.Context, w modeldto.NewWithdrawal) (*modeldto.Transaction, error) {
	var tx modeldto.Transaction
	if err := c.do(ctx, resty.MethodPost, "/api/user/balance/withdraw", w, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) Transactions(ctx context.Context) ([]modeldto.Transaction, error) {
	var txs []modeldto.Transaction
	err := c.do(ctx, resty.MethodGet, "/api/user/transactions", nil, &txs)
	return txs, err
}

func (c *Client) Review(ctx context.Context, submissionID string, review modeldto.Review) (*modeldto.Submission, error) {
	var s modeldto.Submission
	if err := c.do(ctx, resty.MethodPut, "/api/admin/submissions/"+url.PathEscape(submissionID), review, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Finalize(ctx context.Context, transactionID, status string) (*modeldto.Transaction, error) {
	var tx modeldto.Transaction
	if err := c.do(ctx, resty.MethodPut, "/api/admin/withdrawals/"+url.PathEscape(transactionID), modeldto.Finalization{Status: status}, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) AdminSubmissions(ctx context.Context, status string) ([]modeldto.Submission, error) {
	var submissions []modeldto.Submission
	err := c.do(ctx, resty.MethodGet, withStatus("/api/admin/submissions", status), nil, &submissions)
	return submissions, err
}

func (c *Client) AdminWithdrawals(ctx context.Context, status string) ([]modeldto.Transaction, error) {
	var txs []modeldto.Transaction
	err := c.do(ctx, resty.MethodGet, withStatus("/api/admin/withdrawals", status), nil, &txs)
	return txs, err
}

func (c *Client) AdminUsers(ctx context.Context) ([]modeldto.User, error) {
	var users []modeldto.User
	err := c.do(ctx, resty.MethodGet, "/api/admin/users", nil, &users)
	return users, err
}

func (c *Client) Audit(ctx context.Context, userID string) (*modeldto.AuditReport, error) {
	var report modeldto.AuditReport
	if err := c.do(ctx, resty.MethodGet, "/api/admin/users/"+url.PathEscape(userID)+"/audit", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) AdminTasks(ctx context.Context) ([]modeldto.Task, error) {
	var tasks []modeldto.Task
	err := c.do(ctx, resty.MethodGet, "/api/admin/tasks", nil, &tasks)
	return tasks, err
}

func (c *Client) CreateTask(ctx context.Context, draft modeldto.TaskDraft) (*modeldto.Task, error) {
	var task modeldto.Task
	if err := c.do(ctx, resty.MethodPost, "/api/admin/tasks", draft, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeactivateTask(ctx context.Context, taskID string) (*modeldto.Task, error) {
	var task modeldto.Task
	if err := c.do(ctx, resty.MethodDelete, "/api/admin/tasks/"+url.PathEscape(taskID), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}
