package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"guestbook/internal/model"
)

var ErrUnauthorized = errors.New("not signed in")

// RemoteError is a failure reported by the server in the error envelope.
type RemoteError struct {
	Code       string
	Message    string
	HTTPStatus int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.HTTPStatus, e.Message)
}

// Client calls the guestbook procedures over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: hc}
}

type envelope struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
	Error *struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		HTTPStatus int    `json:"httpStatus"`
	} `json:"error"`
}

func (c *Client) GetAllMessagesAndNames(ctx context.Context) ([]model.Entry, error) {
	var entries []model.Entry
	if err := c.do(ctx, http.MethodGet, "guestbook.getAllMessagesAndNames", nil, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	return entries, nil
}

func (c *Client) PostMessage(ctx context.Context, name, message string) error {
	in := map[string]string{"name": name, "message": message}
	return c.do(ctx, http.MethodPost, "guestbook.postMessage", in, nil)
}

// Session returns the server's view of the caller, nil when anonymous.
func (c *Client) Session(ctx context.Context) (*model.Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/auth/session", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("session: unexpected status %d", resp.StatusCode)
	}

	var s model.Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	if s.User.Name == "" {
		return nil, nil
	}
	return &s, nil
}

func (c *Client) do(ctx context.Context, method, procedure string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, c.baseURL+"/api/trpc/"+procedure, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", procedure, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: decode response (status %d): %w", procedure, resp.StatusCode, err)
	}
	if env.Error != nil {
		if env.Error.Code == "UNAUTHORIZED" {
			return ErrUnauthorized
		}
		return &RemoteError{Code: env.Error.Code, Message: env.Error.Message, HTTPStatus: env.Error.HTTPStatus}
	}
	if env.Result == nil {
		return fmt.Errorf("%s: empty response", procedure)
	}
	if out != nil && len(env.Result.Data) > 0 {
		if err := json.Unmarshal(env.Result.Data, out); err != nil {
			return fmt.Errorf("%s: decode data: %w", procedure, err)
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}
