package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	appLog "partyplanner/internal/log"
	"partyplanner/internal/model"
)

// ErrMissingData is returned when a response envelope has no "data" member.
var ErrMissingData = errors.New("response has no data")

// StatusError reports a non-2xx response from the party API.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Status)
}

// envelope is the shape of every JSON response body: {"data": ...}.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Options tunes a Client. Zero values select defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// HTTPClient replaces the default client (used by tests).
	HTTPClient *http.Client
}

// Client talks to the party REST API rooted at a base URL that already
// includes the cohort segment.
type Client struct {
	client *http.Client
	root   string
}

// userAgentTransport sets the User-Agent on every outgoing request.
type userAgentTransport struct {
	userAgent string
	next      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(req)
}

// NewClient creates a Client for the API at root, e.g.
// "https://fsa-crud-2aa9294fe819.herokuapp.com/api/2508-FTB-ET-WEB-FT".
func NewClient(root string, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		ua := opts.UserAgent
		if ua == "" {
			ua = "partyplanner/1.0"
		}
		hc = &http.Client{
			Timeout:   timeout,
			Transport: &userAgentTransport{userAgent: ua, next: http.DefaultTransport},
		}
	}
	return &Client{
		client: hc,
		root:   strings.TrimRight(root, "/"),
	}
}

// Root returns the API root the client was built with.
func (c *Client) Root() string { return c.root }

func (c *Client) ListParties(ctx context.Context) ([]model.Party, error) {
	var out []model.Party
	if err := c.getData(ctx, "/events", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateParty posts draft and returns the party as stored by the server.
func (c *Client) CreateParty(ctx context.Context, draft model.PartyDraft) (model.Party, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return model.Party{}, err
	}
	var out model.Party
	if err := c.doData(ctx, http.MethodPost, "/events", body, &out); err != nil {
		return model.Party{}, err
	}
	return out, nil
}

func (c *Client) GetParty(ctx context.Context, id int) (model.Party, error) {
	var out model.Party
	if err := c.getData(ctx, eventPath(id), &out); err != nil {
		return model.Party{}, err
	}
	return out, nil
}

func (c *Client) ListRsvps(ctx context.Context) ([]model.RSVP, error) {
	var out []model.RSVP
	if err := c.getData(ctx, "/rsvps", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListGuests(ctx context.Context) ([]model.Guest, error) {
	var out []model.Guest
	if err := c.getData(ctx, "/guests", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteParty deletes a party. Any 2xx status is success; the body is ignored.
func (c *Client) DeleteParty(ctx context.Context, id int) error {
	path := eventPath(id)
	resp, err := c.send(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if !isSuccess(resp.StatusCode) {
		return &StatusError{Method: http.MethodDelete, Path: path, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

func (c *Client) getData(ctx context.Context, path string, out any) error {
	return c.doData(ctx, http.MethodGet, path, nil, out)
}

// doData performs one round trip and decodes the "data" member of the
// response envelope into out.
func (c *Client) doData(ctx context.Context, method, path string, body []byte, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if !isSuccess(resp.StatusCode) {
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s %s: decode envelope: %w", method, path, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%s %s: %w", method, path, ErrMissingData)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.root+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	appLog.Debug("api round trip",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func eventPath(id int) string {
	return "/events/" + strconv.Itoa(id)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
