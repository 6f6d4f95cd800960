// Package simal is the REST client for the Simal backend scheduler. The
// backend is the system of record for task placement; this client proposes
// moves and reads snapshots, nothing more.
package simal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/simal/floorboard/internal/schedule"
)

const defaultTimeout = 15 * time.Second

// HTTPClient interface for HTTP requests (enables testing).
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Verify http.Client implements HTTPClient.
var _ HTTPClient = (*http.Client)(nil)

// Client talks to the Simal scheduler API.
type Client struct {
	baseURL    string
	operatorID string
	client     HTTPClient
	getRetries uint64
}

// New creates a client with a default HTTP client. operatorID is sent as
// X-User-Id on writes.
func New(baseURL, operatorID string) *Client {
	return NewWithHTTPClient(baseURL, operatorID, &http.Client{Timeout: defaultTimeout})
}

// NewWithHTTPClient creates a client with a custom HTTP transport.
func NewWithHTTPClient(baseURL, operatorID string, hc HTTPClient) *Client {
	return &Client{baseURL: baseURL, operatorID: operatorID, client: hc}
}

// WithGetRetries enables bounded exponential-backoff retries on the read
// endpoints. Reschedule submits are never retried; the polling refresher
// supplies its own cadence and must not retry either.
func (c *Client) WithGetRetries(n uint64) *Client {
	c.getRetries = n
	return c
}

// ScheduledOrders fetches the orders the backend has placed on the schedule.
func (c *Client) ScheduledOrders(ctx context.Context) ([]schedule.Order, error) {
	return c.getOrders(ctx, "/simal/scheduled-orders")
}

// ProductionOrders fetches production orders, including unscheduled ones.
func (c *Client) ProductionOrders(ctx context.Context) ([]schedule.Order, error) {
	return c.getOrders(ctx, "/production-orders")
}

func (c *Client) getOrders(ctx context.Context, path string) ([]schedule.Order, error) {
	var orders []schedule.Order
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return &NetworkError{Op: "GET " + path, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := statusError("GET "+path, resp)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s: %w", path, err))
		}
		return nil
	}

	if c.getRetries == 0 {
		if err := op(); err != nil {
			return nil, unwrapPermanent(err)
		}
		return orders, nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.getRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, unwrapPermanent(err)
	}
	return orders, nil
}

// Reschedule proposes a new placement for a task. The payload is always the
// whole record (workstation, start, duration), matching the backend contract.
// Returns the authoritative updated task on acceptance.
func (c *Client) Reschedule(ctx context.Context, taskID string, p schedule.Proposal) (schedule.Task, error) {
	path := fmt.Sprintf("/simal/tasks/%s/reschedule", taskID)

	payload := reschedulePayload{
		WorkstationID:      p.WorkstationID,
		ScheduledStartTime: p.StartTime.Truncate(time.Minute).Format(time.RFC3339),
		Duration:           p.DurationMinutes,
		Reason:             p.Reason,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return schedule.Task{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return schedule.Task{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-User-Id", c.operatorID)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return schedule.Task{}, &NetworkError{Op: "PUT " + path, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var t schedule.Task
		if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
			return schedule.Task{}, fmt.Errorf("decode reschedule response: %w", err)
		}
		return t, nil
	case resp.StatusCode == http.StatusNotFound:
		return schedule.Task{}, fmt.Errorf("task %s: %w", taskID, schedule.ErrTaskNotFound)
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		return schedule.Task{}, &ConflictRejectedError{Message: backendMessage(resp)}
	default:
		return schedule.Task{}, statusError("PUT "+path, resp)
	}
}

type reschedulePayload struct {
	WorkstationID      string `json:"workstationId"`
	ScheduledStartTime string `json:"scheduledStartTime"`
	Duration           int    `json:"duration"`
	Reason             string `json:"reason"`
}

// backendMessage extracts the backend-supplied error text, falling back to a
// generic message so nothing surfaces blank to the operator.
func backendMessage(resp *http.Response) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return fmt.Sprintf("the scheduler rejected the request (HTTP %d)", resp.StatusCode)
}

func statusError(op string, resp *http.Response) error {
	return &NetworkError{Op: op, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, backendMessage(resp))}
}

func unwrapPermanent(err error) error {
	var p *backoff.PermanentError
	if errors.As(err, &p) {
		return p.Err
	}
	return err
}
