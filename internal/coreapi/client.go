// Package coreapi is the typed client for the platform's core REST API, the
// collaborator that owns matches and messages at the source. Failures are
// surfaced as per-action error values; there is no automatic retry, the
// caller re-triggers the action.
package coreapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/planmatch/planmatch/internal/errors"
	"github.com/planmatch/planmatch/internal/models"
	"github.com/planmatch/planmatch/internal/telemetry"
)

const userIDHeader = "X-User-ID"

// Client talks to the core API on behalf of one deployment.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a core API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchMatches returns the user's matches, optionally filtered by status.
func (c *Client) FetchMatches(ctx context.Context, userID string, status models.MatchStatus) ([]models.Match, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}

	var matches []models.Match
	if err := c.get(ctx, userID, "/v1/matches", query, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// FetchMessages returns one page of a match's message log, oldest first.
func (c *Client) FetchMessages(ctx context.Context, userID, matchID string, limit, offset int) ([]models.Message, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var messages []models.Message
	path := fmt.Sprintf("/v1/matches/%s/messages", url.PathEscape(matchID))
	if err := c.get(ctx, userID, path, query, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessageRequest is the body for sending a negotiation message.
type SendMessageRequest struct {
	Content     string             `json:"content"`
	MessageType models.MessageType `json:"message_type"`
}

// SendMessage posts a message to a match's log and returns the stored record.
func (c *Client) SendMessage(ctx context.Context, userID, matchID string, req SendMessageRequest) (*models.Message, error) {
	var msg models.Message
	path := fmt.Sprintf("/v1/matches/%s/messages", url.PathEscape(matchID))
	if err := c.post(ctx, userID, path, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ConfirmPlan confirms the current plan for a match. When both sides have
// confirmed, the platform emits the date-finalized push event.
func (c *Client) ConfirmPlan(ctx context.Context, userID, matchID string) error {
	path := fmt.Sprintf("/v1/matches/%s/confirm", url.PathEscape(matchID))
	return c.post(ctx, userID, path, nil, nil)
}

func (c *Client) get(ctx context.Context, userID, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.NewInternalError("failed to build core API request", err)
	}
	return c.do(req, userID, out)
}

func (c *Client) post(ctx context.Context, userID, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.NewInternalError("failed to encode core API request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return errors.NewInternalError("failed to build core API request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, userID, out)
}

func (c *Client) do(req *http.Request, userID string, out interface{}) error {
	req.Header.Set(userIDHeader, userID)

	logger := telemetry.GetContextualLogger(req.Context()).WithFields(map[string]interface{}{
		"operation": "core_api_request",
		"method":    req.Method,
		"path":      req.URL.Path,
		"user_id":   userID,
	})

	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithError(err).Error("Core API request failed")
		return errors.NewUpstreamError(req.Method+" "+req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.WithField("status", resp.StatusCode).Warn("Core API returned error status")
		return errors.NewUpstreamError(req.Method+" "+req.URL.Path, nil).
			WithMetadata("status", resp.StatusCode).
			WithDetails(string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logger.WithError(err).Error("Failed to decode core API response")
		return errors.NewDecodeError("core API response", err)
	}
	return nil
}
