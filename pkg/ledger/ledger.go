// Package ledger provides a client for the points-ledger REST service.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/abrezinsky/claimboard/internal/errors"
	"github.com/abrezinsky/claimboard/internal/logger"
	"github.com/abrezinsky/claimboard/internal/models"
)

// DefaultTimeout bounds connect plus response for every ledger call.
const DefaultTimeout = 10 * time.Second

// Envelope is the shape of every ledger response body
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// APIError is a failure reported by the ledger: a non-2xx status or a body
// with success set to false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ledger returned status %d", e.Status)
	}
	return fmt.Sprintf("ledger returned status %d: %s", e.Status, e.Message)
}

// ServerMessage returns the message the ledger asked to show the operator.
func (e *APIError) ServerMessage() string {
	return e.Message
}

// AddUserRequest is the body of POST /users
type AddUserRequest struct {
	Name string `json:"name"`
}

// ClaimRequest is the body of POST /claim-points
type ClaimRequest struct {
	UserID string `json:"userId"`
}

// ClaimData is the data of a successful claim
type ClaimData struct {
	User          *models.User  `json:"user,omitempty"`
	PointsAwarded int           `json:"pointsAwarded,omitempty"`
	AllUsers      []models.User `json:"allUsers"`
}

// RosterResult is a full ranked roster plus the ledger's message
type RosterResult struct {
	Users   []models.User
	Message string
}

// ClaimResult is a claim outcome plus the ledger's message
type ClaimResult struct {
	ClaimData
	Message string
}

// Client defines the ledger operations the console depends on
type Client interface {
	// ListUsers returns the full roster ordered by rank
	ListUsers(ctx context.Context) ([]models.User, error)
	// AddUser creates a participant and returns the updated roster
	AddUser(ctx context.Context, name string) (*RosterResult, error)
	// ClaimPoints awards points to a participant and returns the updated roster
	ClaimPoints(ctx context.Context, userID string) (*ClaimResult, error)
	// FetchHistory returns one page of claim history, newest first
	FetchHistory(ctx context.Context, page, limit int) (*models.HistoryPage, error)
	// BaseURL returns the configured ledger base URL
	BaseURL() string
}

// HTTPClient is a real HTTP client for the ledger
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a ledger client with the default timeout
func NewHTTPClient(baseURL string, log logger.Logger) *HTTPClient {
	return NewHTTPClientWithHTTPClient(baseURL, &http.Client{Timeout: DefaultTimeout}, log)
}

// NewHTTPClientWithHTTPClient creates a ledger client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the configured ledger base URL
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// do executes one ledger call, checks the status and the envelope, and
// decodes data into out when out is non-nil.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) (string, error) {
	reqURL := c.BaseURL() + path

	var reader io.Reader
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.ErrInternal, "failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	c.log.Debug("Ledger request", "method", method, "url", reqURL, "body", string(payload))

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInternal, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Transport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Transport(fmt.Errorf("failed to read response: %w", err))
	}

	c.log.Debug("Ledger response", "status", resp.StatusCode, "body", string(raw))

	var env Envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.Message
		}
		return "", apperrors.Backend(apiErr.Message, apiErr)
	}
	if decodeErr != nil {
		return "", apperrors.Transport(fmt.Errorf("failed to parse response: %w", decodeErr))
	}
	if !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message}
		return "", apperrors.Backend(env.Message, apiErr)
	}

	if out != nil {
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return "", apperrors.Transport(fmt.Errorf("response from %s carried no data", path))
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", apperrors.Transport(fmt.Errorf("failed to parse response data: %w", err))
		}
	}

	return env.Message, nil
}

// ListUsers returns the full roster ordered by rank
func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if _, err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddUser creates a participant and returns the updated roster
func (c *HTTPClient) AddUser(ctx context.Context, name string) (*RosterResult, error) {
	var users []models.User
	msg, err := c.do(ctx, http.MethodPost, "/users", AddUserRequest{Name: name}, &users)
	if err != nil {
		return nil, err
	}
	return &RosterResult{Users: users, Message: msg}, nil
}

// ClaimPoints awards points to a participant and returns the updated roster
func (c *HTTPClient) ClaimPoints(ctx context.Context, userID string) (*ClaimResult, error) {
	var data ClaimData
	msg, err := c.do(ctx, http.MethodPost, "/claim-points", ClaimRequest{UserID: userID}, &data)
	if err != nil {
		return nil, err
	}
	return &ClaimResult{ClaimData: data, Message: msg}, nil
}

// FetchHistory returns one page of claim history, newest first
func (c *HTTPClient) FetchHistory(ctx context.Context, page, limit int) (*models.HistoryPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var hp models.HistoryPage
	if _, err := c.do(ctx, http.MethodGet, "/history?"+q.Encode(), nil, &hp); err != nil {
		return nil, err
	}
	return &hp, nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
