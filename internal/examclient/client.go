// Package examclient talks to the exam backend over HTTP. It decodes the
// backend's {data, error, metadata} envelope and implements exam.Backend.
package examclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-learn/internal/exam"
	"github.com/stemsi/exstem-learn/internal/model"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"

	maxBodyBytes = 4 << 20
)

var _ exam.Backend = (*Client)(nil)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// Client is safe for concurrent use. The bearer token is set by Login or
// SetToken and sent on every later call.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	mu    sync.RWMutex
	token string
}

// New creates a client for the API rooted at baseURL (e.g. .../api/v1).
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "exam_client").Logger(),
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login authenticates a learner and keeps the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	var out model.LoginResponse
	body := model.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, nil, &out); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	c.SetToken(out.Token)
	return &out, nil
}

// RandomQuestions fetches a randomized question set for the course.
func (c *Client) RandomQuestions(ctx context.Context, courseID int) ([]model.Question, error) {
	var qs []model.Question
	path := fmt.Sprintf("/exam/course/%d/random", courseID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &qs); err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	return qs, nil
}

// Submit posts the answers. A non-empty idempotencyKey is sent as the
// Idempotency-Key header.
func (c *Client) Submit(ctx context.Context, req model.SubmitRequest, idempotencyKey string) (*model.Attempt, error) {
	var header http.Header
	if idempotencyKey != "" {
		header = http.Header{HeaderIdempotencyKey: []string{idempotencyKey}}
	}
	var out model.Attempt
	if err := c.do(ctx, http.MethodPost, "/exam/submit", req, header, &out); err != nil {
		return nil, fmt.Errorf("submit exam: %w", err)
	}
	return &out, nil
}

// Attempt fetches a recorded attempt of the authenticated learner.
func (c *Client) Attempt(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	var out model.Attempt
	if err := c.do(ctx, http.MethodGet, "/exam/attempts/"+id.String(), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var rd io.Reader = io.LimitReader(resp.Body, maxBodyBytes)
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "br") {
		rd = brotli.NewReader(rd)
	}
	var env envelope
	decodeErr := json.NewDecoder(rd).Decode(&env)

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Exam API call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Fields = env.Error.Fields
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
