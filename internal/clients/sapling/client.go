package sapling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/grammarheroes/backend/internal/platform/logger"
)

// Edit is one correction span reported by the scorer. Start/End are
// character offsets into Sentence.
type Edit struct {
	Sentence    string `json:"sentence"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Replacement string `json:"replacement"`
	Category    string `json:"general_error_type,omitempty"`
}

// Result is the scorer's verdict. Err set with no edits means the scorer
// itself failed; callers fail open rather than blocking the submission.
type Result struct {
	Edits []Edit `json:"edits"`
	Err   string `json:"error,omitempty"`
}

type Config struct {
	URL       string
	APIKey    string
	SessionID string
	Timeout   time.Duration
}

type Client struct {
	log  *logger.Logger
	http *http.Client
	cfg  Config
}

func NewClient(baseLog *logger.Logger, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.SessionID == "" {
		cfg.SessionID = "grammar_heroes"
	}
	return &Client{
		log:  baseLog.With("client", "SaplingClient"),
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
	}
}

type checkRequest struct {
	Key       string `json:"key"`
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

// Check scores a sentence. Transport and upstream failures come back as a
// Result with Err set, never as a Go error.
func (c *Client) Check(ctx context.Context, sentence string) *Result {
	body, err := json.Marshal(checkRequest{
		Key:       c.cfg.APIKey,
		Text:      sentence,
		SessionID: c.cfg.SessionID,
	})
	if err != nil {
		return &Result{Err: fmt.Sprintf("encode scorer request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return &Result{Err: fmt.Sprintf("build scorer request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("scorer call failed", "error", err)
		return &Result{Err: fmt.Sprintf("scorer unreachable: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.log.Warn("scorer response read failed", "error", err)
		return &Result{Err: fmt.Sprintf("scorer response read: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("scorer API error", "status", resp.StatusCode, "body", string(raw))
		return &Result{Err: fmt.Sprintf("scorer API error %d", resp.StatusCode)}
	}

	var out Result
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("scorer response decode failed", "error", err)
		return &Result{Err: fmt.Sprintf("scorer response decode: %v", err)}
	}
	return &out
}
