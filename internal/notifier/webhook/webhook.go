// Package webhook posts swingdesk signals to an HTTP endpoint as JSON.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/newthinker/swingdesk/internal/core"
)

const userAgent = "swingdesk-webhook/1"

// Webhook posts signals as JSON to a URL.
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New creates a webhook notifier. headers are sent with every request,
// typically an Authorization token for the receiving service.
func New(url string, headers map[string]string) (*Webhook, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook: url is required")
	}
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (w *Webhook) Name() string { return "webhook" }

// event is the body of a single-signal post.
type event struct {
	Type        string         `json:"type"`
	ID          string         `json:"id,omitempty"`
	Symbol      string         `json:"symbol"`
	Action      core.Action    `json:"action"`
	Label       string         `json:"label"`
	Actionable  bool           `json:"actionable"`
	Strength    int            `json:"strength"`
	Price       float64        `json:"price"`
	Reason      string         `json:"reason,omitempty"`
	Strategy    string         `json:"strategy,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	GeneratedAt string         `json:"generated_at"`
}

type batch struct {
	Type    string  `json:"type"`
	Count   int     `json:"count"`
	Signals []event `json:"signals"`
}

func newEvent(s core.Signal) event {
	return event{
		Type:        "signal",
		ID:          s.ID,
		Symbol:      s.Symbol,
		Action:      s.Action,
		Label:       s.Action.Label(),
		Actionable:  s.IsActionable(),
		Strength:    s.Strength,
		Price:       s.Price,
		Reason:      s.Reason,
		Strategy:    s.Strategy,
		Metadata:    s.Metadata,
		GeneratedAt: s.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

func (w *Webhook) Send(ctx context.Context, signal core.Signal) error {
	return w.post(ctx, newEvent(signal))
}

// SendBatch posts all signals in one request. An empty batch sends nothing.
func (w *Webhook) SendBatch(ctx context.Context, signals []core.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	b := batch{Type: "batch", Count: len(signals), Signals: make([]event, len(signals))}
	for i, s := range signals {
		b.Signals[i] = newEvent(s)
	}
	return w.post(ctx, b)
}

func (w *Webhook) post(ctx context.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("webhook: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook: %s returned %d: %s", w.url, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
