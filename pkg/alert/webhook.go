package alert

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Webhook sends digests to a generic HTTP endpoint.
type Webhook struct {
	client *http.Client
	url    string
	secret string
}

// NewWebhook creates a new generic webhook notifier.
func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		secret: secret,
	}
}

func (w *Webhook) Name() string { return "webhook" }

// webhookEvent is the JSON body posted to generic webhooks.
type webhookEvent struct {
	Event    string        `json:"event"`
	Title    string        `json:"title"`
	Model    string        `json:"model,omitempty"`
	ScoredAt string        `json:"scored_at"`
	Count    int           `json:"count"`
	Repos    []webhookRepo `json:"repos"`
}

type webhookRepo struct {
	Rank       int     `json:"rank"`
	FullName   string  `json:"full_name"`
	URL        string  `json:"url"`
	Domain     string  `json:"domain"`
	Stars      int     `json:"stars"`
	FinalScore float64 `json:"final_score"`
	OneLiner   string  `json:"one_liner,omitempty"`
}

func newWebhookEvent(d *Digest) webhookEvent {
	repos := make([]webhookRepo, len(d.Repos))
	for i := range d.Repos {
		r := &d.Repos[i]
		repos[i] = webhookRepo{
			Rank:       r.Rank,
			FullName:   r.FullName,
			URL:        r.Link(),
			Domain:     string(r.Domain),
			Stars:      r.Stars,
			FinalScore: r.FinalScore,
			OneLiner:   r.OneLiner,
		}
	}
	return webhookEvent{
		Event:    "digest",
		Title:    d.Title,
		Model:    d.Model,
		ScoredAt: d.ScoredAt.UTC().Format(time.RFC3339),
		Count:    len(repos),
		Repos:    repos,
	}
}

func (w *Webhook) Send(ctx context.Context, d *Digest) error {
	body, err := json.Marshal(newWebhookEvent(d))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "reporadar/1.0")

	if w.secret != "" {
		req.Header.Set("X-Signature-256", "sha256="+Sign(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}

	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
