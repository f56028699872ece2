package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// discordMaxRepos caps the repos listed in one embed.
const discordMaxRepos = 10

// Discord sends digests via Discord webhook.
type Discord struct {
	client     *http.Client
	webhookURL string
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, digest *Digest) error {
	body, err := json.Marshal(map[string]any{
		"embeds": []map[string]any{discordEmbed(digest)},
	})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook status %d", resp.StatusCode)
	}

	return nil
}

func discordEmbed(d *Digest) map[string]any {
	var lines []string
	for _, r := range d.Repos[:min(len(d.Repos), discordMaxRepos)] {
		lines = append(lines, fmt.Sprintf("%d. [%s](%s) **%.2f** [%s]", r.Rank, r.FullName, r.Link(), r.FinalScore, r.Domain))
	}

	desc := fmt.Sprintf("**Repos:** %d", len(d.Repos))
	if d.Model != "" {
		desc += fmt.Sprintf(" | **Model:** %s", d.Model)
	}
	if len(lines) > 0 {
		desc += "\n\n" + strings.Join(lines, "\n")
	}

	return map[string]any{
		"title":       d.Title,
		"description": desc,
		"color":       0xFF6600,
		"timestamp":   d.ScoredAt.UTC().Format(time.RFC3339),
	}
}
