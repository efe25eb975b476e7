package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"issuepilot/internal/agent"
	"issuepilot/internal/retry"
)

// priority colors for Discord embeds.
const (
	colorGreen  = 0x2ecc71
	colorYellow = 0xf1c40f
	colorOrange = 0xe67e22
	colorRed    = 0xe74c3c
)

// DiscordNotifier sends processing results to a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a DiscordNotifier with the given webhook URL.
func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// discordEmbed represents a Discord embed object.
type discordEmbed struct {
	Title  string         `json:"title"`
	URL    string         `json:"url"`
	Color  int            `json:"color"`
	Fields []discordField `json:"fields"`
	Footer *discordFooter `json:"footer,omitempty"`
}

// discordField represents a field in a Discord embed.
type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// discordFooter represents the footer of a Discord embed.
type discordFooter struct {
	Text string `json:"text"`
}

// discordPayload is the top-level Discord webhook payload.
type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// embedColor maps the recommended priority onto an embed color.
func embedColor(result agent.Result) int {
	if result.Analysis == nil {
		return colorYellow
	}
	switch result.Analysis.Priority {
	case "critical":
		return colorRed
	case "high":
		return colorOrange
	case "low":
		return colorGreen
	default:
		return colorYellow
	}
}

// BuildDiscordPayload creates the Discord embed message for a processing result.
func BuildDiscordPayload(repo string, result agent.Result) discordPayload {
	fields := []discordField{
		{
			Name:   "Labels",
			Value:  FormatLabels(result),
			Inline: true,
		},
	}

	if result.Analysis != nil {
		fields = append(fields, discordField{
			Name:   "Priority",
			Value:  string(result.Analysis.Priority),
			Inline: true,
		})
		if result.Analysis.Summary != "" {
			fields = append(fields, discordField{
				Name:  "Summary",
				Value: result.Analysis.Summary,
			})
		}
	}

	return discordPayload{
		Embeds: []discordEmbed{
			{
				Title:  FormatHeadline(result),
				URL:    issueURL(repo, result.IssueNumber),
				Color:  embedColor(result),
				Fields: fields,
				Footer: &discordFooter{Text: "issuepilot"},
			},
		},
	}
}

// Notify sends a Discord notification for the given result, retrying with
// backoff on failure.
func (d *DiscordNotifier) Notify(ctx context.Context, repo string, result agent.Result) error {
	payload := BuildDiscordPayload(repo, result)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	return retry.Do(ctx, 2, func() error {
		return d.post(ctx, body)
	})
}

func (d *DiscordNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
