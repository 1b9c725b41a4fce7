package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RunSummary carries the outcome of one batch analysis run.
type RunSummary struct {
	RunID         string
	Cloud         string
	ResourceType  string
	Schema        string
	WindowStart   time.Time
	WindowEnd     time.Time
	Analyzed      int
	Failed        int
	TopResource   string
	TopSavingPct  float64
	AdditionalMsg string
}

// Notifier delivers run summaries to an external channel.
type Notifier interface {
	Notify(ctx context.Context, summary RunSummary) error
}

// TelegramNotifier posts summaries through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify sends the rendered summary via the sendMessage API.
func (n *TelegramNotifier) Notify(ctx context.Context, summary RunSummary) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(summary),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram responded with status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().Str("run_id", summary.RunID).
		Str("target", summary.Cloud+"/"+summary.ResourceType).
		Int("analyzed", summary.Analyzed).
		Msg("run summary sent (Telegram)")
	return nil
}

func renderMessage(summary RunSummary) string {
	builder := strings.Builder{}
	builder.WriteString("[Cost Advisor Run]\n")
	builder.WriteString(fmt.Sprintf("Run: %s\n", summary.RunID))
	builder.WriteString(fmt.Sprintf("Target: %s/%s (schema %s)\n", summary.Cloud, summary.ResourceType, summary.Schema))
	builder.WriteString(fmt.Sprintf("Window: %s to %s\n",
		summary.WindowStart.UTC().Format("2006-01-02"), summary.WindowEnd.UTC().Format("2006-01-02")))
	builder.WriteString(fmt.Sprintf("Analyzed: %d, failed: %d\n", summary.Analyzed, summary.Failed))
	if summary.TopResource != "" {
		builder.WriteString(fmt.Sprintf("Top saving: %.1f%% on %s\n", summary.TopSavingPct, summary.TopResource))
	}
	if summary.AdditionalMsg != "" {
		builder.WriteString(summary.AdditionalMsg)
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
