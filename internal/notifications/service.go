package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cardledger/internal/config"
)

const userAgent = "Cardledger-Go/0.1.0"

// Service defines the notification surface exposed to engine components.
type Service interface {
	NotifyRunStarted(ctx context.Context, items, units int) error
	NotifyRunCompleted(ctx context.Context, found, totalUnits, writeFailed int, duration time.Duration) error
	NotifyImportCompleted(ctx context.Context, imported, skipped int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
		runs:     cfg.Notifications.Runs,
		imports:  cfg.Notifications.Imports,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	runs     bool
	imports  bool
	errors   bool
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, items, units int) error {
	if !n.runs {
		return nil
	}
	data := payload{
		title:   "Cardledger - Sweep Started",
		message: fmt.Sprintf("Resolving images for %d items (%d searches)", items, units),
		tags:    []string{"cardledger", "sweep", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, found, totalUnits, writeFailed int, duration time.Duration) error {
	if !n.runs {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title string
	var message string
	if writeFailed == 0 {
		title = "Cardledger - Sweep Complete"
		message = fmt.Sprintf("Resolved %d of %d searches in %s", found, totalUnits, durationText)
	} else {
		title = "Cardledger - Sweep Complete (with errors)"
		message = fmt.Sprintf("Resolved %d of %d searches in %s, %d writes failed", found, totalUnits, durationText, writeFailed)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"cardledger", "sweep", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyImportCompleted(ctx context.Context, imported, skipped int) error {
	if !n.imports {
		return nil
	}
	message := fmt.Sprintf("Imported %d items", imported)
	if skipped > 0 {
		message = fmt.Sprintf("%s, skipped %d rows", message, skipped)
	}
	data := payload{
		title:   "Cardledger - Import Complete",
		message: message,
		tags:    []string{"cardledger", "import", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Cardledger - Error",
		message:  builder.String(),
		tags:     []string{"cardledger", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Cardledger - Test",
		message:  "Notification system test",
		tags:     []string{"cardledger", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, int, int) error { return nil }
func (noopService) NotifyRunCompleted(context.Context, int, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyImportCompleted(context.Context, int, int) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error      { return nil }
func (noopService) TestNotification(context.Context) error                { return nil }
