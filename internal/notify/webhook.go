package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const deliveryTimeout = 5 * time.Second

// payloadFunc renders an event in the body format a webhook type expects.
type payloadFunc func(Event) any

var payloads = map[string]payloadFunc{
	"slack": func(ev Event) any {
		return map[string]string{"text": fmt.Sprintf("*%s* %s", eventLabel(ev.Type), ev.Message)}
	},
	"teams": func(ev Event) any {
		return map[string]any{
			"@type":      "MessageCard",
			"@context":   "http://schema.org/extensions",
			"themeColor": eventColor(ev.Type),
			"summary":    ev.Type,
			"title":      "Scoreboard: " + eventLabel(ev.Type),
			"text":       ev.Message,
		}
	},
	"http": func(ev Event) any {
		return map[string]any{"event": ev}
	},
}

// deliver fans ev out to every webhook with a resolvable URL and every
// publisher. Failures are logged and otherwise ignored.
func (e *Engine) deliver(ev Event) {
	for _, wh := range e.webhooks {
		target := wh.URL()
		render, known := payloads[wh.Type]
		if target == "" || !known {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		err := e.post(ctx, target, render(ev))
		cancel()
		if err != nil {
			slog.Error("notify: webhook delivery failed", "type", wh.Type, "event", ev.Type, "err", err)
			continue
		}
		slog.Debug("notify: webhook delivered", "type", wh.Type, "event", ev.Type)
	}

	for _, p := range e.publishers {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		if err := p.Publish(ctx, ev); err != nil {
			slog.Error("notify: publish failed", "event", ev.Type, "err", err)
		}
		cancel()
	}
}

func (e *Engine) post(ctx context.Context, target string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook answered %s", resp.Status)
	}
	return nil
}

func eventLabel(typ string) string {
	switch typ {
	case EventLeaderChanged:
		return "New leader"
	case EventSourceDown:
		return "Source down"
	case EventSourceRecovered:
		return "Source recovered"
	}
	return typ
}

// eventColor is the Teams card accent.
func eventColor(typ string) string {
	switch typ {
	case EventSourceDown:
		return "FF4F6A"
	case EventSourceRecovered:
		return "3DDC84"
	}
	return "FFD700"
}
