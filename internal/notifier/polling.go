package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

const pollRetryDelay = 5 * time.Second

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := int64(0)
	for {
		if ctx.Err() != nil {
			t.logger.Info().Msg("telegram polling stopped")
			return
		}

		next, err := t.poll(ctx, offset, handler)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			t.logger.Warn().Err(err).Msg("polling request failed")
			select {
			case <-ctx.Done():
			case <-time.After(pollRetryDelay):
			}
			continue
		}
		offset = next
	}
}

// poll fetches one batch of updates, dispatches commands and returns the next offset.
func (t *TelegramNotifier) poll(ctx context.Context, offset int64, handler CommandHandler) (int64, error) {
	apiURL := fmt.Sprintf("%s?offset=%d&timeout=%d", t.method("getUpdates"), offset, int(t.PollTimeout.Seconds()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return offset, fmt.Errorf("create polling request: %w", err)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return offset, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return offset, fmt.Errorf("read polling response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return offset, fmt.Errorf("decode polling response: invalid JSON")
	}
	result := gjson.ParseBytes(body)
	if !result.Get("ok").Bool() {
		return offset, fmt.Errorf("telegram getUpdates: %s", result.Get("description").String())
	}

	result.Get("result").ForEach(func(_, update gjson.Result) bool {
		offset = update.Get("update_id").Int() + 1
		text := strings.TrimSpace(update.Get("message.text").String())
		if text == "" {
			return true
		}
		t.logger.Info().Str("command", text).Msg("received command")
		if reply := handler(ctx, text); reply != "" {
			if err := t.Send(ctx, reply); err != nil {
				t.logger.Error().Err(err).Msg("send reply")
			}
		}
		return true
	})
	return offset, nil
}
