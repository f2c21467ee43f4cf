package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/web3-frozen/ovn-pools/internal/exchanger"
	"github.com/web3-frozen/ovn-pools/internal/pool"
	"github.com/web3-frozen/ovn-pools/internal/store"
)

const telegramAPI = "https://api.telegram.org/bot"

// Syncer is what the bot commands drive.
type Syncer interface {
	LastSummary() (exchanger.Summary, bool)
	StalePools(ctx context.Context) ([]store.Pool, error)
	StaleAfter() time.Duration
	Resolve(ctx context.Context, t pool.ExchangerType) error
	Trigger(ctx context.Context, types ...pool.ExchangerType) string
}

// Bot sends operator notifications to one chat and answers commands from it.
type Bot struct {
	token   string
	chatID  int64
	apiURL  string
	syncer  Syncer
	logger  *slog.Logger
	client  *http.Client
	offset  int64
	pollErr time.Duration
}

func NewBot(token string, chatID int64, logger *slog.Logger) *Bot {
	return &Bot{
		token:   token,
		chatID:  chatID,
		apiURL:  telegramAPI,
		logger:  logger,
		client:  &http.Client{Timeout: 40 * time.Second},
		pollErr: 5 * time.Second,
	}
}

// SetSyncer enables the /status, /stale and /sync commands.
func (b *Bot) SetSyncer(s Syncer) { b.syncer = s }

// Notify sends text to the operator chat.
func (b *Bot) Notify(ctx context.Context, text string) error {
	return b.SendMessage(ctx, b.chatID, text)
}

// SendMessage sends a text message to a Telegram chat.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL+b.token+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("telegram API error %d: %s", resp.StatusCode, errResp.Description)
	}
	return nil
}

// Run starts the long-polling loop for incoming Telegram messages.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("telegram bot started", "chat_id", b.chatID)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			b.poll(ctx)
		}
	}
}

func (b *Bot) poll(ctx context.Context) {
	url := fmt.Sprintf("%s%s/getUpdates?offset=%d&timeout=30", b.apiURL, b.token, b.offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		b.logger.Error("create poll request", "error", err)
		return
	}

	resp, err := b.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		b.logger.Error("poll updates", "error", err)
		sleep(ctx, b.pollErr)
		return
	}
	defer resp.Body.Close()

	var result struct {
		OK     bool `json:"ok"`
		Result []struct {
			UpdateID int64 `json:"update_id"`
			Message  *struct {
				Chat struct {
					ID int64 `json:"id"`
				} `json:"chat"`
				Text string `json:"text"`
			} `json:"message"`
		} `json:"result"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		b.logger.Error("decode updates", "error", err)
		sleep(ctx, b.pollErr)
		return
	}

	for _, u := range result.Result {
		b.offset = u.UpdateID + 1
		if u.Message == nil {
			continue
		}
		if u.Message.Chat.ID != b.chatID {
			b.logger.Warn("ignoring message from unknown chat", "chat_id", u.Message.Chat.ID)
			continue
		}
		b.handle(ctx, strings.TrimSpace(u.Message.Text))
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (b *Bot) reply(ctx context.Context, text string) {
	if err := b.Notify(ctx, text); err != nil {
		b.logger.Error("reply", "error", err)
	}
}

func (b *Bot) handle(ctx context.Context, text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}
	// Commands may carry a bot suffix in groups: /sync@ovn_pools_bot
	cmd, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	switch cmd {
	case "/help", "/start":
		b.handleHelp(ctx)
	case "/status":
		b.handleStatus(ctx)
	case "/stale":
		b.handleStale(ctx)
	case "/sync":
		b.handleSync(ctx, args)
	default:
		b.reply(ctx, "Unknown command. Send /help for available commands.")
	}
}

func (b *Bot) handleHelp(ctx context.Context) {
	b.reply(ctx, "🤖 <b>OVN Pools Bot</b>\n\n"+
		"Commands:\n"+
		"/status: last sync summary\n"+
		"/stale: pools not updated recently\n"+
		"/sync all | /sync &lt;exchanger&gt;: start a sync\n"+
		"/help: show this message")
}

func (b *Bot) handleStatus(ctx context.Context) {
	if b.syncer == nil {
		b.reply(ctx, "Sync is not running on this instance.")
		return
	}
	sum, ok := b.syncer.LastSummary()
	if !ok {
		b.reply(ctx, "No sync has finished yet.")
		return
	}
	b.reply(ctx, sum.Text())
}

func (b *Bot) handleStale(ctx context.Context) {
	if b.syncer == nil {
		b.reply(ctx, "Sync is not running on this instance.")
		return
	}
	pools, err := b.syncer.StalePools(ctx)
	if err != nil {
		b.logger.Error("list stale pools", "error", err)
		b.reply(ctx, "❌ Error fetching stale pools.")
		return
	}
	if len(pools) == 0 {
		b.reply(ctx, "✅ Every enabled pool is fresh.")
		return
	}
	b.reply(ctx, exchanger.StaleText(pools, b.syncer.StaleAfter()))
}

func (b *Bot) handleSync(ctx context.Context, args []string) {
	if b.syncer == nil {
		b.reply(ctx, "Sync is not running on this instance.")
		return
	}
	if len(args) == 0 || strings.EqualFold(args[0], "all") {
		id := b.syncer.Trigger(ctx)
		b.reply(ctx, fmt.Sprintf("🔄 Syncing all exchangers, run <code>%s</code>", id))
		return
	}

	t, ok := pool.ParseExchanger(args[0])
	if !ok {
		b.reply(ctx, fmt.Sprintf("Unknown exchanger %q.", html.EscapeString(args[0])))
		return
	}
	if err := b.syncer.Resolve(ctx, t); err != nil {
		msg := "❌ " + html.EscapeString(err.Error())
		if errors.Is(err, exchanger.ErrExchangerDisabled) {
			msg = fmt.Sprintf("⏸ %s is disabled.", t)
		}
		b.reply(ctx, msg)
		return
	}
	id := b.syncer.Trigger(ctx, t)
	b.reply(ctx, fmt.Sprintf("🔄 Syncing %s, run <code>%s</code>", t, id))
}
