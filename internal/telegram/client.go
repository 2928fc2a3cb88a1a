// Package telegram publishes seasonality report digests through the Telegram
// Bot API.
//
// Messages use MarkdownV2 formatting and are delivered with a linear retry
// backoff.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/crimescope/internal/export"
	"github.com/rewired-gh/crimescope/internal/logger"
)

// maxMessageLen is Telegram's limit on the length of a message text.
const maxMessageLen = 4096

var log = logger.Named("telegram")

// sender is the part of tgbotapi.BotAPI the client needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client sends report digests to one chat.
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a Telegram client for the given bot token and chat.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, id, maxRetries, retryDelayBase), nil
}

func newClient(bot sender, chatID int64, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		bot:            bot,
		chatID:         chatID,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// SendReport sends a digest of r: the top offenses of every period and the
// period totals.
func (c *Client) SendReport(r export.Report) error {
	msg := tgbotapi.NewMessage(c.chatID, formatReport(r))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			log.Info("report %s sent to chat %d", r.SessionID, c.chatID)
			return nil
		}
		lastErr = err
		log.Warn("send attempt %d/%d failed: %v", i+1, c.maxRetries, lastErr)
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
		}
	}
	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatReport renders r as MarkdownV2 text no longer than maxMessageLen.
func formatReport(r export.Report) string {
	var lines []string
	lines = append(lines,
		fmt.Sprintf("📊 *Crime %s Report*", escapeMarkdownV2(title(r.Params.Mode))),
		"",
		fmt.Sprintf("📅 Generated: %s", escapeMarkdownV2(r.GeneratedAt.Format("2006-01-02 15:04:05"))),
	)
	if r.Source != "" {
		lines = append(lines, fmt.Sprintf("🗂 Source: %s", escapeMarkdownV2(r.Source)))
	}
	if len(r.Params.Exclude) > 0 {
		lines = append(lines, fmt.Sprintf("🚫 %d non\\-crime categories excluded", len(r.Params.Exclude)))
	}

	totals := make(map[string]int, len(r.Totals))
	for _, t := range r.Totals {
		totals[t.Period.String()] = t.Frequency
	}
	for _, rp := range r.Rankings {
		lines = append(lines, "", fmt.Sprintf("*%s* \\(total %d\\)",
			escapeMarkdownV2(rp.Period.Label()), totals[rp.Period.String()]))
		if len(rp.Entries) == 0 {
			lines = append(lines, "   no incidents")
			continue
		}
		for i, e := range rp.Entries {
			lines = append(lines, fmt.Sprintf("%d\\. %s \\- %d", i+1, escapeMarkdownV2(e.Category), e.Count))
		}
	}

	if s := r.Summary; s.Periods > 0 {
		lines = append(lines, "",
			fmt.Sprintf("📈 Peak: %s \\(%d\\)", escapeMarkdownV2(s.Peak.Label()), int(s.Max)),
			fmt.Sprintf("📉 Trough: %s \\(%d\\)", escapeMarkdownV2(s.Trough.Label()), int(s.Min)),
		)
	}
	return truncateLines(lines, maxMessageLen)
}

// truncateLines joins lines, dropping whole trailing lines so the result
// stays within limit runes. Cutting at line boundaries keeps MarkdownV2
// entities balanced.
func truncateLines(lines []string, limit int) string {
	full := strings.Join(lines, "\n")
	if utf8.RuneCountInString(full) <= limit {
		return full
	}

	const more = "\n…"
	budget := limit - utf8.RuneCountInString(more)
	var b strings.Builder
	n := 0
	for i, l := range lines {
		size := utf8.RuneCountInString(l)
		if i > 0 {
			size++
		}
		if n+size > budget {
			break
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l)
		n += size
	}
	b.WriteString(more)
	return b.String()
}

func title(mode string) string {
	switch mode {
	case "month":
		return "Monthly"
	case "season":
		return "Seasonality"
	}
	return "Incident"
}

// escapeMarkdownV2 escapes the characters reserved by Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
