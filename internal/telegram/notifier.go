package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/samsonite000/Discord-bot/internal/tracker"
)

// Gateway implements the tracker's Notifier and Channel collaborators on top
// of the Telegram Bot API.
type Gateway struct {
	bot    *tgbotapi.BotAPI
	chatID int64 // the tracked group, used for member lookups
	log    *zap.Logger
}

func NewGateway(bot *tgbotapi.BotAPI, chatID int64, log *zap.Logger) *Gateway {
	return &Gateway{bot: bot, chatID: chatID, log: log}
}

// Send renders a structured notification as an HTML message. Telegram has no
// embed colors, so severity is carried by a leading marker.
func (g *Gateway) Send(_ context.Context, chatID int64, n tracker.Notification) error {
	var b strings.Builder

	if len(n.Mentions) > 0 {
		// Mention tokens are pre-rendered HTML/usernames; do not escape.
		b.WriteString(strings.Join(n.Mentions, " "))
		b.WriteString("\n")
	}

	b.WriteString(severityMarker(n.Severity))
	b.WriteString(" <b>")
	b.WriteString(html.EscapeString(n.Title))
	b.WriteString("</b>\n")

	if n.Body != "" {
		b.WriteString(html.EscapeString(n.Body))
		b.WriteString("\n")
	}
	for _, f := range n.Fields {
		b.WriteString("\n<b>")
		b.WriteString(html.EscapeString(f.Name))
		b.WriteString("</b>\n")
		b.WriteString(html.EscapeString(f.Value))
		b.WriteString("\n")
	}

	msg := tgbotapi.NewMessage(chatID, b.String())
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := g.bot.Send(msg)
	return err
}

func severityMarker(s tracker.Severity) string {
	switch s {
	case tracker.SeveritySuccess:
		return "🟢"
	case tracker.SeverityWarning:
		return "🟡"
	case tracker.SeverityError:
		return "🔴"
	default:
		return "🔵"
	}
}

// DeleteMessage removes the originating message. Telegram reports missing
// permissions and already-deleted messages as API errors; callers treat both
// as non-fatal.
func (g *Gateway) DeleteMessage(_ context.Context, ref tracker.MessageRef) error {
	_, err := g.bot.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID))
	return err
}

// ResolveMention maps a tracked user name to a mention token by scanning the
// group's administrators (Telegram exposes no full member list to bots) with
// the same case-insensitive substring policy the classifier uses. Falls back
// to the plain name when nobody matches or the lookup fails.
func (g *Gateway) ResolveMention(_ context.Context, trackedUser string) string {
	admins, err := g.bot.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: g.chatID},
	})
	if err != nil {
		g.log.Warn("member lookup failed", zap.Error(err))
		return trackedUser
	}

	needle := strings.ToUpper(trackedUser)
	for _, admin := range admins {
		u := admin.User
		if u == nil {
			continue
		}
		if strings.Contains(strings.ToUpper(u.UserName), needle) ||
			strings.Contains(strings.ToUpper(u.FirstName), needle) {
			if u.UserName != "" {
				return "@" + u.UserName
			}
			return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, u.ID, html.EscapeString(u.FirstName))
		}
	}
	return trackedUser
}
