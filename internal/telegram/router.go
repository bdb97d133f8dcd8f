package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/samsonite000/Discord-bot/internal/tracker"
)

// Router wires Telegram updates to the readiness engine: prefixed commands
// go to their handlers, everything else runs through the classifier path.
type Router struct {
	bot     *tgbotapi.BotAPI
	log     *zap.Logger
	tracker *tracker.Tracker
	send    tracker.Notifier
	prefix  string
	selfID  int64
}

func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, trk *tracker.Tracker, send tracker.Notifier, prefix string) *Router {
	return &Router{
		bot:     bot,
		log:     log,
		tracker: trk,
		send:    send,
		prefix:  prefix,
		selfID:  bot.Self.ID,
	}
}

// HandleUpdate routes a single update. Messages from the bot itself and
// direct messages are ignored; the tracker only operates in groups.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil {
		return
	}
	if msg.From.ID == r.selfID {
		return
	}
	if msg.Chat == nil || msg.Chat.IsPrivate() {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, r.prefix) {
		r.handleCommand(ctx, msg, strings.TrimPrefix(text, r.prefix))
		return
	}

	ref := tracker.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.MessageID}
	r.tracker.HandleMessage(ctx, ref, text, displayName(msg.From))
}

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message, cmd string) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	chatID := msg.Chat.ID

	switch strings.ToLower(fields[0]) {
	case "status":
		n, ok := r.tracker.StatusNotification(arg)
		if !ok {
			n = r.tracker.UnknownDynasty(arg)
		}
		r.reply(ctx, chatID, n)

	case "notify":
		if !r.tracker.RemindNow(ctx, chatID, arg) {
			r.reply(ctx, chatID, r.tracker.UnknownDynasty(arg))
		}

	case "reset":
		n, ok := r.tracker.Reset(arg)
		if !ok {
			n = r.tracker.UnknownDynasty(arg)
		}
		r.reply(ctx, chatID, n)

	case "help":
		r.reply(ctx, chatID, helpNotification(r.prefix))

	default:
		// Unknown command, ignore silently like any other chatter.
	}
}

func (r *Router) reply(ctx context.Context, chatID int64, n tracker.Notification) {
	if err := r.send.Send(ctx, chatID, n); err != nil {
		r.log.Error("command reply failed", zap.Error(err), zap.String("title", n.Title))
	}
}

// displayName prefers the public username and falls back to the profile
// name, which is what tracked-user matching runs against.
func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}
