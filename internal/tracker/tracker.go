package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/samsonite000/Discord-bot/internal/store"
)

// Config carries the closed dynasty/user universe and the weekly reminder
// slot into the rules engine.
type Config struct {
	Dynasties []string
	Users     []string
	// ChatID is the group chat scheduled reminders are delivered to.
	ChatID  int64
	Weekday time.Weekday
	Hour    int
}

// Tracker is the readiness rules engine. It owns no state of its own: all
// readiness lives in the injected store, all delivery goes through the
// injected Notifier/Channel collaborators.
type Tracker struct {
	store    *store.Store
	notifier Notifier
	channel  Channel
	log      *zap.Logger

	dynasties []string
	users     []string
	chatID    int64
	weekday   time.Weekday
	hour      int
}

func New(cfg Config, st *store.Store, n Notifier, ch Channel, log *zap.Logger) *Tracker {
	return &Tracker{
		store:     st,
		notifier:  n,
		channel:   ch,
		log:       log,
		dynasties: cfg.Dynasties,
		users:     cfg.Users,
		chatID:    cfg.ChatID,
		weekday:   cfg.Weekday,
		hour:      cfg.Hour,
	}
}

// HandleMessage runs a chat message through the classifier and, on a match,
// through the readiness path. Non-matching messages have no side effect.
func (t *Tracker) HandleMessage(ctx context.Context, ref MessageRef, text, author string) {
	sig, ok := t.Classify(text, author)
	if !ok {
		return
	}
	t.HandleSignal(ctx, ref, sig)
}

// HandleSignal marks the user ready, confirms it, deletes the originating
// message best-effort, and fires the auto-reset broadcast when the signal
// completed the dynasty. The all-ready check runs through the store's
// mutex-serialized reads, so it observes the mutation that triggered it.
func (t *Tracker) HandleSignal(ctx context.Context, ref MessageRef, sig Signal) {
	if !t.store.SetReady(sig.User, sig.Dynasty, true) {
		return
	}

	confirm := Notification{
		Title:    fmt.Sprintf("🔥 %s Ready for %s 🔥", sig.User, sig.Dynasty),
		Body:     fmt.Sprintf("🔥 %s is now ready to advance in %s! 🔥", sig.User, sig.Dynasty),
		Severity: SeveritySuccess,
	}
	if err := t.notifier.Send(ctx, ref.ChatID, confirm); err != nil {
		t.log.Error("confirmation send failed", zap.Error(err))
	}

	if err := t.channel.DeleteMessage(ctx, ref); err != nil {
		t.log.Warn("could not delete ready message", zap.Error(err))
	}

	for _, u := range t.users {
		if !t.store.IsReady(u, sig.Dynasty) {
			return
		}
	}
	t.autoReset(ctx, ref.ChatID, sig.Dynasty)
}

// autoReset clears the completed dynasty and broadcasts the advance
// announcement mentioning every tracked user. Completion is never persisted:
// it is resolved inside the same operation that detected it.
func (t *Tracker) autoReset(ctx context.Context, chatID int64, dynasty string) {
	t.store.ResetDynasty(dynasty)
	t.log.Info("dynasty complete, auto-reset", zap.String("dynasty", dynasty))

	mentions := make([]string, 0, len(t.users))
	for _, u := range t.users {
		mentions = append(mentions, t.channel.ResolveMention(ctx, u))
	}

	broadcast := Notification{
		Title:    dynasty + " Ready to Advance!",
		Body:     "All users are ready to advance!",
		Severity: SeveritySuccess,
		Mentions: mentions,
	}
	if err := t.notifier.Send(ctx, chatID, broadcast); err != nil {
		t.log.Error("broadcast send failed", zap.Error(err), zap.String("dynasty", dynasty))
	}
}

// Tick is the scheduler entry point. It only fires inside the configured
// weekday+hour slot; the minute is deliberately not gated, so a wakeup at
// any point within the matching hour fires (with an hourly cadence that is
// once a week, but extra wakeups inside the hour would fire again).
func (t *Tracker) Tick(ctx context.Context, now time.Time) {
	if now.Weekday() != t.weekday || now.Hour() != t.hour {
		return
	}

	notReady := t.notReadyFor(t.dynasties)
	if len(notReady) == 0 {
		t.sendAllCaughtUp(ctx, t.chatID)
		return
	}

	t.log.Info("sending weekly reminders")
	t.sendReminder(ctx, t.chatID, notReady,
		"Weekly Dynasty Advancement Reminder",
		"It's time to advance your dynasties! The following users still need to mark as ready:")
}

// RemindNow is the manual notify path: the same roster computation as the
// weekly reminder, without the slot gate. Returns false when the requested
// dynasty is unknown.
func (t *Tracker) RemindNow(ctx context.Context, chatID int64, dynasty string) bool {
	dynasties := t.dynasties
	if dynasty != "" {
		d := strings.ToUpper(dynasty)
		if !t.knownDynasty(d) {
			return false
		}
		dynasties = []string{d}
	}

	notReady := t.notReadyFor(dynasties)
	if len(notReady) == 0 {
		t.sendAllCaughtUp(ctx, chatID)
		return true
	}

	t.sendReminder(ctx, chatID, notReady,
		"Dynasty Advancement Reminder",
		"The following users still need to mark as ready:")
	return true
}

func (t *Tracker) sendAllCaughtUp(ctx context.Context, chatID int64) {
	n := Notification{
		Title:    "All Caught Up!",
		Body:     "Everyone is ready for all dynasties!",
		Severity: SeveritySuccess,
	}
	if err := t.notifier.Send(ctx, chatID, n); err != nil {
		t.log.Error("notify send failed", zap.Error(err))
	}
}

// NotReady computes, per dynasty, the tracked users who have not signaled
// ready. Dynasties with an empty roster are omitted.
func (t *Tracker) NotReady() map[string][]string {
	return t.notReadyFor(t.dynasties)
}

func (t *Tracker) notReadyFor(dynasties []string) map[string][]string {
	out := make(map[string][]string)
	for _, d := range dynasties {
		var lagging []string
		for _, u := range t.users {
			if !t.store.IsReady(u, d) {
				lagging = append(lagging, u)
			}
		}
		if len(lagging) > 0 {
			out[d] = lagging
		}
	}
	return out
}

// sendReminder emits one reminder notification with a field per lagging
// dynasty, users resolved to mentions, in configuration order.
func (t *Tracker) sendReminder(ctx context.Context, chatID int64, notReady map[string][]string, title, body string) {
	n := Notification{Title: title, Body: body, Severity: SeverityWarning}
	for _, d := range t.dynasties {
		users, ok := notReady[d]
		if !ok {
			continue
		}
		mentions := make([]string, 0, len(users))
		for _, u := range users {
			mentions = append(mentions, t.channel.ResolveMention(ctx, u))
		}
		n.Fields = append(n.Fields, Field{
			Name:  d,
			Value: "Waiting for: " + strings.Join(mentions, ", "),
		})
	}
	if err := t.notifier.Send(ctx, chatID, n); err != nil {
		t.log.Error("reminder send failed", zap.Error(err))
	}
}

// StatusNotification builds the per-user readiness report for one dynasty,
// or all dynasties when dynasty is empty. Returns false for an unknown
// dynasty so the caller can render the error style.
func (t *Tracker) StatusNotification(dynasty string) (Notification, bool) {
	dynasties := t.dynasties
	if dynasty != "" {
		d := strings.ToUpper(dynasty)
		if !t.knownDynasty(d) {
			return Notification{}, false
		}
		dynasties = []string{d}
	}

	n := Notification{
		Title:    "Dynasty Advancement Status",
		Body:     "Current advancement status for each dynasty:",
		Severity: SeverityInfo,
	}
	for _, d := range dynasties {
		status := t.store.DynastyStatus(d)
		if len(status) == 0 {
			continue
		}
		lines := make([]string, 0, len(t.users))
		for _, u := range t.users {
			marker := "⏳"
			if status[u] {
				marker = "✅"
			}
			lines = append(lines, marker+" "+u)
		}
		n.Fields = append(n.Fields, Field{Name: d, Value: strings.Join(lines, "\n")})
	}
	return n, true
}

// Reset clears readiness for one dynasty, or every dynasty when dynasty is
// empty. Returns false for an unknown dynasty.
func (t *Tracker) Reset(dynasty string) (Notification, bool) {
	if dynasty == "" {
		t.store.ResetAll()
		return Notification{
			Title:    "All Dynasties Reset",
			Body:     "Ready status for all dynasties has been reset.",
			Severity: SeveritySuccess,
		}, true
	}

	d := strings.ToUpper(dynasty)
	if !t.store.ResetDynasty(d) {
		return Notification{}, false
	}
	return Notification{
		Title:    d + " Reset",
		Body:     fmt.Sprintf("Ready status for %s has been reset.", d),
		Severity: SeveritySuccess,
	}, true
}

// UnknownDynasty renders the error-styled "not found" notification with the
// available options.
func (t *Tracker) UnknownDynasty(dynasty string) Notification {
	return Notification{
		Title:    "Dynasty Not Found",
		Body:     fmt.Sprintf("Dynasty '%s' not found. Available dynasties: %s", dynasty, strings.Join(t.dynasties, ", ")),
		Severity: SeverityError,
	}
}

func (t *Tracker) knownDynasty(dynasty string) bool {
	for _, d := range t.dynasties {
		if d == dynasty {
			return true
		}
	}
	return false
}
