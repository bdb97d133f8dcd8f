package tracker

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/samsonite000/Discord-bot/internal/store"
)

const testChatID int64 = -100500

type sentNotification struct {
	chatID int64
	n      Notification
}

type fakeNotifier struct {
	sent []sentNotification
}

func (f *fakeNotifier) Send(_ context.Context, chatID int64, n Notification) error {
	f.sent = append(f.sent, sentNotification{chatID: chatID, n: n})
	return nil
}

type fakeChannel struct {
	deleted []MessageRef
}

func (f *fakeChannel) DeleteMessage(_ context.Context, ref MessageRef) error {
	f.deleted = append(f.deleted, ref)
	return nil
}

func (f *fakeChannel) ResolveMention(_ context.Context, trackedUser string) string {
	return "@" + trackedUser
}

func newTestTracker(t *testing.T, dynasties, users []string) (*Tracker, *fakeNotifier, *fakeChannel, *store.Store) {
	t.Helper()
	st, err := store.New(dynasties, users, filepath.Join(t.TempDir(), "dynasties.json"), zap.NewNop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	notifier := &fakeNotifier{}
	channel := &fakeChannel{}
	trk := New(Config{
		Dynasties: dynasties,
		Users:     users,
		ChatID:    testChatID,
		Weekday:   time.Saturday,
		Hour:      9,
	}, st, notifier, channel, zap.NewNop())
	return trk, notifier, channel, st
}

func TestHandleSignal_CompletionTriggersAutoReset(t *testing.T) {
	users := []string{"Samsonite000", "chaseisntonfire", "Nmatt73"}
	trk, notifier, channel, st := newTestTracker(t, []string{"ADHNN"}, users)
	ctx := context.Background()
	ref := MessageRef{ChatID: testChatID, MessageID: 42}

	trk.HandleSignal(ctx, ref, Signal{User: "Samsonite000", Dynasty: "ADHNN"})
	trk.HandleSignal(ctx, ref, Signal{User: "chaseisntonfire", Dynasty: "ADHNN"})

	// Two confirmations so far, dynasty still pending.
	if len(notifier.sent) != 2 {
		t.Fatalf("want 2 confirmations, got %d", len(notifier.sent))
	}
	if !st.IsReady("Samsonite000", "ADHNN") || !st.IsReady("chaseisntonfire", "ADHNN") {
		t.Fatalf("first two users should be ready")
	}

	trk.HandleSignal(ctx, ref, Signal{User: "Nmatt73", Dynasty: "ADHNN"})

	// Third signal: one confirmation plus exactly one broadcast.
	if len(notifier.sent) != 4 {
		t.Fatalf("want 4 notifications after completion, got %d", len(notifier.sent))
	}
	broadcast := notifier.sent[3].n
	if broadcast.Title != "ADHNN Ready to Advance!" {
		t.Fatalf("unexpected broadcast title: %q", broadcast.Title)
	}
	if len(broadcast.Mentions) != len(users) {
		t.Fatalf("broadcast should mention all %d users, got %v", len(users), broadcast.Mentions)
	}
	for i, u := range users {
		if broadcast.Mentions[i] != "@"+u {
			t.Fatalf("mention %d: want @%s, got %s", i, u, broadcast.Mentions[i])
		}
	}

	// Auto-reset cleared the dynasty.
	for _, u := range users {
		if st.IsReady(u, "ADHNN") {
			t.Fatalf("user %s still ready after auto-reset", u)
		}
	}

	// Every signal attempted deletion of its originating message.
	if len(channel.deleted) != 3 {
		t.Fatalf("want 3 delete attempts, got %d", len(channel.deleted))
	}
}

func TestHandleSignal_UnknownDynastyHasNoSideEffects(t *testing.T) {
	trk, notifier, channel, _ := newTestTracker(t, []string{"ADHNN"}, []string{"Nmatt73"})

	trk.HandleSignal(context.Background(), MessageRef{ChatID: testChatID}, Signal{User: "Nmatt73", Dynasty: "NOPE"})

	if len(notifier.sent) != 0 {
		t.Fatalf("rejected signal must not notify, got %v", notifier.sent)
	}
	if len(channel.deleted) != 0 {
		t.Fatalf("rejected signal must not delete messages")
	}
}

func TestTick_FiresOnlyInConfiguredSlot(t *testing.T) {
	users := []string{"X", "Y"}
	trk, notifier, _, st := newTestTracker(t, []string{"AAAAA", "BBBBB"}, users)
	ctx := context.Background()

	st.SetReady("X", "AAAAA", true)
	st.SetReady("X", "BBBBB", true)
	st.SetReady("Y", "BBBBB", true)

	// 2026-08-29 is a Saturday; config slot is Saturday 09:00.
	wrongHour := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	wrongDay := time.Date(2026, time.August, 28, 9, 0, 0, 0, time.UTC)
	trk.Tick(ctx, wrongHour)
	trk.Tick(ctx, wrongDay)
	if len(notifier.sent) != 0 {
		t.Fatalf("tick outside the slot must emit nothing, got %d", len(notifier.sent))
	}

	match := time.Date(2026, time.August, 29, 9, 12, 0, 0, time.UTC)
	trk.Tick(ctx, match)
	if len(notifier.sent) != 1 {
		t.Fatalf("want exactly one reminder, got %d", len(notifier.sent))
	}

	reminder := notifier.sent[0]
	if reminder.chatID != testChatID {
		t.Fatalf("reminder went to chat %d, want %d", reminder.chatID, testChatID)
	}
	if len(reminder.n.Fields) != 1 {
		t.Fatalf("only the lagging dynasty should be listed, got %v", reminder.n.Fields)
	}
	field := reminder.n.Fields[0]
	if field.Name != "AAAAA" {
		t.Fatalf("want dynasty AAAAA listed, got %s", field.Name)
	}
	if !strings.Contains(field.Value, "@Y") || strings.Contains(field.Value, "@X") {
		t.Fatalf("reminder should list only Y, got %q", field.Value)
	}
}

// Known quirk: the slot gate checks weekday+hour only, so a second wakeup
// inside the same matching hour fires the reminder again.
func TestTick_RefiresWithinMatchingHour(t *testing.T) {
	trk, notifier, _, _ := newTestTracker(t, []string{"AAAAA"}, []string{"X"})
	ctx := context.Background()

	first := time.Date(2026, time.August, 29, 9, 0, 0, 0, time.UTC)
	second := time.Date(2026, time.August, 29, 9, 30, 0, 0, time.UTC)
	trk.Tick(ctx, first)
	trk.Tick(ctx, second)

	if len(notifier.sent) != 2 {
		t.Fatalf("both ticks inside the hour fire: want 2 reminders, got %d", len(notifier.sent))
	}
}

func TestTick_AllReadyEmitsAllCaughtUp(t *testing.T) {
	trk, notifier, _, st := newTestTracker(t, []string{"AAAAA"}, []string{"X"})

	st.SetReady("X", "AAAAA", true)
	trk.Tick(context.Background(), time.Date(2026, time.August, 29, 9, 0, 0, 0, time.UTC))

	if len(notifier.sent) != 1 {
		t.Fatalf("want the all-caught-up notice, got %d sends", len(notifier.sent))
	}
	got := notifier.sent[0]
	if got.chatID != testChatID {
		t.Fatalf("notice went to chat %d, want %d", got.chatID, testChatID)
	}
	if got.n.Title != "All Caught Up!" || got.n.Severity != SeveritySuccess {
		t.Fatalf("unexpected notification: %+v", got.n)
	}
}

func TestRemindNow_AllCaughtUp(t *testing.T) {
	trk, notifier, _, st := newTestTracker(t, []string{"AAAAA"}, []string{"X"})

	st.SetReady("X", "AAAAA", true)
	if !trk.RemindNow(context.Background(), testChatID, "") {
		t.Fatalf("RemindNow should succeed for the full universe")
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("want the all-caught-up notice, got %d sends", len(notifier.sent))
	}
	if notifier.sent[0].n.Title != "All Caught Up!" {
		t.Fatalf("unexpected title %q", notifier.sent[0].n.Title)
	}
}

func TestRemindNow_UnknownDynasty(t *testing.T) {
	trk, notifier, _, _ := newTestTracker(t, []string{"AAAAA"}, []string{"X"})

	if trk.RemindNow(context.Background(), testChatID, "nope") {
		t.Fatalf("RemindNow must reject an unknown dynasty")
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("rejected notify must not send")
	}
}

func TestReset_SingleAndAll(t *testing.T) {
	trk, _, _, st := newTestTracker(t, []string{"AAAAA", "BBBBB"}, []string{"X"})

	st.SetReady("X", "AAAAA", true)
	st.SetReady("X", "BBBBB", true)

	n, ok := trk.Reset("aaaaa")
	if !ok {
		t.Fatalf("reset of known dynasty failed")
	}
	if n.Title != "AAAAA Reset" {
		t.Fatalf("unexpected reset title %q", n.Title)
	}
	if st.IsReady("X", "AAAAA") || !st.IsReady("X", "BBBBB") {
		t.Fatalf("single reset touched the wrong dynasty")
	}

	if _, ok := trk.Reset("NOPE"); ok {
		t.Fatalf("reset of unknown dynasty must fail")
	}

	if _, ok := trk.Reset(""); !ok {
		t.Fatalf("reset-all failed")
	}
	if st.IsReady("X", "BBBBB") {
		t.Fatalf("reset-all left readiness behind")
	}
}

func TestStatusNotification(t *testing.T) {
	trk, _, _, st := newTestTracker(t, []string{"AAAAA", "BBBBB"}, []string{"X", "Y"})
	st.SetReady("X", "AAAAA", true)

	n, ok := trk.StatusNotification("")
	if !ok {
		t.Fatalf("status for all dynasties failed")
	}
	if len(n.Fields) != 2 {
		t.Fatalf("want one field per dynasty, got %v", n.Fields)
	}
	if !strings.Contains(n.Fields[0].Value, "✅ X") || !strings.Contains(n.Fields[0].Value, "⏳ Y") {
		t.Fatalf("unexpected status rendering: %q", n.Fields[0].Value)
	}

	single, ok := trk.StatusNotification("bbbbb")
	if !ok || len(single.Fields) != 1 || single.Fields[0].Name != "BBBBB" {
		t.Fatalf("single-dynasty status wrong: %v ok=%v", single.Fields, ok)
	}

	if _, ok := trk.StatusNotification("NOPE"); ok {
		t.Fatalf("status for unknown dynasty must fail")
	}
}
