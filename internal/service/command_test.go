package service

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/biz/repo"
	"github.com/summonlabs/summoner/internal/biz/usecase"
)

// instantClock never blocks
type instantClock struct {
	now time.Time
}

func (c instantClock) Now() time.Time { return c.now }

func (c instantClock) Sleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

type noReactionWaiter struct{}

func (noReactionWaiter) WaitReaction(ctx context.Context, channelID, messageID, userID, emoji string) error {
	<-ctx.Done()
	return ctx.Err()
}

type commandFixture struct {
	*schedulerFixture
	commands *CommandService
}

func newCommandFixture(t *testing.T, now time.Time, quiet domain.QuietHours) *commandFixture {
	t.Helper()
	f := newSchedulerFixture(t, now, quiet, domain.BotState{})
	cleanup := usecase.NewCleanupUsecase(f.chat, noReactionWaiter{}, usecase.CleanupConfig{
		ConfirmTimeout: 10 * time.Millisecond,
	}, nil)
	cmds := NewCommandService(f.pool, f.state, f.summon, cleanup, f.chat, f.scheduler, f.tracker, instantClock{now: now}, nil)
	return &commandFixture{schedulerFixture: f, commands: cmds}
}

func (f *commandFixture) run(t *testing.T, req *CommandRequest) string {
	t.Helper()
	if req.ChannelID == "" {
		req.ChannelID = "cmd-channel"
	}
	before := len(f.chat.sentTexts())
	if err := f.commands.Handle(context.Background(), req); err != nil {
		t.Fatalf("Handle(%s) error = %v", req.Name, err)
	}
	sent := f.chat.sentTexts()
	if len(sent) == before {
		return ""
	}
	return sent[len(sent)-1]
}

func TestCommandService_Stats(t *testing.T) {
	f := newCommandFixture(t, noon, domain.QuietHours{Start: 0, End: 7})

	reply := f.run(t, &CommandRequest{Name: "summon_stats"})
	for _, want := range []string{
		"Total messages: 2 (1 phrases, 1 haikus)",
		"Used messages: 0",
		"Remaining: 2",
		"Last auto-summon: Never",
		"Quiet hours (00:00-07:00): ☀️ INACTIVE",
	} {
		if !strings.Contains(reply, want) {
			t.Errorf("Expected %q in stats reply:\n%s", want, reply)
		}
	}
}

func TestCommandService_PrivilegedRequiresAdmin(t *testing.T) {
	f := newCommandFixture(t, noon, domain.QuietHours{})

	reply := f.run(t, &CommandRequest{Name: "reload_messages", AuthorID: "u1", MessageID: "m1"})
	if !strings.Contains(reply, "administrator permission") {
		t.Errorf("Expected permission notice, got %q", reply)
	}
	if len(f.chat.deleted) != 0 {
		t.Error("Expected invoking message kept for a refused command")
	}

	f.chat.admins["u1"] = true
	reply = f.run(t, &CommandRequest{Name: "reload_messages", AuthorID: "u1", MessageID: "m1"})
	if !strings.HasPrefix(reply, "✅ **Messages reloaded from CSV files!**") {
		t.Errorf("Unexpected reload reply %q", reply)
	}
	if !strings.Contains(reply, "Total: 2 (1 phrases, 1 haikus)") {
		t.Errorf("Unexpected reload counts %q", reply)
	}
	if len(f.chat.deleted) != 1 || f.chat.deleted[0] != "m1" {
		t.Errorf("Expected invoking message deleted, got %v", f.chat.deleted)
	}
}

func TestCommandService_ManualSummonDuringQuietHours(t *testing.T) {
	at3 := time.Date(2024, time.March, 10, 3, 0, 0, 0, time.UTC)
	f := newCommandFixture(t, at3, domain.QuietHours{Start: 0, End: 7})
	f.chat.setStatus(domain.StatusOnline)

	reply := f.run(t, &CommandRequest{Name: "summon", AuthorID: "u1", MentionIDs: []string{"7"}})
	if !strings.Contains(reply, "MANUAL SUMMONING") {
		t.Errorf("Expected manual summon, got %q", reply)
	}
	if !strings.Contains(reply, "Manual summons still work during quiet hours") {
		t.Errorf("Expected quiet-hours warning, got %q", reply)
	}

	reply = f.run(t, &CommandRequest{Name: "summon", Args: []string{"<@missing>"}})
	if reply != "❌ Could not find the target user!" {
		t.Errorf("Unexpected reply for unknown target %q", reply)
	}
}

func TestCommandService_Cleanup(t *testing.T) {
	f := newCommandFixture(t, noon, domain.QuietHours{})

	reply := f.run(t, &CommandRequest{Name: "cleanup", Args: []string{"51"}})
	if reply != "❌ Limit too high! Maximum 50 messages at once." {
		t.Errorf("Unexpected reply %q", reply)
	}

	f.chat.history = []repo.ChatMessage{
		{ID: "b2", AuthorID: "bot", CreatedAt: noon},
		{ID: "b1", AuthorID: "bot", CreatedAt: noon.Add(-time.Minute)},
		{ID: "u1", AuthorID: "u1", CreatedAt: noon.Add(-2 * time.Minute)},
	}
	reply = f.run(t, &CommandRequest{Name: "cleanup", MessageID: "cmd"})
	if reply != "🗑️ Deleted 1 bot messages (kept the latest one)!" {
		t.Errorf("Unexpected reply %q", reply)
	}
	// b1, then the notice, then the invoking message
	if len(f.chat.deleted) != 3 || f.chat.deleted[0] != "b1" || f.chat.deleted[2] != "cmd" {
		t.Errorf("Unexpected deletions %v", f.chat.deleted)
	}
}

func TestCommandService_CleanupAllTimeout(t *testing.T) {
	f := newCommandFixture(t, noon, domain.QuietHours{})
	f.chat.history = []repo.ChatMessage{
		{ID: "b2", AuthorID: "bot", CreatedAt: noon},
		{ID: "b1", AuthorID: "bot", CreatedAt: noon.Add(-time.Minute)},
	}

	f.run(t, &CommandRequest{Name: "cleanup_all", AuthorID: "u1", MessageID: "cmd"})
	if len(f.chat.edited) != 1 || f.chat.edited[0] != "❌ Cleanup cancelled (timeout)" {
		t.Errorf("Expected cancellation notice, got %v", f.chat.edited)
	}
	if len(f.chat.deleted) != 0 {
		t.Errorf("Expected nothing deleted, got %v", f.chat.deleted)
	}
}

func TestCommandService_QuietHoursAndStatus(t *testing.T) {
	at3 := time.Date(2024, time.March, 10, 3, 30, 0, 0, time.UTC)
	f := newCommandFixture(t, at3, domain.QuietHours{Start: 0, End: 7})

	reply := f.run(t, &CommandRequest{Name: "quiet_hours"})
	for _, want := range []string{"ACTIVE", "00:00 - 07:00", "Next summon allowed: 07:00", "Time remaining: 3h 30m"} {
		if !strings.Contains(reply, want) {
			t.Errorf("Expected %q in %q", want, reply)
		}
	}

	if _, err := f.tracker.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	reply = f.run(t, &CommandRequest{Name: "watched_status"})
	for _, want := range []string{"💤", "OFFLINE", "Auto-summoning: ACTIVE", "Quiet hours active until 07:00"} {
		if !strings.Contains(reply, want) {
			t.Errorf("Expected %q in %q", want, reply)
		}
	}
}

func TestCommandService_StopAndRecheck(t *testing.T) {
	f := newCommandFixture(t, noon, domain.QuietHours{})
	f.chat.admins["admin"] = true
	if _, err := f.tracker.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !f.scheduler.IsActive() {
		t.Fatal("Expected Active for an offline watched user")
	}

	reply := f.run(t, &CommandRequest{Name: "stop_summoning", AuthorID: "admin"})
	if !strings.HasPrefix(reply, "🛑 **Automatic summoning stopped!**") {
		t.Errorf("Unexpected reply %q", reply)
	}
	if f.scheduler.IsActive() {
		t.Fatal("Expected Idle after stop_summoning")
	}

	reply = f.run(t, &CommandRequest{Name: "force_summon_check", AuthorID: "admin"})
	if reply != "🔍 **Status check complete!**\nPrevious: offline\nCurrent: offline\nSummoning active: true" {
		t.Errorf("Unexpected reply %q", reply)
	}
}

func TestCommandService_UnknownCommandIgnored(t *testing.T) {
	f := newCommandFixture(t, noon, domain.QuietHours{})
	if reply := f.run(t, &CommandRequest{Name: "dance"}); reply != "" {
		t.Errorf("Expected no reply, got %q", reply)
	}
}

func TestCommandService_Commands(t *testing.T) {
	f := newCommandFixture(t, noon, domain.QuietHours{})
	names := f.commands.Commands()
	if len(names) != 12 {
		t.Fatalf("Expected 12 commands, got %v", names)
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("Expected sorted names, got %v", names)
	}
	for _, want := range []string{"summon", "cleanup_all", "force_summon_check", "stop_summoning"} {
		i := sort.SearchStrings(names, want)
		if i == len(names) || names[i] != want {
			t.Errorf("Expected command %q in %v", want, names)
		}
	}
}
