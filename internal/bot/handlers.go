package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studyapp/internal/calendar"
	"github.com/example/studyapp/internal/catalog"
	"github.com/example/studyapp/internal/settings"
	"github.com/example/studyapp/pkg/models"
)

// HandleCommand handles bot commands. Messages from other chats are ignored.
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}
	if b.chatID != 0 && message.Chat.ID != b.chatID {
		b.log.Warn("command from unknown chat ignored", "chat_id", message.Chat.ID)
		return nil
	}

	chatID := message.Chat.ID
	args := strings.Fields(message.CommandArguments())

	var err error
	switch message.Command() {
	case "start", "help":
		err = b.handleHelp(chatID)
	case "today":
		err = b.handleToday(ctx, chatID)
	case "month":
		err = b.handleMonth(ctx, chatID, args)
	case "notify":
		err = b.handleNotify(ctx, chatID, args)
	case "time":
		err = b.handleTime(ctx, chatID, args)
	case "play":
		err = b.handlePlay(ctx, chatID, args)
	case "stop":
		err = b.handleStop(chatID)
	default:
		err = b.reply(chatID, "Unknown command. Use /help to see what I can do.")
	}
	return err
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "📖 Commands\n\n" +
		"/today - today's progress by category\n" +
		"/month [YYYY-MM] - study calendar summary\n" +
		"/notify on|off - daily reminder\n" +
		"/time HH:MM - reminder time\n" +
		"/play <category> <session> - play a session's audio\n" +
		"/stop - stop playback"
	return b.reply(chatID, text)
}

func (b *Bot) handleToday(ctx context.Context, chatID int64) error {
	overview, err := b.deps.Catalog.Overview(ctx, b.userID)
	if err != nil {
		return fmt.Errorf("failed to get overview: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "📊 %s\n\n", overview.Date)
	fmt.Fprintf(&text, "Total: %d/%d (%.2f%%)\n\n", overview.Completed, overview.Total, overview.Percentage)
	for _, c := range overview.Categories {
		fmt.Fprintf(&text, "%s: %d/%d (%d%%)\n", c.Name, c.Completed, c.Total, c.Percentage)
	}
	return b.reply(chatID, text.String())
}

func (b *Bot) handleMonth(ctx context.Context, chatID int64, args []string) error {
	now := b.deps.Now()
	year, month := now.Year(), now.Month()
	if len(args) > 0 {
		t, err := time.Parse("2006-01", args[0])
		if err != nil {
			return b.reply(chatID, "Please use /month YYYY-MM")
		}
		year, month = t.Year(), t.Month()
	}

	days, err := b.deps.Calendar.GetMonth(ctx, b.userID, year, month)
	if err != nil {
		return fmt.Errorf("failed to get month: %w", err)
	}
	summary := calendar.Summary(days)

	var text strings.Builder
	fmt.Fprintf(&text, "🗓 %04d-%02d\n\n", year, int(month))
	for _, d := range days {
		if d.Status == calendar.StatusNotStudied {
			continue
		}
		mark := "◐"
		if d.Status == calendar.StatusCompleted {
			mark = "●"
		}
		fmt.Fprintf(&text, "%s %s %d/%d (%d%%)\n", mark, d.Date, d.SessionsCompleted, d.TotalSessions, d.Percentage)
	}
	fmt.Fprintf(&text, "\nStudied days: %d, completed days: %d, streak: %d", summary.StudiedDays, summary.CompletedDays, summary.Streak)
	return b.reply(chatID, text.String())
}

func (b *Bot) handleNotify(ctx context.Context, chatID int64, args []string) error {
	if len(args) != 1 {
		return b.reply(chatID, "Please use /notify on or /notify off")
	}

	var enabled bool
	switch strings.ToLower(args[0]) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return b.reply(chatID, "Please use /notify on or /notify off")
	}

	s, err := b.deps.Settings.Update(ctx, b.userID, models.SettingsUpdate{DailyReminder: &enabled})
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return b.reply(chatID, fmt.Sprintf("✅ Daily reminder %s (%s)", boolToEnabledString(s.DailyReminder), s.ReminderTime))
}

func (b *Bot) handleTime(ctx context.Context, chatID int64, args []string) error {
	if len(args) != 1 {
		return b.reply(chatID, "Please use /time HH:MM")
	}

	s, err := b.deps.Settings.Update(ctx, b.userID, models.SettingsUpdate{ReminderTime: &args[0]})
	if errors.Is(err, settings.ErrInvalidSetting) {
		return b.reply(chatID, "Please use /time HH:MM")
	}
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return b.reply(chatID, fmt.Sprintf("✅ Reminder time set to %s", s.ReminderTime))
}

func (b *Bot) handlePlay(ctx context.Context, chatID int64, args []string) error {
	if len(args) != 2 {
		return b.reply(chatID, "Please use /play <category> <session>")
	}
	number, err := strconv.Atoi(args[1])
	if err != nil || number < 1 {
		return b.reply(chatID, "Session must be a positive number")
	}

	category, err := b.deps.Catalog.Category(ctx, args[0])
	if err != nil {
		return err
	}
	if category == nil {
		return b.reply(chatID, fmt.Sprintf("No category %q", args[0]))
	}
	detail, err := b.deps.Catalog.GetSession(ctx, category.ID, number)
	if err != nil {
		return err
	}
	if detail == nil {
		return b.reply(chatID, fmt.Sprintf("%s has no session %d", category.Name, number))
	}

	p := newPlayback(ctx)
	b.deps.Player.Acquire(p)
	go func() {
		defer b.deps.Player.Release(p)
		if err := b.play(p, chatID, detail); err != nil {
			b.log.Error("playback failed", "session_id", detail.ID, "error", err)
		}
	}()
	return nil
}

func (b *Bot) handleStop(chatID int64) error {
	h := b.deps.Player.Active()
	if h == nil {
		return b.reply(chatID, "Nothing is playing")
	}
	h.Stop()
	b.deps.Player.Release(h)
	return b.reply(chatID, "⏹ Stopped")
}

// playback is one running /play; stopping it cancels the remaining clips
type playback struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func newPlayback(parent context.Context) *playback {
	ctx, cancel := context.WithCancel(parent)
	return &playback{ctx: ctx, cancel: cancel}
}

func (p *playback) Stop() {
	p.cancel()
}

// play sends the session's clips in order until done or stopped
func (b *Bot) play(p *playback, chatID int64, detail *catalog.SessionDetail) error {
	defer p.cancel()

	if err := b.reply(chatID, fmt.Sprintf("▶️ Session %d: %s", detail.SessionNumber, detail.Title)); err != nil {
		return err
	}
	for i, e := range detail.Expressions {
		if e.AudioURL == nil {
			continue
		}
		if i > 0 && b.config.ClipInterval > 0 {
			select {
			case <-p.ctx.Done():
				return nil
			case <-time.After(b.config.ClipInterval):
			}
		}
		if p.ctx.Err() != nil {
			return nil
		}

		clip := tgbotapi.NewAudio(chatID, tgbotapi.FileURL(*e.AudioURL))
		clip.Caption = fmt.Sprintf("%s\n%s", e.English, e.Korean)
		if err := b.send(clip); err != nil {
			return err
		}
	}
	return nil
}

func boolToEnabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
