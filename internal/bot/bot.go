// Package bot is the Telegram front end: it delivers study reminders and
// answers a few read-only commands about today's progress.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studyapp/internal/audio"
	"github.com/example/studyapp/internal/calendar"
	"github.com/example/studyapp/internal/catalog"
	"github.com/example/studyapp/internal/logger"
	"github.com/example/studyapp/internal/scheduler"
	"github.com/example/studyapp/pkg/models"
)

// Sender is the part of the Telegram API the bot uses
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// CatalogReader reads categories and sessions with progress
type CatalogReader interface {
	Overview(ctx context.Context, userID string) (*catalog.Overview, error)
	Category(ctx context.Context, slug string) (*models.Category, error)
	GetSession(ctx context.Context, categoryID string, number int) (*catalog.SessionDetail, error)
}

// MonthReader builds month calendars
type MonthReader interface {
	GetMonth(ctx context.Context, userID string, year int, month time.Month) ([]calendar.Day, error)
}

// SettingsStore reads and patches user settings
type SettingsStore interface {
	Load(ctx context.Context, userID string) (*models.UserSettings, error)
	Update(ctx context.Context, userID string, patch models.SettingsUpdate) (*models.UserSettings, error)
}

// Deps are the services the bot reads from
type Deps struct {
	Catalog  CatalogReader
	Calendar MonthReader
	Settings SettingsStore
	Player   *audio.Coordinator
	Now      func() time.Time
}

// Bot represents the Telegram bot application
type Bot struct {
	api    Sender
	deps   Deps
	chatID int64
	userID string
	config *BotConfig
	log    *logger.Logger
}

var _ scheduler.Notifier = (*Bot)(nil)

// New creates a bot that talks to a single chat on behalf of userID
func New(api Sender, deps Deps, chatID int64, userID string, log *logger.Logger) *Bot {
	if deps.Player == nil {
		deps.Player = audio.NewCoordinator()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Bot{
		api:    api,
		deps:   deps,
		chatID: chatID,
		userID: userID,
		config: DefaultConfig(),
		log:    log.With("component", "bot"),
	}
}

// Connect authorizes against Telegram with token
func Connect(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	return api, nil
}

// Run polls for updates until ctx is done
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) {
	b.log.Info("bot authorized", "account", api.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout
	updates := api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			if h := b.deps.Player.Active(); h != nil {
				h.Stop()
			}
			b.log.Info("bot stopped")
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			go func(m *tgbotapi.Message) {
				if err := b.HandleCommand(ctx, m); err != nil {
					b.log.Error("command failed", "command", m.Command(), "error", err)
				}
			}(update.Message)
		}
	}
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(ctx context.Context, r scheduler.Reminder) error {
	text := fmt.Sprintf("Time to study! %d of %d sessions done today (%s).", r.Completed, r.Goal, r.Day)
	if r.Completed == 0 {
		text = fmt.Sprintf("You haven't studied yet today (%s). Your goal is %d sessions.", r.Day, r.Goal)
	}
	if err := b.send(tgbotapi.NewMessage(b.chatID, text)); err != nil {
		return err
	}
	b.log.Info("reminder sent", "study_date", r.Day, "completed", r.Completed, "goal", r.Goal)
	return nil
}

func (b *Bot) send(c tgbotapi.Chattable) error {
	if _, err := b.api.Send(c); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) error {
	return b.send(tgbotapi.NewMessage(chatID, text))
}
