package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/aleister1102/robotswatch/internal/config"
	"github.com/aleister1102/robotswatch/internal/models"

	"github.com/rs/zerolog"
)

// FlushResult counts what happened to the messages of one flush.
type FlushResult struct {
	Sent    int
	Saved   int
	Dropped int
	// Errors are delivery failures worth an administrator's attention.
	Errors []string
}

func (r *FlushResult) merge(other FlushResult) {
	r.Sent += other.Sent
	r.Saved += other.Saved
	r.Dropped += other.Dropped
	r.Errors = append(r.Errors, other.Errors...)
}

// NotificationHelper queues messages during a run and delivers them afterwards.
// Undeliverable messages are saved to the unsent store instead of being lost.
type NotificationHelper struct {
	email         Notifier
	discord       Notifier
	unsent        *UnsentStore
	emailsEnabled bool
	adminEmail    string
	sendDelay     time.Duration
	sleep         func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	queue []models.Message

	logger zerolog.Logger
}

// NotificationHelperDeps are the delivery channels. Discord may be nil.
type NotificationHelperDeps struct {
	Email   Notifier
	Discord Notifier
	Unsent  *UnsentStore
}

// NewNotificationHelper creates a NotificationHelper
func NewNotificationHelper(cfg config.NotificationConfig, deps NotificationHelperDeps, logger zerolog.Logger) *NotificationHelper {
	return &NotificationHelper{
		email:         deps.Email,
		discord:       deps.Discord,
		unsent:        deps.Unsent,
		emailsEnabled: cfg.EmailsEnabled,
		adminEmail:    cfg.AdminEmail,
		sendDelay:     cfg.SendDelay(),
		sleep:         common.SleepWithContext,
		logger:        logger.With().Str("component", "NotificationHelper").Logger(),
	}
}

// NewNotificationHelperFromConfig wires the SMTP and Discord channels described by cfg.
func NewNotificationHelperFromConfig(cfg config.NotificationConfig, unsentDir string, logger zerolog.Logger) (*NotificationHelper, error) {
	deps := NotificationHelperDeps{Unsent: NewUnsentStore(unsentDir, logger)}
	if cfg.EmailsEnabled {
		deps.Email = NewSMTPNotifier(cfg, logger)
	}
	if cfg.DiscordWebhookURL != "" {
		discord, err := NewDiscordNotifier(cfg.DiscordWebhookURL, cfg.DiscordUsername, nil, logger)
		if err != nil {
			return nil, err
		}
		deps.Discord = discord
	}
	return NewNotificationHelper(cfg, deps, logger), nil
}

// WithSleep replaces the pause between emails, mainly for tests.
func (nh *NotificationHelper) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *NotificationHelper {
	nh.sleep = sleep
	return nh
}

// AdminEmail returns the administrator's address.
func (nh *NotificationHelper) AdminEmail() string {
	return nh.adminEmail
}

// Enqueue adds msg to the pending queue. Safe for concurrent use.
func (nh *NotificationHelper) Enqueue(msg models.Message) {
	nh.mu.Lock()
	defer nh.mu.Unlock()
	nh.queue = append(nh.queue, msg)
}

// Pending returns the number of queued messages.
func (nh *NotificationHelper) Pending() int {
	nh.mu.Lock()
	defer nh.mu.Unlock()
	return len(nh.queue)
}

// Flush delivers and clears the queue, in the order messages were queued.
func (nh *NotificationHelper) Flush(ctx context.Context) FlushResult {
	nh.mu.Lock()
	messages := nh.queue
	nh.queue = nil
	nh.mu.Unlock()

	return nh.deliver(ctx, messages)
}

// SendNow delivers msg immediately, bypassing the queue.
func (nh *NotificationHelper) SendNow(ctx context.Context, msg models.Message) FlushResult {
	return nh.deliver(ctx, []models.Message{msg})
}

func (nh *NotificationHelper) deliver(ctx context.Context, messages []models.Message) FlushResult {
	var result FlushResult
	if len(messages) == 0 {
		return result
	}

	nh.logger.Info().Int("count", len(messages)).Bool("emails_enabled", nh.emailsEnabled).Msg("Delivering messages")

	loginFailed := false
	for i, msg := range messages {
		result.merge(nh.mirrorToDiscord(ctx, msg))

		if !nh.emailsEnabled || nh.email == nil {
			nh.logger.Info().Str("to", msg.Address).Str("subject", msg.Subject).Msg("Emails disabled, message dropped")
			result.Dropped++
			continue
		}

		if loginFailed {
			result.merge(nh.saveUnsent(msg))
			continue
		}

		if i > 0 && nh.sendDelay > 0 {
			if err := nh.sleep(ctx, nh.sendDelay); err != nil {
				nh.logger.Warn().Err(err).Msg("Send delay interrupted")
			}
		}

		err := nh.email.Send(ctx, msg)
		if err == nil {
			result.Sent++
			continue
		}

		if errors.Is(err, ErrAuthentication) {
			loginFailed = true
			result.Errors = append(result.Errors, fmt.Sprintf("Email login failed; no further emails will be sent this run. Please check the SMTP credentials.\nDETAILS: %v", err))
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("Error sending email to %s.\nDETAILS: %v", msg.Address, err))
		}
		nh.logger.Error().Err(err).Str("to", msg.Address).Msg("Failed to send email")
		result.merge(nh.saveUnsent(msg))
	}

	return result
}

// mirrorToDiscord posts administrator messages to Discord when a webhook is configured.
func (nh *NotificationHelper) mirrorToDiscord(ctx context.Context, msg models.Message) FlushResult {
	var result FlushResult
	if nh.discord == nil || msg.Address != nh.adminEmail {
		return result
	}
	if err := nh.discord.Send(ctx, msg); err != nil {
		nh.logger.Error().Err(err).Msg("Failed to mirror message to Discord")
		result.Errors = append(result.Errors, fmt.Sprintf("Error posting to Discord.\nDETAILS: %v", err))
	}
	return result
}

func (nh *NotificationHelper) saveUnsent(msg models.Message) FlushResult {
	var result FlushResult
	if nh.unsent == nil {
		result.Dropped++
		return result
	}
	if _, err := nh.unsent.Save(msg); err != nil {
		nh.logger.Error().Err(err).Str("to", msg.Address).Msg("Failed to save unsent message")
		result.Errors = append(result.Errors, fmt.Sprintf("Error saving unsent email to %s.\nDETAILS: %v", msg.Address, err))
		result.Dropped++
		return result
	}
	result.Saved++
	return result
}
