package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// CronParser is the five-field parser shared by validation and the scheduler.
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewValidator returns a validator with the project's custom tags registered.
func NewValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "debug", "info", "warn", "error", "fatal", "panic":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("mode", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", ModeOnetime, ModeAutomated:
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		_, err := CronParser.Parse(fl.Field().String())
		return err == nil
	})

	_ = validate.RegisterValidation("compression", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "zstd", "snappy", "gzip", "none":
			return true
		default:
			return false
		}
	})

	return validate
}

// ValidateConfig performs validation on the GlobalConfig structure.
func ValidateConfig(cfg *GlobalConfig) error {
	if err := NewValidator().Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			messages := make([]string, 0, len(errs))
			for _, e := range errs {
				msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", strings.TrimPrefix(e.Namespace(), "GlobalConfig."), e.Tag())
				if e.Param() != "" {
					msg += fmt.Sprintf(" (expected: %s)", e.Param())
				}
				if e.Value() != nil && e.Value() != "" {
					msg += fmt.Sprintf(", actual: '%v'", e.Value())
				}
				messages = append(messages, msg)
			}
			return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(messages, "\n  "))
		}
		return fmt.Errorf("configuration validation error: %w", err)
	}

	return validateNotificationConfig(cfg.NotificationConfig)
}

func validateNotificationConfig(cfg NotificationConfig) error {
	if !cfg.EmailsEnabled {
		return nil
	}

	var collector common.ErrorCollector
	if cfg.AdminEmail == "" {
		collector.Add(common.NewConfigurationError("notification_config", "admin_email", "required when emails are enabled"))
	}
	if cfg.SenderEmail == "" {
		collector.Add(common.NewConfigurationError("notification_config", "sender_email", "required when emails are enabled"))
	}
	if cfg.SMTPHost == "" {
		collector.Add(common.NewConfigurationError("notification_config", "smtp_host", "required when emails are enabled"))
	}
	if cfg.SMTPPort == 0 {
		collector.Add(common.NewConfigurationError("notification_config", "smtp_port", "required when emails are enabled"))
	}
	return collector.Error()
}
