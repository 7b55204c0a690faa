package config

import "time"

// NotificationConfig defines configuration for notifications
type NotificationConfig struct {
	EmailsEnabled     bool   `json:"emails_enabled" yaml:"emails_enabled"`
	AdminEmail        string `json:"admin_email,omitempty" yaml:"admin_email,omitempty" validate:"omitempty,email"`
	SenderEmail       string `json:"sender_email,omitempty" yaml:"sender_email,omitempty" validate:"omitempty,email"`
	SMTPHost          string `json:"smtp_host,omitempty" yaml:"smtp_host,omitempty" validate:"omitempty,hostname_rfc1123|ip"`
	SMTPPort          int    `json:"smtp_port,omitempty" yaml:"smtp_port,omitempty" validate:"min=0,max=65535"`
	SMTPUsername      string `json:"smtp_username,omitempty" yaml:"smtp_username,omitempty"`
	SMTPPassword      string `json:"smtp_password,omitempty" yaml:"smtp_password,omitempty"`
	UnsentDir         string `json:"unsent_dir,omitempty" yaml:"unsent_dir,omitempty"`
	SendDelayMillis   int    `json:"send_delay_millis" yaml:"send_delay_millis" validate:"min=0"`
	DiscordWebhookURL string `json:"discord_webhook_url,omitempty" yaml:"discord_webhook_url,omitempty" validate:"omitempty,url"`
	DiscordUsername   string `json:"discord_username,omitempty" yaml:"discord_username,omitempty"`
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		EmailsEnabled:   false,
		SMTPPort:        DefaultSMTPPort,
		SendDelayMillis: DefaultSendDelayMillis,
		DiscordUsername: DefaultDiscordUsername,
	}
}

// SendDelay is the pause between consecutive outbound emails.
func (c NotificationConfig) SendDelay() time.Duration {
	return time.Duration(c.SendDelayMillis) * time.Millisecond
}
