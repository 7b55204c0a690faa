package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/robotswatch/internal/models"

	"github.com/rs/zerolog"
)

const (
	maxEmbedDescriptionLength = 4096
	maxDiscordAttachments     = 10
	maxDiscordFileSize        = 8 * 1024 * 1024 // 8MB, Discord's typical limit without Nitro
	digestEmbedColor          = 0x5BC0DE
)

// DiscordNotifier posts messages to a Discord webhook, one embed per message.
type DiscordNotifier struct {
	webhookURL string
	username   string
	httpClient *http.Client
	now        func() time.Time
	logger     zerolog.Logger
}

// NewDiscordNotifier creates a DiscordNotifier. A nil httpClient gets a 20s timeout default.
func NewDiscordNotifier(webhookURL, username string, httpClient *http.Client, logger zerolog.Logger) (*DiscordNotifier, error) {
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return nil, fmt.Errorf("invalid discord webhook URL: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &DiscordNotifier{
		webhookURL: webhookURL,
		username:   username,
		httpClient: httpClient,
		now:        time.Now,
		logger:     logger.With().Str("component", "DiscordNotifier").Logger(),
	}, nil
}

// Send posts msg to the webhook. Attachments that are missing or too large are skipped.
func (dn *DiscordNotifier) Send(ctx context.Context, msg models.Message) error {
	payload := NewDiscordMessagePayloadBuilder().
		WithUsername(dn.username).
		WithAllowedMentions(models.AllowedMentions{Parse: []string{}}).
		AddEmbed(models.DiscordEmbed{
			Title:       truncateString(msg.Subject, 256),
			Description: truncateString(msg.Body, maxEmbedDescriptionLength),
			Timestamp:   dn.now().Format(time.RFC3339),
			Color:       digestEmbedColor,
			Footer:      &models.DiscordEmbedFooter{Text: "To: " + msg.Address},
		}).
		Build()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}
	if err := writer.WriteField("payload_json", string(payloadJSON)); err != nil {
		return fmt.Errorf("failed to write payload_json to multipart: %w", err)
	}

	for i, path := range msg.Attachments {
		if i >= maxDiscordAttachments {
			dn.logger.Warn().Int("skipped", len(msg.Attachments)-i).Msg("Too many attachments for Discord")
			break
		}
		if err := dn.attach(writer, i, path); err != nil {
			dn.logger.Warn().Err(err).Str("file_path", path).Msg("Skipping Discord attachment")
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dn.webhookURL, body)
	if err != nil {
		return fmt.Errorf("failed to create discord request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := dn.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send discord notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord notification failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	dn.logger.Info().Int("status_code", resp.StatusCode).Str("subject", msg.Subject).Msg("Discord notification sent")
	return nil
}

func (dn *DiscordNotifier) attach(writer *multipart.Writer, index int, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > maxDiscordFileSize {
		return fmt.Errorf("file is %d bytes, over the %d byte limit", info.Size(), maxDiscordFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	part, err := writer.CreateFormFile(fmt.Sprintf("files[%d]", index), filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, bytes.NewReader(data))
	return err
}

func truncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength-3]) + "..."
}
