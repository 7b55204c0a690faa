package notifier

import "github.com/aleister1102/robotswatch/internal/models"

// DiscordMessagePayloadBuilder helps in constructing models.DiscordMessagePayload objects.
type DiscordMessagePayloadBuilder struct {
	payload models.DiscordMessagePayload
}

// NewDiscordMessagePayloadBuilder creates a new instance of DiscordMessagePayloadBuilder.
func NewDiscordMessagePayloadBuilder() *DiscordMessagePayloadBuilder {
	return &DiscordMessagePayloadBuilder{}
}

// WithContent sets the plain content shown above the embeds.
func (b *DiscordMessagePayloadBuilder) WithContent(content string) *DiscordMessagePayloadBuilder {
	b.payload.Content = content
	return b
}

// WithUsername overrides the webhook's display name.
func (b *DiscordMessagePayloadBuilder) WithUsername(username string) *DiscordMessagePayloadBuilder {
	b.payload.Username = username
	return b
}

// AddEmbed appends an embed.
func (b *DiscordMessagePayloadBuilder) AddEmbed(embed models.DiscordEmbed) *DiscordMessagePayloadBuilder {
	b.payload.Embeds = append(b.payload.Embeds, embed)
	return b
}

// WithAllowedMentions restricts which mentions Discord resolves.
func (b *DiscordMessagePayloadBuilder) WithAllowedMentions(allowedMentions models.AllowedMentions) *DiscordMessagePayloadBuilder {
	b.payload.AllowedMentions = &allowedMentions
	return b
}

// Build returns the payload.
func (b *DiscordMessagePayloadBuilder) Build() models.DiscordMessagePayload {
	return b.payload
}
