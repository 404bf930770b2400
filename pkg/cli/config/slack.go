package config

import (
	"context"
	"log/slog"

	slacksvc "github.com/gjum/newsroom/pkg/service/slack"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for the Slack connection.
type Slack struct {
	botToken      string
	signingSecret string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("NEWSROOM_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for webhook verification)",
			Category:    "Slack",
			Destination: &x.signingSecret,
			Sources:     cli.EnvVars("NEWSROOM_SLACK_SIGNING_SECRET"),
		},
	}
}

// LogValue masks credentials, only their lengths are logged.
func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.Int("signing-secret.len", len(x.signingSecret)),
	)
}

// BotToken returns the Slack bot token
func (x *Slack) BotToken() string {
	return x.botToken
}

// SigningSecret returns the Slack signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}

// IsConfigured checks if the bot token is present
func (x *Slack) IsConfigured() bool {
	return x.botToken != ""
}

// IsWebhookConfigured checks if Slack webhook is configured
func (x *Slack) IsWebhookConfigured() bool {
	return x.signingSecret != ""
}

// Configure creates the Slack service. Both the bot token and the signing
// secret are required to serve the bot.
func (x *Slack) Configure(ctx context.Context) (slacksvc.Service, error) {
	if x.botToken == "" {
		return nil, goerr.New("slack-bot-token is required")
	}
	if x.signingSecret == "" {
		return nil, goerr.New("slack-signing-secret is required")
	}

	svc, err := slacksvc.New(ctx, x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}
	return svc, nil
}
