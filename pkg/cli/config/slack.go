package config

import (
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/apkfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/apkfetch/pkg/infra/slack"
)

// Slack holds Slack notification configuration
type Slack struct {
	WebhookURL string `masq:"secret"`
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL notified after a download",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("APKFETCH_SLACK_WEBHOOK_URL"),
		},
	}
}

// Notifier returns the notifier, or nil when no webhook is configured
func (c *Slack) Notifier() interfaces.Notifier {
	if c.WebhookURL == "" {
		return nil
	}
	return slack.NewNotifier(c.WebhookURL)
}
