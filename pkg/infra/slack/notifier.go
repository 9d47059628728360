package slack

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/m-mizutani/apkfetch/pkg/domain/model"
)

// Notifier posts fetch results to a Slack incoming webhook
type Notifier struct {
	webhookURL string
}

// NewNotifier creates a new Notifier for webhookURL
func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{webhookURL: webhookURL}
}

// NotifyFetch posts a summary of result
func (n *Notifier) NotifyFetch(ctx context.Context, app model.AppRef, result *model.FetchResult) error {
	if err := slack.PostWebhookContext(ctx, n.webhookURL, buildMessage(app, result)); err != nil {
		return goerr.Wrap(err, "failed to post Slack webhook")
	}
	return nil
}

func buildMessage(app model.AppRef, result *model.FetchResult) *slack.WebhookMessage {
	r := result.Release
	color := "good"
	if result.Strategy == model.StrategyVersionSubstitute {
		color = "warning"
	}

	fields := []slack.AttachmentField{
		{Title: "Version", Value: r.Label(), Short: true},
		{Title: "Strategy", Value: string(result.Strategy), Short: true},
		{Title: "Path", Value: result.Path, Short: true},
		{Title: "Size", Value: fmt.Sprintf("%d bytes", result.Size), Short: true},
	}
	if r.Notes != "" {
		fields = append(fields, slack.AttachmentField{Title: "Notes", Value: r.Notes})
	}

	return &slack.WebhookMessage{
		Text: fmt.Sprintf("Fetched %s for %s", r.Label(), app.AppID),
		Attachments: []slack.Attachment{
			{
				Color:     color,
				Title:     r.Name,
				TitleLink: r.ConsoleURI,
				Fields:    fields,
			},
		},
	}
}
