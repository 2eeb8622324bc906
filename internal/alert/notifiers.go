package alert

import (
	"fmt"
	"log"

	"github.com/slack-go/slack"

	"github.com/sitepulse/pulse/internal/model"
)

// LogNotifier writes alerts to the process log. Always configured.
type LogNotifier struct{}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) Notify(alert model.Alert) error {
	log.Printf("alert [%s] page=%s metric=%s value=%v: %s",
		alert.Severity, alert.Page, alert.Metric, alert.Value, alert.Message)
	return nil
}

// slackPoster is the slice of the Slack client the notifier uses.
type slackPoster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts alerts to a Slack channel.
type SlackNotifier struct {
	api     slackPoster
	channel string
}

// NewSlackNotifier creates a Slack notifier for the given bot token and channel.
func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{
		api:     slack.New(token),
		channel: channel,
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Notify(alert model.Alert) error {
	emoji := ":warning:"
	if alert.Severity == model.SeverityCritical {
		emoji = ":rotating_light:"
	}
	text := fmt.Sprintf("%s *%s* on `%s`\n%s", emoji, alert.Severity, alert.Page, alert.Message)

	_, _, err := s.api.PostMessage(s.channel, slack.MsgOptionText(text, false))
	return err
}
