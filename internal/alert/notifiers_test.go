package alert

import (
	"errors"
	"testing"

	"github.com/slack-go/slack"

	"github.com/sitepulse/pulse/internal/model"
)

type fakePoster struct {
	channels []string
	err      error
}

func (f *fakePoster) PostMessage(channelID string, options ...slack.MsgOption) (string, string, error) {
	f.channels = append(f.channels, channelID)
	return channelID, "", f.err
}

func TestSlackNotifier_PostsToChannel(t *testing.T) {
	poster := &fakePoster{}
	n := &SlackNotifier{api: poster, channel: "#perf-alerts"}

	err := n.Notify(model.Alert{
		Severity: model.SeverityCritical,
		Metric:   "lcp",
		Value:    4200,
		Message:  "lcp regressed",
		Page:     "/products",
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(poster.channels) != 1 || poster.channels[0] != "#perf-alerts" {
		t.Errorf("posted to %v, want [#perf-alerts]", poster.channels)
	}
}

func TestSlackNotifier_PropagatesError(t *testing.T) {
	poster := &fakePoster{err: errors.New("channel_not_found")}
	n := &SlackNotifier{api: poster, channel: "#missing"}

	if err := n.Notify(model.Alert{Severity: model.SeverityWarning}); err == nil {
		t.Error("Notify should propagate the post error")
	}
}

func TestLogNotifier_NeverFails(t *testing.T) {
	if err := (LogNotifier{}).Notify(model.Alert{Severity: model.SeverityWarning, Metric: "cls"}); err != nil {
		t.Errorf("LogNotifier.Notify: %v", err)
	}
}
