package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/slack-go/slack"

	"github.com/courtoo/booking-engine/internal/booking"
	"github.com/courtoo/booking-engine/internal/metrics"
	"github.com/courtoo/booking-engine/internal/notifier"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// Implement the Notifier interface
func (s *Notifier) SendBookingNotification(view booking.MatchView, dryRun bool) error {
	msg := s.formatBookingNotification(view)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendCancellationNotification(view booking.MatchView, dryRun bool) error {
	msg := s.formatCancellationNotification(view)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendResultNotification(view booking.MatchView, winnerNames []string, dryRun bool) error {
	msg := s.formatResultNotification(view, winnerNames)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// formatBookingNotification creates the Slack message for a new match booking using Block Kit.
func (s *Notifier) formatBookingNotification(view booking.MatchView) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🎾 New match booked! 🎾", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	start := time.Unix(view.Start, 0)
	end := time.Unix(view.End, 0)
	details := fmt.Sprintf("*%s* at *%s*\n%s\n%s - %s",
		matchTypeLabel(view.MatchType),
		view.ClubName,
		view.CourtName,
		start.Format("Mon, 2 Jan 15:04"),
		end.Format("15:04"),
	)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", details, false, false), nil, nil))

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Level:*\n%s (%.1f)", view.SkillLevel, view.Level), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Spots:*\n%d/%d", len(view.Participants), view.Capacity()), false, false),
	}
	if view.PricePerPerson > 0 {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Price:*\n%.2f", float64(view.PricePerPerson)/100), false, false))
	}
	blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatCancellationNotification creates the Slack message for a cancelled match.
func (s *Notifier) formatCancellationNotification(view booking.MatchView) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "❌ Match cancelled", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	start := time.Unix(view.Start, 0)
	details := fmt.Sprintf("*%s* at *%s* on %s has been cancelled.",
		matchTypeLabel(view.MatchType),
		view.ClubName,
		start.Format("Mon, 2 Jan 15:04"),
	)
	if paid := paidCount(view.Participants); paid > 0 && view.PricePerPerson > 0 {
		details += fmt.Sprintf("\nRefunds are on the way for %d player(s).", paid)
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", details, false, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatResultNotification creates the Slack message for a completed match.
func (s *Notifier) formatResultNotification(view booking.MatchView, winnerNames []string) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏆 Match finished! 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	start := time.Unix(view.Start, 0)
	details := fmt.Sprintf("*%s* at *%s* on %s",
		matchTypeLabel(view.MatchType),
		view.ClubName,
		start.Format("Mon, 2 Jan"),
	)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", details, false, false), nil, nil))

	if len(winnerNames) > 0 {
		winners := fmt.Sprintf("*Winners:* %s 🎉", strings.Join(winnerNames, ", "))
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", winners, false, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

func matchTypeLabel(t booking.MatchType) string {
	switch t {
	case booking.MatchTypeSingles:
		return "Singles"
	case booking.MatchTypeDoubles:
		return "Doubles"
	case booking.MatchTypeMixedDoubles:
		return "Mixed doubles"
	}
	return string(t)
}

func paidCount(participants []booking.Participant) int {
	n := 0
	for _, p := range participants {
		if p.IsPaid {
			n++
		}
	}
	return n
}
