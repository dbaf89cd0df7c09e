package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"

	slackSvc "github.com/secmon-lab/warden/pkg/service/slack"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

// Slack holds CLI flags for the Slack approval channel
type Slack struct {
	oauthToken string
	channel    string
}

// Flags returns CLI flags for Slack configuration
func (s *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-oauth-token",
			Usage:       "Slack Bot OAuth token for the approval channel",
			Sources:     cli.EnvVars("WARDEN_SLACK_OAUTH_TOKEN"),
			Destination: &s.oauthToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel ID where approval cards are posted",
			Sources:     cli.EnvVars("WARDEN_SLACK_CHANNEL"),
			Destination: &s.channel,
		},
	}
}

// IsConfigured returns true when both the token and channel are set
func (s *Slack) IsConfigured() bool {
	return s.oauthToken != "" && s.channel != ""
}

// Configure initializes the Slack approval-channel service. Returns nil
// without error when Slack is not configured: approval cards are then
// logged only.
func (s *Slack) Configure() (slackSvc.Service, error) {
	if !s.IsConfigured() {
		logging.Default().Warn("Slack is not configured, approval notifications are disabled")
		return nil, nil
	}

	svc, err := slackSvc.New(s.oauthToken, s.channel)
	if err != nil {
		return nil, err
	}

	logging.Default().Info("Using Slack approval channel", "channel", s.channel)
	return svc, nil
}

// LogValue implements slog.LogValuer, masking the token
func (s *Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("has_oauth_token", s.oauthToken != ""),
		slog.String("channel", s.channel),
	)
}
