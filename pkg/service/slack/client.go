package slack

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/slack-go/slack"
)

// Block Kit action IDs for approval card buttons. The relay that forwards
// button clicks to /webhook/approval maps these to decision kinds.
const (
	ActionIDReEnable    = "warden_re_enable"
	ActionIDKeepBlocked = "warden_keep_blocked"
	approvalBlockID     = "warden_approval_buttons"
)

// client implements Service
type client struct {
	api     *slack.Client
	channel string
}

// Option is a functional option for client configuration
type Option func(*client)

// WithAPIClient replaces the underlying Slack API client, used by tests
// with a stub server.
func WithAPIClient(api *slack.Client) Option {
	return func(c *client) {
		c.api = api
	}
}

// New creates a new Slack approval-channel service with the provided bot
// token and target channel
func New(token, channel string, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channel == "" {
		return nil, goerr.New("Slack approval channel is required")
	}

	c := &client{
		api:     slack.New(token),
		channel: channel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SendApprovalCard posts an interactive card for a pending mitigation
// action with re-enable / keep-blocked response options
func (c *client) SendApprovalCard(ctx context.Context, action *model.MitigationAction) error {
	header := slack.NewHeaderBlock(
		slack.NewTextBlockObject(slack.PlainTextType, "High-risk principal blocked", false, false),
	)

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Principal:*\n%s", action.PrincipalID), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Risk score:*\n%d/100", action.Score), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Action:*\n%s", action.Kind), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Reason:*\n%s", action.Reason), false, false),
	}
	section := slack.NewSectionBlock(nil, fields, nil)

	reEnable := slack.NewButtonBlockElement(ActionIDReEnable, action.Token.String(),
		slack.NewTextBlockObject(slack.PlainTextType, "Re-enable", false, false))
	reEnable.Style = slack.StylePrimary
	keepBlocked := slack.NewButtonBlockElement(ActionIDKeepBlocked, action.Token.String(),
		slack.NewTextBlockObject(slack.PlainTextType, "Keep blocked", false, false))
	keepBlocked.Style = slack.StyleDanger

	actions := slack.NewActionBlock(approvalBlockID, reEnable, keepBlocked)

	fallback := fmt.Sprintf("Mitigation applied to %s (score %d): %s",
		action.PrincipalID, action.Score, action.Reason)

	_, _, err := c.api.PostMessageContext(ctx, c.channel,
		slack.MsgOptionText(fallback, false),
		slack.MsgOptionBlocks(header, section, actions),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post approval card",
			goerr.V("channel", c.channel),
			goerr.V("principal_id", action.PrincipalID),
			goerr.V("token", action.Token),
		)
	}

	return nil
}

// SendAlert posts a plain notification to the approval channel
func (c *client) SendAlert(ctx context.Context, principalID, text string) error {
	msg := fmt.Sprintf("%s: %s", principalID, text)
	_, _, err := c.api.PostMessageContext(ctx, c.channel, slack.MsgOptionText(msg, false))
	if err != nil {
		return goerr.Wrap(err, "failed to post alert",
			goerr.V("channel", c.channel),
			goerr.V("principal_id", principalID),
		)
	}
	return nil
}
