// Package teamchat is a Mattermost-compatible client used for escalation
// notifications and agent presence lookups.
package teamchat

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"carebridge/chat-api/internal/config"
)

// Client talks to the team-chat server's REST API.
type Client struct {
	http      *resty.Client
	channelID string
	botUserID string
	log       zerolog.Logger
}

// New builds the client. With no base URL configured every call is a
// logged no-op so the service runs without a team-chat deployment.
func New(cfg *config.Config, log zerolog.Logger) *Client {
	c := &Client{
		channelID: cfg.TeamChatChannelID,
		log:       log.With().Str("component", "teamchat").Logger(),
	}
	if cfg.TeamChatBaseURL == "" {
		c.log.Info().Msg("team chat disabled, notifications will be dropped")
		return c
	}
	c.http = resty.New().
		SetBaseURL(cfg.TeamChatBaseURL).
		SetTimeout(cfg.TeamChatTimeout).
		SetAuthToken(cfg.TeamChatToken).
		SetHeader("Content-Type", "application/json")
	return c
}

type postRequest struct {
	ChannelID string `json:"channel_id"`
	Message   string `json:"message"`
}

type channelResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// NotifyTeam posts to the escalation channel.
func (c *Client) NotifyTeam(ctx context.Context, text string) error {
	if c.http == nil {
		c.log.Debug().Msg("dropping team notification, client disabled")
		return nil
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(postRequest{ChannelID: c.channelID, Message: text}).
		Post("/api/v4/posts")
	if err != nil {
		return fmt.Errorf("post team message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("post team message: status %d", resp.StatusCode())
	}
	return nil
}

// NotifyAgent opens a direct channel to the agent and posts there.
func (c *Client) NotifyAgent(ctx context.Context, teamChatUserID, text string) error {
	if c.http == nil {
		c.log.Debug().Msg("dropping agent notification, client disabled")
		return nil
	}

	var channel channelResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody([]string{c.botUserID, teamChatUserID}).
		SetResult(&channel).
		Post("/api/v4/channels/direct")
	if err != nil {
		return fmt.Errorf("open direct channel: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("open direct channel: status %d", resp.StatusCode())
	}

	resp, err = c.http.R().
		SetContext(ctx).
		SetBody(postRequest{ChannelID: channel.ID, Message: text}).
		Post("/api/v4/posts")
	if err != nil {
		return fmt.Errorf("post direct message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("post direct message: status %d", resp.StatusCode())
	}
	return nil
}

// UserStatus returns the team-chat presence string for a user
// (online, away, dnd or offline).
func (c *Client) UserStatus(ctx context.Context, teamChatUserID string) (string, error) {
	if c.http == nil {
		return "", fmt.Errorf("team chat disabled")
	}
	var status statusResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&status).
		Get(fmt.Sprintf("/api/v4/users/%s/status", teamChatUserID))
	if err != nil {
		return "", fmt.Errorf("get user status: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("get user status: status %d", resp.StatusCode())
	}
	return status.Status, nil
}

// Enabled reports whether a team-chat server is configured.
func (c *Client) Enabled() bool {
	return c.http != nil
}
