package twitch

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/go-json-experiment/json"
	"golang.org/x/oauth2"
)

// BanRequest is the request body for https://dev.twitch.tv/docs/api/reference/#ban-user.
type BanRequest struct {
	// UserID is the ID of the user to ban.
	UserID string `json:"user_id"`
	// Duration is the timeout length in seconds. Zero bans permanently.
	Duration int `json:"duration,omitzero"`
	// Reason is shown to the user and to the channel's moderators.
	Reason string `json:"reason,omitempty"`
}

// Banned is the response type from https://dev.twitch.tv/docs/api/reference/#ban-user.
type Banned struct {
	BroadcasterID string `json:"broadcaster_id"`
	ModeratorID   string `json:"moderator_id"`
	UserID        string `json:"user_id"`
	CreatedAt     string `json:"created_at"`
	EndTime       string `json:"end_time"`
}

// Ban bans a user from a broadcaster's chat. The token must belong to
// moderator and carry the moderator:manage:banned_users scope.
func Ban(ctx context.Context, client Client, tok *oauth2.Token, broadcaster, moderator string, ban BanRequest) (*Banned, error) {
	v := url.Values{
		"broadcaster_id": {broadcaster},
		"moderator_id":   {moderator},
	}
	b, err := json.Marshal(struct {
		Data BanRequest `json:"data"`
	}{ban})
	if err != nil {
		return nil, fmt.Errorf("couldn't encode ban request: %w", err)
	}
	u := make([]Banned, 0, 1)
	err = reqjson(ctx, client, tok, "POST", apiurl("/helix/moderation/bans", v), bytes.NewReader(b), &u)
	if err != nil {
		return nil, fmt.Errorf("couldn't ban %s: %w", ban.UserID, err)
	}
	if len(u) == 0 {
		return nil, fmt.Errorf("couldn't ban %s: empty response", ban.UserID)
	}
	return &u[0], nil
}
