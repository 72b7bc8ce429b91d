package message

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Role is the privilege tier of a chat user as reported by the platform.
type Role int

const (
	// RoleViewer is an unprivileged user, the lowest tier.
	RoleViewer Role = iota
	RoleModerator
	RoleBroadcaster
	RoleGlobalModerator
	RoleAdmin
	RoleStaff
)

func (r Role) String() string {
	switch r {
	case RoleViewer:
		return "viewer"
	case RoleModerator:
		return "moderator"
	case RoleBroadcaster:
		return "broadcaster"
	case RoleGlobalModerator:
		return "global_mod"
	case RoleAdmin:
		return "admin"
	case RoleStaff:
		return "staff"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Received is a chat message received from a channel.
type Received struct {
	// ID is the unique ID of the message.
	ID string
	// Channel is the name of the channel the message was sent to, lowercase
	// and without a leading #.
	Channel string
	// ChannelID is the user ID of the channel's broadcaster.
	ChannelID string
	// Sender is the user ID of the message sender.
	Sender string
	// Name is the login name of the message sender.
	Name string
	// Text is the text of the message.
	Text string
	// Timestamp is the timestamp of the message as milliseconds since the
	// Unix epoch.
	Timestamp int64
	// Subscriber indicates whether the sender is subscribed to the channel.
	Subscriber bool
	// Role is the sender's privilege tier.
	Role Role
	// First indicates that this is the sender's first message in the channel.
	First bool
}

func (m *Received) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// Command is a command invocation parsed from a received message.
type Command struct {
	// Channel is the channel where the command was invoked.
	Channel string
	// Sender is the user ID of the invoker.
	Sender string
	// Name is the login name of the invoker.
	Name string
	// Command is the command token without the trigger.
	Command string
	// Args is the whitespace-separated arguments to the command.
	Args []string
	// ArgString is the full argument text following the command token.
	ArgString string
}

// ParseCommand parses a command invocation from a message. A message is a
// command if it starts with trigger immediately followed by a command token.
func ParseCommand(trigger string, m *Received) (*Command, bool) {
	if trigger == "" {
		return nil, false
	}
	text, ok := strings.CutPrefix(strings.TrimSpace(m.Text), trigger)
	if !ok {
		return nil, false
	}
	name, rest := text, ""
	if k := strings.IndexFunc(text, unicode.IsSpace); k >= 0 {
		name, rest = text[:k], text[k:]
	}
	if name == "" {
		return nil, false
	}
	rest = strings.TrimSpace(rest)
	cmd := Command{
		Channel:   m.Channel,
		Sender:    m.Sender,
		Name:      m.Name,
		Command:   name,
		Args:      strings.Fields(rest),
		ArgString: rest,
	}
	return &cmd, true
}

// Sent is a message to be sent to a channel.
type Sent struct {
	// To is the channel to which the message is sent.
	To string
	// Text is the message text.
	Text string
}

// formatString is a type to prevent misuse of format strings passed to [Format].
type formatString string

// Format constructs a message to send from a format string literal and
// formatting arguments.
func Format(to string, f formatString, args ...any) Sent {
	return Sent{
		To:   to,
		Text: strings.TrimSpace(fmt.Sprintf(string(f), args...)),
	}
}
