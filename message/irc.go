package message

import (
	"strconv"
	"strings"

	"gitlab.com/zephyrtronium/tmi"
)

// FromTMI adapts a TMI IRC message.
func FromTMI(m *tmi.Message) *Received {
	id, _ := m.Tag("id")
	room, _ := m.Tag("room-id")
	sender, _ := m.Tag("user-id")
	ts, _ := m.Tag("tmi-sent-ts")
	u, _ := strconv.ParseInt(ts, 10, 64)
	sub, _ := m.Tag("subscriber")
	first, _ := m.Tag("first-msg")
	r := Received{
		ID:         id,
		Channel:    strings.ToLower(strings.TrimPrefix(m.To(), "#")),
		ChannelID:  room,
		Sender:     sender,
		Name:       strings.ToLower(m.Nick),
		Text:       m.Trailing,
		Timestamp:  u,
		Subscriber: sub == "1",
		Role:       role(m),
		First:      first == "1",
	}
	return &r
}

func role(m *tmi.Message) Role {
	switch t, _ := m.Tag("user-type"); t {
	case "staff":
		return RoleStaff
	case "admin":
		return RoleAdmin
	case "global_mod":
		return RoleGlobalModerator
	}
	badges, _ := m.Tag("badges")
	for _, b := range strings.Split(badges, ",") {
		if strings.HasPrefix(b, "broadcaster/") {
			return RoleBroadcaster
		}
	}
	// The broadcaster doesn't always carry the badge, but their nick is equal
	// to the channel name.
	if to := m.To(); len(to) > 1 && to[0] == '#' && strings.EqualFold(to[1:], m.Nick) {
		return RoleBroadcaster
	}
	if t, _ := m.Tag("mod"); t == "1" {
		return RoleModerator
	}
	if t, _ := m.Tag("user-type"); t == "mod" {
		return RoleModerator
	}
	return RoleViewer
}

// ToTMI creates a PRIVMSG to send to TMI.
func ToTMI(msg Sent) *tmi.Message {
	return tmi.Privmsg("#"+strings.TrimPrefix(msg.To, "#"), msg.Text)
}
