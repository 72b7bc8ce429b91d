// Package advert decides whether chat messages are unsolicited advertising.
package advert

import (
	"strings"

	"github.com/zephyrtronium/noad/fingerprint"
	"github.com/zephyrtronium/noad/message"
)

// Check reports whether msg is an advertisement. phrases and links are
// fingerprints as produced by [fingerprint.Of].
//
// A message is an ad only when every criterion holds: the sender is not
// a subscriber, has no elevated role, is chatting in the channel for the first
// time, and the message fingerprint contains both a known phrase and a known
// link. Missing any one criterion means the message passes.
func Check(msg *message.Received, phrases, links []string) bool {
	if msg.Subscriber || msg.Role != message.RoleViewer || !msg.First {
		return false
	}
	fp := fingerprint.Of(msg.Text)
	return containsAny(fp, phrases) && containsAny(fp, links)
}

func containsAny(fp string, subs []string) bool {
	for _, s := range subs {
		// An empty entry would match everything.
		if s != "" && strings.Contains(fp, s) {
			return true
		}
	}
	return false
}
