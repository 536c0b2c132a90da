// Package channel maps Front channels and contact handles to activity types.
package channel

import (
	"regexp"
	"strings"

	"github.com/skytails/skytails/internal/models"
)

// phonePattern is a loose shape check: an optional "+", a digit, then at
// least six more digits, spaces or dashes.
var phonePattern = regexp.MustCompile(`^\+?\d[\d\s-]{6,}$`)

// Config holds the channel-ID sets used before falling back to handle
// shape. The upstream integration does not expose a reliable per-message
// channel, so these sets cover the channels we know about and shape
// inference covers the rest.
type Config struct {
	SocialChannelIDs   []string
	WhatsAppChannelIDs []string
	EmailChannelIDs    []string
}

type Classifier struct {
	social   map[string]struct{}
	whatsapp map[string]struct{}
	email    map[string]struct{}
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{
		social:   toSet(cfg.SocialChannelIDs),
		whatsapp: toSet(cfg.WhatsAppChannelIDs),
		email:    toSet(cfg.EmailChannelIDs),
	}
}

// Classify returns the activity type for a conversation. A known channel
// ID wins; otherwise the handle's shape decides. The shape fallback is a
// heuristic: it routes the message to the right matching strategy but is
// not a guarantee of the actual transport.
func (c *Classifier) Classify(channelID, handle string) string {
	if channelID != "" {
		if _, ok := c.social[channelID]; ok {
			return models.ActivityTypeSocial
		}
		if _, ok := c.whatsapp[channelID]; ok {
			return models.ActivityTypeWhatsApp
		}
		if _, ok := c.email[channelID]; ok {
			return models.ActivityTypeEmail
		}
	}

	handle = strings.TrimSpace(handle)
	switch {
	case strings.Contains(handle, "@"):
		return models.ActivityTypeEmail
	case phonePattern.MatchString(handle):
		return models.ActivityTypeWhatsApp
	default:
		return models.ActivityTypeSocial
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}
