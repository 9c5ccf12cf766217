package notify

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/message"
)

const (
	defaultGenericTitle = "Application update"
	defaultGenericBody  = "Your transfer application was updated."
	defaultKingdomName  = "the kingdom"
)

// Localizer is the minimal message-printer contract required by rendering.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Input is one render request for a notification template.
type Input struct {
	Topic       string
	PayloadJSON string
}

// Output is localized applicant-facing copy.
type Output struct {
	Title string
	Body  string
}

// Render returns localized copy for one status change notification.
// Unknown topics fall back to a generic update message.
func Render(loc Localizer, input Input) Output {
	payload := StatusPayload{}
	if raw := strings.TrimSpace(input.PayloadJSON); raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return genericOutput(loc)
		}
	}
	kingdomName := strings.TrimSpace(payload.KingdomName)
	if kingdomName == "" {
		kingdomName = localizeWithFallback(loc, "notification.kingdom.unknown", defaultKingdomName)
	}

	var titleKey, bodyKey string
	switch normalizeToken(input.Topic) {
	case TopicStatusViewed:
		titleKey, bodyKey = "notification.status_viewed.title", "notification.status_viewed.body"
	case TopicStatusInterested:
		titleKey, bodyKey = "notification.status_interested.title", "notification.status_interested.body"
	case TopicStatusAccepted:
		titleKey, bodyKey = "notification.status_accepted.title", "notification.status_accepted.body"
	case TopicStatusDeclined:
		titleKey, bodyKey = "notification.status_declined.title", "notification.status_declined.body"
	default:
		return genericOutput(loc)
	}

	title := localize(loc, titleKey)
	body := localize(loc, bodyKey, kingdomName)
	if title == titleKey || body == bodyKey {
		return genericOutput(loc)
	}
	return Output{Title: title, Body: body}
}

func genericOutput(loc Localizer) Output {
	return Output{
		Title: localizeWithFallback(loc, "notification.generic.title", defaultGenericTitle),
		Body:  localizeWithFallback(loc, "notification.generic.body", defaultGenericBody),
	}
}

func localize(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		if asString, ok := key.(string); ok {
			return asString
		}
		return ""
	}
	return loc.Sprintf(key, args...)
}

func localizeWithFallback(loc Localizer, key string, fallback string) string {
	value := strings.TrimSpace(localize(loc, key))
	if value == "" || value == key {
		return fallback
	}
	return value
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
