package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "notification.generic.title", defaultGenericTitle)
	message.SetString(lang, "notification.generic.body", defaultGenericBody)
	message.SetString(lang, "notification.kingdom.unknown", defaultKingdomName)
	message.SetString(lang, "notification.status_viewed.title", "Application viewed")
	message.SetString(lang, "notification.status_viewed.body", "A recruiter from %s viewed your transfer application.")
	message.SetString(lang, "notification.status_interested.title", "Recruiter interested")
	message.SetString(lang, "notification.status_interested.body", "%s shortlisted your transfer application.")
	message.SetString(lang, "notification.status_accepted.title", "Transfer approved")
	message.SetString(lang, "notification.status_accepted.body", "Congratulations! %s approved your transfer application.")
	message.SetString(lang, "notification.status_declined.title", "Application declined")
	message.SetString(lang, "notification.status_declined.body", "%s declined your transfer application.")
}
