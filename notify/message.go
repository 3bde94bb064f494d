package notify

import (
	"fmt"
	"html"
	"strings"

	"famhealth-backend/models"
)

const (
	Subject    = "💊 Drug Reminder Alert"
	senderName = "FamHealth AI"
)

// PlainText renders the reminder for SMS and WhatsApp. The scheduled time is
// shown in whatever location r.ScheduledAt carries.
func PlainText(dest models.Destination, r models.Reminder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s, it's time to take your medicine: %s.", dest.MemberName, r.Substance)
	if r.DosageNote != "" {
		fmt.Fprintf(&b, " Dosage: %s.", r.DosageNote)
	}
	fmt.Fprintf(&b, " Time: %s.", r.ScheduledAt.Format("Mon 2 Jan 15:04"))
	if r.FreeNote != "" {
		fmt.Fprintf(&b, " Note: %s.", r.FreeNote)
	}
	return b.String()
}

func HTMLBody(dest models.Destination, r models.Reminder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hello %s,<br/>", html.EscapeString(dest.MemberName))
	fmt.Fprintf(&b, "Reminder: It's time to take your medicine: <b>%s</b><br/>", html.EscapeString(r.Substance))
	if r.DosageNote != "" {
		fmt.Fprintf(&b, "Dosage: %s<br/>", html.EscapeString(r.DosageNote))
	}
	fmt.Fprintf(&b, "Time: %s<br/>", r.ScheduledAt.Format("Mon 2 Jan 15:04 MST"))
	if r.FreeNote != "" {
		fmt.Fprintf(&b, "Note: %s<br/>", html.EscapeString(r.FreeNote))
	}
	b.WriteString("Stay healthy, FamHealth AI is watching over you 💚</p>")
	return b.String()
}
