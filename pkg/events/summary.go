package events

import (
	"fmt"
	"strings"
)

// Severity is the visual weight of a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

// Notification is a human summary derived from a notification-worthy message.
type Notification struct {
	Message  string
	Severity Severity
}

// Summarize derives the notification for m. ok is false for kinds that do not notify.
func Summarize(m Message) (n Notification, ok bool) {
	switch m.Type {
	case KindNewBill:
		who := orDefault(m.String("created_by_name"), "Someone")
		return Notification{
			Message:  fmt.Sprintf("%s added a new bill: %s", who, m.String("description")),
			Severity: SeveritySuccess,
		}, true

	case KindUpdateBill:
		return Notification{
			Message:  fmt.Sprintf("Bill updated: %s", m.String("description")),
			Severity: SeverityInfo,
		}, true

	case KindSettleUp:
		return Notification{Message: settleUpSummary(m), Severity: SeveritySuccess}, true

	case KindPaymentUpdate:
		status := orDefault(m.String("status"), "updated")
		sev := SeverityInfo
		if strings.EqualFold(status, "failed") {
			sev = SeverityError
		}
		msg := fmt.Sprintf("Payment %s", strings.ToLower(status))
		if d := m.String("description"); d != "" {
			msg += ": " + d
		}
		return Notification{Message: msg, Severity: sev}, true
	}
	return Notification{}, false
}

func settleUpSummary(m Message) string {
	if n, ok := m.Int("settled_count"); ok && n > 0 {
		noun := "transactions"
		if n == 1 {
			noun = "transaction"
		}
		return fmt.Sprintf("Recorded %d settlement %s", n, noun)
	}
	payer, payee := m.String("payer_name"), m.String("payee_name")
	switch {
	case payer != "" && payee != "":
		msg := fmt.Sprintf("%s settled up with %s", payer, payee)
		if amt := m.String("amount"); amt != "" {
			msg += " (" + amt + ")"
		}
		return msg
	case payer != "":
		return payer + " settled up"
	default:
		return "Group settled up"
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
