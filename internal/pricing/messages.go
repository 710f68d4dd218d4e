package pricing

import (
	"context"
	"fmt"
	"strings"

	"rental-api/prometheus"

	"go.uber.org/zap"
)

// MessageType selects the guest-communication touchpoint.
type MessageType string

const (
	MessageWelcome      MessageType = "welcome"
	MessageConfirmation MessageType = "confirmation"
	MessageReminder     MessageType = "reminder"
	MessageCheckout     MessageType = "checkout"
	MessageThankYou     MessageType = "thank_you"
)

// Valid reports whether the type names a known touchpoint.
func (m MessageType) Valid() bool {
	switch m {
	case MessageWelcome, MessageConfirmation, MessageReminder, MessageCheckout, MessageThankYou:
		return true
	}
	return false
}

// MessageContext carries the booking details woven into a guest message.
type MessageContext struct {
	GuestName      string `json:"guest_name"`
	PropertyName   string `json:"property_name"`
	CheckIn        string `json:"check_in"`
	CheckOut       string `json:"check_out"`
	AdditionalInfo string `json:"additional_info"`
}

// Message is a generated guest communication.
type Message struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// GuestMessage generates the text for a guest touchpoint. Same degrade shape
// as Recommend: it always returns usable text, and when the external service
// fails the fixed template for the touchpoint is returned with the cause as
// an advisory error.
func (a *Advisor) GuestMessage(ctx context.Context, mt MessageType, mc MessageContext) (Message, error) {
	text, genErr := a.generateMessage(ctx, mt, mc)
	if genErr != nil {
		prometheus.RecordMessageOutcome("fallback")
		a.log.Warn("Guest message fell back to template",
			zap.String("type", string(mt)), zap.Error(genErr))
		return FallbackMessage(mt, mc), fmt.Errorf("message service unavailable: %w", genErr)
	}

	prometheus.RecordMessageOutcome("ai")
	return Message{Text: strings.TrimSpace(text)}, nil
}

func (a *Advisor) generateMessage(ctx context.Context, mt MessageType, mc MessageContext) (string, error) {
	if !a.gemini.Enabled() {
		return "", ErrNotConfigured
	}
	return a.gemini.GenerateContent(ctx, buildMessagePrompt(mt, mc))
}

func buildMessagePrompt(mt MessageType, mc MessageContext) string {
	var b strings.Builder
	b.WriteString("Generate a professional and friendly message for a short-term rental guest.\n\n")
	fmt.Fprintf(&b, "Message Type: %s\n", mt)
	fmt.Fprintf(&b, "Context:\n- Guest Name: %s\n- Property Name: %s\n- Check-in Date: %s\n- Check-out Date: %s\n- Additional Info: %s\n\n",
		orDefault(mc.GuestName, "Guest"),
		orDefault(mc.PropertyName, "your rental"),
		orDefault(mc.CheckIn, "your check-in date"),
		orDefault(mc.CheckOut, "your check-out date"),
		orDefault(mc.AdditionalInfo, "none"))
	b.WriteString("The message should be professional yet warm, clear and informative, and under 200 words.\n")
	b.WriteString("Return only the message text, no additional formatting.")
	return b.String()
}

// FallbackMessage returns the fixed template for a touchpoint.
func FallbackMessage(mt MessageType, mc MessageContext) Message {
	guest := orDefault(mc.GuestName, "dear guest")
	property := orDefault(mc.PropertyName, "your rental")

	var text string
	switch mt {
	case MessageWelcome:
		text = fmt.Sprintf("Welcome to %s, %s! We're excited to host you. Check-in is at 3:00 PM. You'll receive detailed instructions 24 hours before your arrival. If you have any questions, please don't hesitate to reach out!", property, guest)
	case MessageConfirmation:
		text = fmt.Sprintf("Hi %s! Your booking for %s is confirmed for %s. We look forward to hosting you!", guest, property, orDefault(mc.CheckIn, "your dates"))
	case MessageReminder:
		text = fmt.Sprintf("Hi %s! Just a friendly reminder that you'll be checking in to %s tomorrow at 3:00 PM. Check your email for detailed instructions. Safe travels!", guest, property)
	case MessageCheckout:
		text = fmt.Sprintf("Thank you for staying with us, %s! Check-out is at 11:00 AM. Please leave the keys on the kitchen counter and ensure all windows are closed. We hope you enjoyed your stay!", guest)
	case MessageThankYou:
		text = fmt.Sprintf("Thank you for choosing %s, %s! We hope you had a wonderful stay. We'd love to welcome you back anytime!", property, guest)
	default:
		text = "Thank you for your booking!"
	}

	return Message{Text: text, Fallback: true}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
