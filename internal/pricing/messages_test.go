package pricing_test

import (
	"context"
	"errors"
	"testing"

	"rental-api/internal/pricing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMessageTypeValid(t *testing.T) {
	for _, mt := range []pricing.MessageType{
		pricing.MessageWelcome, pricing.MessageConfirmation, pricing.MessageReminder,
		pricing.MessageCheckout, pricing.MessageThankYou,
	} {
		require.Truef(t, mt.Valid(), "type %s", mt)
	}
	require.False(t, pricing.MessageType("spam").Valid())
}

func TestGuestMessage_FallbackTemplates(t *testing.T) {
	advisor := pricing.NewAdvisor(&fakeStore{}, unconfiguredClient(), nil, zap.NewNop())

	mc := pricing.MessageContext{GuestName: "Ada", PropertyName: "Seaside Studio", CheckIn: "2025-07-12"}

	msg, err := advisor.GuestMessage(context.Background(), pricing.MessageConfirmation, mc)
	require.Error(t, err)
	require.True(t, errors.Is(err, pricing.ErrNotConfigured))
	require.True(t, msg.Fallback)
	require.Contains(t, msg.Text, "Ada")
	require.Contains(t, msg.Text, "Seaside Studio")
	require.Contains(t, msg.Text, "2025-07-12")

	msg, err = advisor.GuestMessage(context.Background(), pricing.MessageCheckout, mc)
	require.Error(t, err)
	require.Contains(t, msg.Text, "Check-out is at 11:00 AM")
}

func TestFallbackMessage_DefaultsWhenContextEmpty(t *testing.T) {
	msg := pricing.FallbackMessage(pricing.MessageWelcome, pricing.MessageContext{})
	require.True(t, msg.Fallback)
	require.Contains(t, msg.Text, "your rental")
	require.Contains(t, msg.Text, "dear guest")
}

func TestGuestMessage_Generated(t *testing.T) {
	client, closeFn := newGeminiServer(t, 200, "  Hello Ada, welcome aboard!  ")
	defer closeFn()

	advisor := pricing.NewAdvisor(&fakeStore{}, client, nil, zap.NewNop())

	msg, err := advisor.GuestMessage(context.Background(), pricing.MessageWelcome, pricing.MessageContext{GuestName: "Ada"})
	require.NoError(t, err)
	require.False(t, msg.Fallback)
	require.Equal(t, "Hello Ada, welcome aboard!", msg.Text)
}
