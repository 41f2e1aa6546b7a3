package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/gateway"
	"github.com/dmitrymomot/membership/svc/membership"
	"github.com/dmitrymomot/membership/svc/payment"
)

func TestCreateCheckout(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(c *payment.Config) {
		c.BeneficiaryAccount = "01320811436100"
		c.BeneficiaryBank = "AWINETAA"
	})

	co := f.checkout(t, membership.TierGold)
	assert.Equal(t, "sess-1", co.SessionID)
	assert.Equal(t, "https://pay.example/sess-1", co.PaymentURL)
	assert.EqualValues(t, 1500, co.Amount)
	assert.Equal(t, "ETB", co.Currency)
	assert.Equal(t, testNow.Add(payment.DefaultConfig().SessionTTL), co.ExpiresAt)

	req := f.gw.lastReq
	assert.Equal(t, "251911223344", req.Phone)
	assert.EqualValues(t, 1500, req.Amount)
	assert.NotEmpty(t, req.Nonce)
	assert.NotContains(t, req.Nonce, "user-1", "nonce payload is encoded")
	require.Len(t, req.Items, 1)
	assert.Equal(t, "Gold membership", req.Items[0].Name)
	require.Len(t, req.Beneficiaries, 1)
	assert.EqualValues(t, 1500, req.Beneficiaries[0].Amount)

	tx, err := f.svc.Transaction(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, tx.Status)
	assert.Equal(t, "user-1", tx.UserID)
	assert.Equal(t, membership.TierGold, tx.Tier)
	assert.Equal(t, 1, tx.BillingMonths)
	assert.Equal(t, req.Nonce, tx.Nonce)
}

func TestCreateCheckout_MultipleMonths(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	co, err := f.svc.CreateCheckout(context.Background(), payment.CheckoutRequest{
		UserID: "user-1", Tier: membership.TierSilver, BillingMonths: 3, Phone: "+251911223344",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1500, co.Amount)

	req := f.gw.lastReq
	assert.EqualValues(t, 1500, req.Amount)
	require.Len(t, req.Items, 1)
	assert.Equal(t, 3, req.Items[0].Quantity, "one unit per billed month")
	assert.EqualValues(t, 500, req.Items[0].UnitPrice)
	assert.Equal(t, "3 month(s) of Silver", req.Items[0].Description)
}

func TestCreateCheckout_CustomAmount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	co, err := f.svc.CreateCheckout(context.Background(), payment.CheckoutRequest{
		UserID: "user-1", Tier: membership.TierGold, Amount: 2000, Phone: "0911223344",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2000, co.Amount)

	req := f.gw.lastReq
	require.Len(t, req.Items, 1)
	assert.Equal(t, 1, req.Items[0].Quantity)
	assert.EqualValues(t, 2000, req.Items[0].UnitPrice)
	assert.Empty(t, req.Items[0].Ref, "a custom amount has no catalog price")
}

func TestCreateCheckout_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  payment.CheckoutRequest
		want error
	}{
		{"missing user", payment.CheckoutRequest{Tier: membership.TierGold, Phone: "0911223344"}, membership.ErrMissingUserID},
		{"free tier", payment.CheckoutRequest{UserID: "u", Tier: membership.TierFree, Phone: "0911223344"}, membership.ErrUnknownTier},
		{"unknown tier", payment.CheckoutRequest{UserID: "u", Tier: "platinum", Phone: "0911223344"}, membership.ErrUnknownTier},
		{"amount below price", payment.CheckoutRequest{UserID: "u", Tier: membership.TierGold, Amount: 1000, Phone: "0911223344"}, payment.ErrInvalidAmount},
		{"negative amount", payment.CheckoutRequest{UserID: "u", Tier: membership.TierGold, Amount: -5, Phone: "0911223344"}, payment.ErrInvalidAmount},
		{"too many months", payment.CheckoutRequest{UserID: "u", Tier: membership.TierGold, BillingMonths: 13, Phone: "0911223344"}, payment.ErrInvalidMonths},
		{"invalid phone", payment.CheckoutRequest{UserID: "u", Tier: membership.TierGold, Phone: "12345"}, payment.ErrInvalidPhone},
		{"missing phone", payment.CheckoutRequest{UserID: "u", Tier: membership.TierGold}, payment.ErrInvalidPhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			_, err := f.svc.CreateCheckout(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, f.txs.writeCount())
		})
	}
}

func TestCreateCheckout_PhoneOptional(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(c *payment.Config) { c.RequirePhone = false })
	_, err := f.svc.CreateCheckout(context.Background(), payment.CheckoutRequest{
		UserID: "user-1", Tier: membership.TierGold, Email: "user@example.com",
	})
	require.NoError(t, err)
	assert.Empty(t, f.gw.lastReq.Phone)
}

func TestCreateCheckout_GatewayFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.gw.createErr = errors.Join(gateway.ErrProtocol, errors.New("markup body"))

	_, err := f.svc.CreateCheckout(context.Background(), payment.CheckoutRequest{
		UserID: "user-1", Tier: membership.TierGold, Phone: "0911223344",
	})
	assert.ErrorIs(t, err, gateway.ErrProtocol)
	assert.Zero(t, f.txs.writeCount())
}

func TestCreateCheckout_NotificationRecordedFirst(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.gw.beforeReturn = func(sessionID string) {
		f.txs.put(&payment.Transaction{
			SessionID:     sessionID,
			UserID:        "user-1",
			Tier:          membership.TierGold,
			Amount:        1500,
			Currency:      "ETB",
			BillingMonths: 1,
			Status:        payment.StatusCompleted,
			CreatedAt:     testNow,
			ExpiresAt:     testNow.Add(time.Hour),
			UpdatedAt:     testNow,
		})
	}

	co := f.checkout(t, membership.TierGold)
	assert.Equal(t, "sess-1", co.SessionID)
	assert.Equal(t, "https://pay.example/sess-1", co.PaymentURL)
	assert.EqualValues(t, 1500, co.Amount)

	tx, err := f.svc.Transaction(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, tx.Status, "the recorded payment is kept")
}

func TestCreateCheckout_SessionOwnedByAnotherUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.gw.beforeReturn = func(sessionID string) {
		f.txs.put(&payment.Transaction{SessionID: sessionID, UserID: "user-2", Tier: membership.TierGold, Status: payment.StatusPending})
	}

	_, err := f.svc.CreateCheckout(context.Background(), payment.CheckoutRequest{
		UserID: "user-1", Tier: membership.TierGold, Phone: "0911223344",
	})
	assert.ErrorIs(t, err, payment.ErrDuplicateTransaction)
}

func TestNewService_Config(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := payment.NewService(payment.DefaultConfig(), f.members, f.gw, f.txs, nil)
	assert.ErrorIs(t, err, payment.ErrInvalidConfig)

	bad := payment.DefaultConfig()
	bad.NotifyURL = "/relative"
	_, err = payment.NewService(bad, f.members, f.gw, f.txs, testKey)
	assert.ErrorIs(t, err, payment.ErrInvalidConfig)

	assert.Panics(t, func() {
		_, _ = payment.NewService(payment.DefaultConfig(), nil, f.gw, f.txs, testKey)
	})
}

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	valid := map[string]string{
		"0911223344":       "251911223344",
		"+251911223344":    "251911223344",
		"251911223344":     "251911223344",
		"+251 91 122 3344": "251911223344",
		"(091) 122-33-44":  "251911223344",
	}
	for in, want := range valid {
		got, err := payment.NormalizePhone(in, "251")
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "911223344", "09112233445", "+1 555 123 4567", "abc0911223344", "2519112233"} {
		_, err := payment.NormalizePhone(in, "251")
		assert.ErrorIs(t, err, payment.ErrInvalidPhone, in)
	}
}

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	assert.False(t, payment.StatusPending.Terminal())
	for _, s := range []payment.Status{payment.StatusCompleted, payment.StatusFailed, payment.StatusCancelled} {
		assert.True(t, s.Terminal(), s)
		_, err := s.Next(payment.EventSucceed)
		assert.Error(t, err, s)
	}

	to, err := payment.StatusPending.Next(payment.EventCancel)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCancelled, to)
}
