package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/gomail.v2"
)

type mapDirectory map[uuid.UUID]string

func (d mapDirectory) EmailOf(_ context.Context, id uuid.UUID) (string, error) {
	if e, ok := d[id]; ok {
		return e, nil
	}
	return "", ledger_models.ErrNotFound
}

func newTestMailer(dir Directory, admin string) (*Mailer, *[]*gomail.Message) {
	var sent []*gomail.Message
	return &Mailer{
		from:      "ledger@example.com",
		admin:     admin,
		directory: dir,
		send: func(m *gomail.Message) error {
			sent = append(sent, m)
			return nil
		},
	}, &sent
}

func body(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestWithdrawalDecided(t *testing.T) {
	worker := uuid.New()
	m, sent := newTestMailer(mapDirectory{worker: "worker@example.com"}, "")
	reason := "KYC pending"

	err := m.WithdrawalDecided(context.Background(), &ledger_models.WithdrawalRequest{
		WorkerID:          worker,
		Amount:            decimal.NewFromInt(500),
		WithdrawalCharges: decimal.NewFromInt(15),
		NetAmount:         decimal.NewFromInt(485),
		DestinationID:     "ravi@okaxis",
		Status:            ledger_models.WithdrawalRejected,
		FailureReason:     &reason,
	})
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	msg := (*sent)[0]
	assert.Equal(t, []string{"worker@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Withdrawal rejected"}, msg.GetHeader("Subject"))
	assert.Contains(t, body(t, msg), "KYC pending")

	err = m.WithdrawalDecided(context.Background(), &ledger_models.WithdrawalRequest{WorkerID: uuid.New()})
	assert.ErrorIs(t, err, ledger_models.ErrNotFound)
}

func TestBatchFinalised(t *testing.T) {
	b := &ledger_models.PayoutBatch{
		BatchReference: "PB-20260101-deadbeef",
		Status:         ledger_models.BatchCompletedWithExceptions,
		TotalProviders: 2,
		TotalAmount:    decimal.RequireFromString("430.50"),
		Details: []*ledger_models.PayoutDetail{
			{Status: ledger_models.DetailPaid},
			{Status: ledger_models.DetailFailed},
		},
	}

	t.Run("NoAdminMailbox", func(t *testing.T) {
		m, sent := newTestMailer(mapDirectory{}, "")
		require.NoError(t, m.BatchFinalised(context.Background(), b))
		assert.Empty(t, *sent)
	})

	t.Run("Sent", func(t *testing.T) {
		m, sent := newTestMailer(mapDirectory{}, "ops@example.com")
		require.NoError(t, m.BatchFinalised(context.Background(), b))
		require.Len(t, *sent, 1)
		assert.Equal(t, []string{"ops@example.com"}, (*sent)[0].GetHeader("To"))
		assert.Contains(t, body(t, (*sent)[0]), "430.50")
	})

	t.Run("SendFailure", func(t *testing.T) {
		m, _ := newTestMailer(mapDirectory{}, "ops@example.com")
		m.send = func(*gomail.Message) error { return errors.New("smtp down") }
		assert.Error(t, m.BatchFinalised(context.Background(), b))
	})
}
