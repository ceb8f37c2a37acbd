package deposit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "locatio/pkg/domain"
	dErrors "locatio/pkg/domain-errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCompute(t *testing.T) {
	settlementID := id.SettlementID(uuid.New())
	leaseID := id.LeaseID(uuid.New())
	now := date(2024, time.June, 16)

	t.Run("refund and deadline", func(t *testing.T) {
		s, err := Compute(settlementID, leaseID, 1000, 200, []string{"cleaning"}, date(2024, time.June, 15), 30, now)
		require.NoError(t, err)
		assert.Equal(t, 800.0, s.RefundAmount)
		assert.Equal(t, date(2024, time.July, 15), s.DeadlineDate)
		assert.Equal(t, 30, s.RestitutionDeadlineDays)
	})

	t.Run("full retention leaves zero refund", func(t *testing.T) {
		s, err := Compute(settlementID, leaseID, 1000, 1000, []string{"damages"}, date(2024, time.June, 15), 30, now)
		require.NoError(t, err)
		assert.Equal(t, 0.0, s.RefundAmount)
	})

	t.Run("retention above deposit is an error, not a clamp", func(t *testing.T) {
		_, err := Compute(settlementID, leaseID, 1000, 1200, nil, date(2024, time.June, 15), 30, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeRetainedExceedsDeposit))
	})

	t.Run("non-positive deadline falls back to the statutory default", func(t *testing.T) {
		s, err := Compute(settlementID, leaseID, 500, 0, nil, date(2024, time.January, 31), 0, now)
		require.NoError(t, err)
		assert.Equal(t, DefaultRestitutionDeadlineDays, s.RestitutionDeadlineDays)
		assert.Equal(t, date(2024, time.March, 1), s.DeadlineDate)
	})

	t.Run("deadline crosses a month boundary by day count", func(t *testing.T) {
		s, err := Compute(settlementID, leaseID, 500, 0, nil, date(2023, time.January, 31), 30, now)
		require.NoError(t, err)
		// 30 days, not one calendar month
		assert.Equal(t, date(2023, time.March, 2), s.DeadlineDate)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		_, err := Compute(settlementID, leaseID, -1, 0, nil, date(2024, time.June, 15), 30, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = Compute(settlementID, leaseID, 1000, -5, nil, date(2024, time.June, 15), 30, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
