package notice

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

func TestComputeMoveOutDate(t *testing.T) {
	cases := []struct {
		name   string
		notice time.Time
		months int
		want   time.Time
	}{
		{"plain month addition", date(2024, time.March, 15), 3, date(2024, time.June, 15)},
		{"leap year clamp", date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{"non-leap clamp", date(2023, time.January, 31), 1, date(2023, time.February, 28)},
		{"thirty-day month clamp", date(2024, time.May, 31), 1, date(2024, time.June, 30)},
		{"year rollover", date(2024, time.November, 10), 3, date(2025, time.February, 10)},
		{"year rollover with clamp", date(2024, time.December, 31), 2, date(2025, time.February, 28)},
		{"twelve months", date(2024, time.February, 29), 12, date(2025, time.February, 28)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeMoveOutDate(tc.notice, tc.months)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("rejects non-positive period", func(t *testing.T) {
		for _, months := range []int{0, -1} {
			_, err := ComputeMoveOutDate(date(2024, time.March, 15), months)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidNoticeDate))
		}
	})
}

func TestNew(t *testing.T) {
	leaseID := id.LeaseID(uuid.New())
	noticeID := id.NoticeID(uuid.New())
	today := date(2024, time.June, 1)

	t.Run("builds an immutable notice with derived move-out", func(t *testing.T) {
		n, err := New(noticeID, leaseID, date(2024, time.June, 15), 3, IssuedByTenant, today)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.September, 15), n.MoveOutDate)
		assert.Equal(t, IssuedByTenant, n.IssuedBy)

		// recomputation reproduces the stored derived date
		recomputed, err := ComputeMoveOutDate(n.NoticeDate, n.PeriodMonths)
		require.NoError(t, err)
		assert.Equal(t, n.MoveOutDate, recomputed)
	})

	t.Run("notice date today is allowed", func(t *testing.T) {
		_, err := New(noticeID, leaseID, today, 1, IssuedByOwner, today)
		require.NoError(t, err)
	})

	t.Run("rejects notice date in the past", func(t *testing.T) {
		_, err := New(noticeID, leaseID, date(2024, time.May, 31), 3, IssuedByTenant, today)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidNoticeDate))
	})

	t.Run("rejects unknown issuer", func(t *testing.T) {
		_, err := New(noticeID, leaseID, today, 3, IssuedBy("agency"), today)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
