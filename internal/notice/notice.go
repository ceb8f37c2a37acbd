// Package notice implements the termination-notice arithmetic: calendar-month
// addition with end-of-month clamping, and the immutable Notice record.
package notice

import (
	"time"

	"locatio/internal/proration"
	id "locatio/pkg/domain"
	dErrors "locatio/pkg/domain-errors"
)

// IssuedBy identifies which party served the notice.
type IssuedBy string

const (
	IssuedByTenant IssuedBy = "tenant"
	IssuedByOwner  IssuedBy = "owner"
)

// Notice is a formal termination declaration. It is immutable once created; a
// correction is a new Notice, never a mutation. MoveOutDate is derived and
// must always be reproducible from NoticeDate and PeriodMonths.
type Notice struct {
	ID           id.NoticeID `json:"id"`
	LeaseID      id.LeaseID  `json:"lease_id"`
	NoticeDate   time.Time   `json:"notice_date"`
	PeriodMonths int         `json:"notice_period_months"`
	MoveOutDate  time.Time   `json:"move_out_date"`
	IssuedBy     IssuedBy    `json:"issued_by"`
	CreatedAt    time.Time   `json:"created_at"`
}

// ComputeMoveOutDate adds whole calendar months to noticeDate. When the source
// day-of-month does not exist in the target month the result clamps to that
// month's last day (Jan 31 + 1 month is Feb 28, or Feb 29 on a leap year).
func ComputeMoveOutDate(noticeDate time.Time, periodMonths int) (time.Time, error) {
	if periodMonths <= 0 {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidNoticeDate, "notice period must be at least one month")
	}

	d := proration.Midnight(noticeDate)
	year, month, day := d.Year(), int(d.Month()), d.Day()

	month += periodMonths
	year += (month - 1) / 12
	month = (month-1)%12 + 1

	if last := lastDayOfMonth(year, time.Month(month)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// New validates the inputs at issuance time and builds an immutable Notice.
// The notice date may not be in the past relative to today; the number of
// months is supplied by the caller (furnished/unfurnished/zone rules live
// outside this core).
func New(noticeID id.NoticeID, leaseID id.LeaseID, noticeDate time.Time, periodMonths int, issuedBy IssuedBy, today time.Time) (*Notice, error) {
	if issuedBy != IssuedByTenant && issuedBy != IssuedByOwner {
		return nil, dErrors.New(dErrors.CodeValidation, "notice must be issued by tenant or owner")
	}
	if proration.Midnight(noticeDate).Before(proration.Midnight(today)) {
		return nil, dErrors.New(dErrors.CodeInvalidNoticeDate, "notice date cannot be in the past")
	}

	moveOut, err := ComputeMoveOutDate(noticeDate, periodMonths)
	if err != nil {
		return nil, err
	}

	return &Notice{
		ID:           noticeID,
		LeaseID:      leaseID,
		NoticeDate:   proration.Midnight(noticeDate),
		PeriodMonths: periodMonths,
		MoveOutDate:  moveOut,
		IssuedBy:     issuedBy,
		CreatedAt:    today,
	}, nil
}

func lastDayOfMonth(year int, month time.Month) int {
	// day 0 of the next month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
