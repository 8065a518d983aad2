package entity

// ExceptionSchedule overrides the hours of one date. With no open/close the
// date is fully closed. Weekday breaks do not carry over into an exception.
type ExceptionSchedule struct {
	date   Date
	open   TimeOfDay
	close  TimeOfDay
	closed bool
	reason string
}

// NewExceptionSchedule takes open and close as a pair: both nil closes the
// date, both set overrides the hours, one without the other is invalid.
func NewExceptionSchedule(date Date, open, close *TimeOfDay, reason string) (ExceptionSchedule, error) {
	if date.IsZero() {
		return ExceptionSchedule{}, newValidationError("exception", "date is required")
	}
	if open == nil && close == nil {
		return ExceptionSchedule{date: date, closed: true, reason: reason}, nil
	}
	if open == nil || close == nil {
		return ExceptionSchedule{}, newValidationError("exception", "open and close must be given together on %s", date)
	}
	if !open.Before(*close) {
		return ExceptionSchedule{}, newValidationError("exception", "open %s must be before close %s on %s", *open, *close, date)
	}
	return ExceptionSchedule{date: date, open: *open, close: *close, reason: reason}, nil
}

func (e ExceptionSchedule) Date() Date { return e.date }

func (e ExceptionSchedule) IsClosed() bool { return e.closed }

func (e ExceptionSchedule) Open() TimeOfDay { return e.open }

func (e ExceptionSchedule) Close() TimeOfDay { return e.close }

func (e ExceptionSchedule) Reason() string { return e.reason }
