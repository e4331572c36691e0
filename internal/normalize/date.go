package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
)

// ISOLayout is the layout every extracted date is rendered with.
const ISOLayout = "2006-01-02"

// ErrNoDate is wrapped by DateError when text holds no recognizable date.
var ErrNoDate = errors.New("no recognizable date")

// DateError reports text that could not be read as a date.
type DateError struct {
	// Text is the input after stripping.
	Text string

	// Err is the underlying cause. It always wraps ErrNoDate.
	Err error
}

// Error implements the error interface.
func (e *DateError) Error() string {
	return fmt.Sprintf("parse date %q: %v", e.Text, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DateError) Unwrap() error {
	return e.Err
}

// dayFirstRegex matches the numeric "dd/mm/yyyy" form used across the
// regulator's pages. Dots and dashes are accepted as separators too, and
// the year may have two digits.
var dayFirstRegex = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4}|\d{2})\b`)

// twoDigitPivot follows time.Parse: "69".."99" are 19xx, the rest 20xx.
const twoDigitPivot = 69

// ParseDate reads a free-form date, resolving numeric dates day first.
//
// Numeric dd/mm/yyyy text is decoded directly so that "01/02/2014" is
// 1 February. Anything else ("15 December 1993", "2014-01-31") goes
// through dateparse. The returned time is midnight UTC.
func ParseDate(text string) (t time.Time, err error) {
	text = Collapse(text)
	if text == "" {
		return time.Time{}, &DateError{Text: text, Err: ErrNoDate}
	}

	if m := dayFirstRegex.FindStringSubmatch(text); m != nil {
		return dayFirst(text, m)
	}

	// dateparse panics on a handful of malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			t = time.Time{}
			err = &DateError{Text: text, Err: fmt.Errorf("%w: %v", ErrNoDate, r)}
		}
	}()

	parsed, perr := dateparse.ParseAny(text, dateparse.PreferMonthFirst(false))
	if perr != nil {
		return time.Time{}, &DateError{Text: text, Err: fmt.Errorf("%w: %v", ErrNoDate, perr)}
	}
	y, mo, d := parsed.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC), nil
}

// dayFirst builds a date from a dayFirstRegex match, rejecting
// out-of-range days such as 31/02.
func dayFirst(text string, m []string) (time.Time, error) {
	day, _ := strconv.Atoi(m[1])   //nolint:errcheck // regex guarantees digits
	month, _ := strconv.Atoi(m[2]) //nolint:errcheck // regex guarantees digits
	year, _ := strconv.Atoi(m[3])  //nolint:errcheck // regex guarantees digits
	if len(m[3]) == 2 {
		if year >= twoDigitPivot {
			year += 1900
		} else {
			year += 2000
		}
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, &DateError{
			Text: text,
			Err:  fmt.Errorf("%w: day %d month %d out of range", ErrNoDate, day, month),
		}
	}
	return t, nil
}

// ISODate is ParseDate rendered as YYYY-MM-DD. It returns an empty
// string instead of an error, for optional fields.
func ISODate(text string) string {
	t, err := ParseDate(text)
	if err != nil {
		return ""
	}
	return t.Format(ISOLayout)
}
