package emvfield

import "errors"

// ErrBadBCD is returned when a byte claimed to hold two packed BCD
// digits has a nibble outside 0..9.
var ErrBadBCD = errors.New("emvfield: invalid packed BCD digit")

// decodeBCD decodes one packed-BCD byte into its two decimal digits.
func decodeBCD(b byte) (tens, ones int, err error) {
	tens, ones = int(b>>4), int(b&0x0F)
	if tens > 9 || ones > 9 {
		return 0, 0, ErrBadBCD
	}
	return tens, ones, nil
}

// Date is a YYMMDD-precision EMV date field (transaction date 0x9A,
// effective date 0x5F25, expiration date 0x5F24): three packed-BCD
// bytes, year relative to a Y2K pivot applied by the caller.
type Date struct {
	Year  int // two-digit, as stored on the card/terminal (no century)
	Month int
	Day   int
}

// ParseDate decodes a 3-byte packed-BCD YYMMDD date field.
func ParseDate(data []byte) (Date, error) {
	if len(data) != 3 {
		return Date{}, errors.New("emvfield: date field must be 3 bytes")
	}
	var d Date
	for i, dst := range []*int{&d.Year, &d.Month, &d.Day} {
		tens, ones, err := decodeBCD(data[i])
		if err != nil {
			return Date{}, err
		}
		*dst = tens*10 + ones
	}
	return d, nil
}

// MonthYear is a 2-byte packed-BCD MMYY field (certificate expiry,
// application expiration/effective dates expressed as MMYY in some
// certificate structures).
type MonthYear struct {
	Month int
	Year  int
}

// ParseMonthYear decodes a 2-byte packed-BCD MMYY field.
func ParseMonthYear(data []byte) (MonthYear, error) {
	if len(data) != 2 {
		return MonthYear{}, errors.New("emvfield: MMYY field must be 2 bytes")
	}
	mTens, mOnes, err := decodeBCD(data[0])
	if err != nil {
		return MonthYear{}, err
	}
	yTens, yOnes, err := decodeBCD(data[1])
	if err != nil {
		return MonthYear{}, err
	}
	return MonthYear{Month: mTens*10 + mOnes, Year: yTens*10 + yOnes}, nil
}

// centuryYear maps a two-digit year to a monotonic value for comparison,
// applying the same century-rollover pivot to both dates being compared:
// years 00..79 are treated as 2000..2079, years 80..99 as 1980..1999.
// This mirrors the common EMV terminal convention for a 2-digit-year
// pivot rather than any value fixed in the spec, since EMV books leave
// century disambiguation to the terminal's implementation.
func centuryYear(yy int) int {
	if yy < 80 {
		return 2000 + yy
	}
	return 1900 + yy
}

func (d Date) ordinal() int {
	return centuryYear(d.Year)*10000 + d.Month*100 + d.Day
}

func (my MonthYear) ordinalAsEndOfMonth() int {
	// An expiry of MMYY is valid through the end of that month, so for
	// comparison against a YYMMDD transaction date we treat it as day 31
	// (callers comparing day-to-day never need exact days-in-month
	// because "expired" only cares about MM/YY granularity).
	return centuryYear(my.Year)*10000 + my.Month*100 + 31
}

// CompareExpiry reports whether txnDate is after expiry's month (i.e.
// the application has expired). Per spec.md §4.7, only month/year
// granularity matters for the expiration check.
func CompareExpiry(txnDate Date, expiry MonthYear) (expired bool) {
	return txnDate.ordinal() > expiry.ordinalAsEndOfMonth()
}

// CompareEffective reports whether txnDate is before effective's month
// (i.e. the application is not yet effective).
func CompareEffective(txnDate Date, effective MonthYear) (notYetEffective bool) {
	effStart := centuryYear(effective.Year)*10000 + effective.Month*100 + 1
	return txnDate.ordinal() < effStart
}
