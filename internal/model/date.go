package model

import (
	"fmt"
	"path/filepath"
	"time"

	pkgerrors "github.com/handiism/epic-downloader/internal/errors"
)

// DateLayout is the only accepted date format.
const DateLayout = "2006-01-02"

// Date is a calendar day resolved for a run.
//
// The zero Date is invalid; use ParseDate to obtain one. A Date is
// immutable once created.
type Date struct {
	t time.Time
}

// ParseDate parses s as a YYYY-MM-DD calendar date.
//
// Strings that do not round-trip exactly (e.g. "2023-6-15", "2023-02-30",
// " 2023-06-15") are rejected with ErrInvalidDate.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", pkgerrors.ErrInvalidDate, s)
	}
	if t.Format(DateLayout) != s {
		return Date{}, fmt.Errorf("%w: %q", pkgerrors.ErrInvalidDate, s)
	}
	return Date{t: t}, nil
}

// MustParseDate is like ParseDate but panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// Year returns the four-digit year.
func (d Date) Year() string {
	return d.t.Format("2006")
}

// Month returns the zero-padded two-digit month.
func (d Date) Month() string {
	return d.t.Format("01")
}

// Day returns the zero-padded two-digit day.
func (d Date) Day() string {
	return d.t.Format("02")
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return d.t
}

// FolderPath returns <targetFolder>/<YYYY-MM-DD>.
func (d Date) FolderPath(targetFolder string) string {
	return filepath.Join(targetFolder, d.String())
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
