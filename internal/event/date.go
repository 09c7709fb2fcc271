package event

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the only layout accepted as a canonical date
const DateLayout = "2006-01-02"

// UndatedLabel is the group label used for candidates without a date
const UndatedLabel = "Undated"

// DateKind tells whether a Date was parsed, left unparsed, or is absent
type DateKind int

const (
	DateAbsent DateKind = iota
	DateParsed
	DateUnparsed
)

func (k DateKind) String() string {
	switch k {
	case DateParsed:
		return "parsed"
	case DateUnparsed:
		return "unparsed"
	default:
		return "absent"
	}
}

// Date is the result of parsing a source date string.
// Value is only meaningful when Kind is DateParsed; Raw keeps the source text.
type Date struct {
	Kind  DateKind
	Value time.Time
	Raw   string
}

// ParseDate parses dateText against DateLayout.
// Text that does not match is kept as an Unparsed date rather than dropped.
func ParseDate(dateText string) Date {
	text := strings.TrimSpace(dateText)
	if text == "" {
		return Date{Kind: DateAbsent}
	}

	t, err := time.Parse(DateLayout, text)
	if err != nil {
		return Date{Kind: DateUnparsed, Raw: text}
	}
	return Date{Kind: DateParsed, Value: t, Raw: text}
}

// IsParsed reports whether the date holds a canonical value
func (d Date) IsParsed() bool { return d.Kind == DateParsed }

// IsAbsent reports whether no date text was found at all
func (d Date) IsAbsent() bool { return d.Kind == DateAbsent }

// Label returns the text used to group and display the date
func (d Date) Label() string {
	switch d.Kind {
	case DateParsed:
		return d.Value.Format(DateLayout)
	case DateUnparsed:
		return d.Raw
	default:
		return UndatedLabel
	}
}

func (d Date) String() string {
	if d.Kind == DateAbsent {
		return ""
	}
	return d.Label()
}

// Before orders dates ascending with every parsed date ahead of unparsed
// and absent ones.
func (d Date) Before(other Date) bool {
	if d.IsParsed() && other.IsParsed() {
		return d.Value.Before(other.Value)
	}
	return d.IsParsed() && !other.IsParsed()
}

type dateJSON struct {
	Kind  string `json:"kind"`
	Value string `json:"value,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

// MarshalJSON encodes the date with its kind so consumers never mistake
// unparsed text for a canonical date.
func (d Date) MarshalJSON() ([]byte, error) {
	out := dateJSON{Kind: d.Kind.String(), Raw: d.Raw}
	if d.IsParsed() {
		out.Value = d.Value.Format(DateLayout)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts either the object form written by MarshalJSON or a bare string
func (d *Date) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*d = ParseDate(text)
		return nil
	}

	var in dateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Value != "" {
		*d = ParseDate(in.Value)
		if in.Raw != "" {
			d.Raw = in.Raw
		}
		return nil
	}
	*d = ParseDate(in.Raw)
	return nil
}
