// Package weekday maps localized weekday labels onto seven canonical keys.
package weekday

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Weekday is a locale-independent day of the week. The zero value is
// "no weekday".
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// All lists the canonical weekdays Monday first.
var All = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var keys = [...]string{"", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Key returns the canonical key ("monday" ... "sunday"), or "" for the zero value.
func (d Weekday) Key() string {
	if !d.Valid() {
		return ""
	}
	return keys[d]
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return keys[d]
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// Time converts to the standard library weekday.
func (d Weekday) Time() time.Weekday {
	if d == Sunday {
		return time.Sunday
	}
	return time.Weekday(d)
}

// FromTime converts a standard library weekday.
func FromTime(w time.Weekday) Weekday {
	if w == time.Sunday {
		return Sunday
	}
	return Weekday(w)
}

// Of returns the weekday of t.
func Of(t time.Time) Weekday {
	return FromTime(t.Weekday())
}

// MarshalText encodes the canonical key.
func (d Weekday) MarshalText() ([]byte, error) {
	return []byte(d.Key()), nil
}

// UnmarshalText accepts any label Canonicalize understands.
func (d *Weekday) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = 0
		return nil
	}
	w, ok := Canonicalize(string(b))
	if !ok {
		return fmt.Errorf("unknown weekday %q", string(b))
	}
	*d = w
	return nil
}

// aliases is keyed by folded labels (lower case, no diacritics).
var aliases = map[string]Weekday{}

func init() {
	table := map[Weekday][]string{
		Monday:    {"monday", "mon", "lunes", "lun", "dilluns", "dl", "segunda", "segunda-feira", "seg", "lundi", "lunedi", "월요일", "월"},
		Tuesday:   {"tuesday", "tue", "tues", "martes", "mar", "dimarts", "dt", "terca", "terca-feira", "ter", "mardi", "martedi", "화요일", "화"},
		Wednesday: {"wednesday", "wed", "miercoles", "mie", "dimecres", "dc", "quarta", "quarta-feira", "qua", "mercredi", "mercoledi", "mer", "수요일", "수"},
		Thursday:  {"thursday", "thu", "thur", "thurs", "jueves", "jue", "dijous", "dj", "quinta", "quinta-feira", "qui", "jeudi", "giovedi", "gio", "목요일", "목"},
		Friday:    {"friday", "fri", "viernes", "vie", "divendres", "dv", "sexta", "sexta-feira", "sex", "vendredi", "venerdi", "ven", "금요일", "금"},
		Saturday:  {"saturday", "sat", "sabado", "sab", "dissabte", "ds", "samedi", "sam", "sabato", "토요일", "토"},
		Sunday:    {"sunday", "sun", "domingo", "dom", "diumenge", "dg", "dimanche", "dim", "domenica", "일요일", "일"},
	}
	for d, labels := range table {
		for _, l := range labels {
			aliases[l] = d
		}
	}
}

// Canonicalize maps a weekday label in any supported locale, with or without
// accents and in any letter case, onto its canonical weekday.
func Canonicalize(label string) (Weekday, bool) {
	d, ok := aliases[Fold(label)]
	return d, ok
}

// Fold lower-cases label, strips diacritics, surrounding space and a
// trailing abbreviation dot.
func Fold(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.TrimSuffix(s, ".")
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Equal reports whether two labels canonicalize to the same weekday. Labels
// that do not canonicalize never match anything.
func Equal(a, b string) bool {
	da, ok := Canonicalize(a)
	if !ok {
		return false
	}
	db, ok := Canonicalize(b)
	return ok && da == db
}
