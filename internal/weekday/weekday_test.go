package weekday

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		label  string
		want   Weekday
		wantOK bool
	}{
		{"miércoles", Wednesday, true},
		{"miercoles", Wednesday, true},
		{"Wednesday", Wednesday, true},
		{"MIÉRCOLES", Wednesday, true},
		{"  lunes ", Monday, true},
		{"sábado", Saturday, true},
		{"sabado", Saturday, true},
		{"Terça-feira", Tuesday, true},
		{"lunedì", Monday, true},
		{"Thu.", Thursday, true},
		{"dijous", Thursday, true},
		{"일요일", Sunday, true},
		{"funday", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := Canonicalize(tt.label)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Canonicalize(%q) = %v, %v, want %v, %v", tt.label, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCanonicalizeLabelsRoundTrip(t *testing.T) {
	for _, locale := range []string{"en", "es", "ca", "pt", "fr", "it", "ko"} {
		l := Labels(locale)
		for _, d := range All {
			got, ok := Canonicalize(l.Label(d))
			if !ok || got != d {
				t.Errorf("Canonicalize(Labels(%q).Label(%v)) = %v, %v", locale, d, got, ok)
			}
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("miércoles", "Wednesday") {
		t.Errorf("Equal(miércoles, Wednesday) = false")
	}
	if Equal("miércoles", "jueves") {
		t.Errorf("Equal(miércoles, jueves) = true")
	}
	if Equal("nope", "nope") {
		t.Errorf("Equal(nope, nope) = true, unknown labels must not match")
	}
}

func TestTimeConversion(t *testing.T) {
	for _, d := range All {
		if got := FromTime(d.Time()); got != d {
			t.Errorf("FromTime(%v.Time()) = %v", d, got)
		}
	}
	// 2024-06-03 is a Monday.
	if got := Of(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)); got != Monday {
		t.Errorf("Of(2024-06-03) = %v, want monday", got)
	}
	if got := Of(time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)); got != Sunday {
		t.Errorf("Of(2024-06-09) = %v, want sunday", got)
	}
}

func TestLabels(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"es", "miércoles"},
		{"es-AR", "miércoles"},
		{"pt-BR", "quarta-feira"},
		{"en-GB", "Wednesday"},
		{"xx", "Wednesday"},
		{"", "Wednesday"},
	}
	for _, tt := range tests {
		if got := Labels(tt.locale).Label(Wednesday); got != tt.want {
			t.Errorf("Labels(%q).Label(wednesday) = %q, want %q", tt.locale, got, tt.want)
		}
	}
}

func TestJSON(t *testing.T) {
	var v struct {
		Day Weekday `json:"day"`
	}
	if err := json.Unmarshal([]byte(`{"day":"Miércoles"}`), &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if v.Day != Wednesday {
		t.Errorf("Unmarshal() day = %v, want wednesday", v.Day)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != `{"day":"wednesday"}` {
		t.Errorf("Marshal() = %s", out)
	}
	if err := json.Unmarshal([]byte(`{"day":"someday"}`), &v); err == nil {
		t.Errorf("Unmarshal(someday) error = nil")
	}
}
