package weekday

import "golang.org/x/text/language"

// Labeler supplies display labels for canonical weekdays.
type Labeler interface {
	Label(d Weekday) string
}

type staticLabels [7]string

func (l staticLabels) Label(d Weekday) string {
	if !d.Valid() {
		return ""
	}
	return l[d-1]
}

var supported = []language.Tag{
	language.English,
	language.Spanish,
	language.Catalan,
	language.Portuguese,
	language.French,
	language.Italian,
	language.Korean,
}

var labelSets = []staticLabels{
	{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
	{"lunes", "martes", "miércoles", "jueves", "viernes", "sábado", "domingo"},
	{"dilluns", "dimarts", "dimecres", "dijous", "divendres", "dissabte", "diumenge"},
	{"segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado", "domingo"},
	{"lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi", "dimanche"},
	{"lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato", "domenica"},
	{"월요일", "화요일", "수요일", "목요일", "금요일", "토요일", "일요일"},
}

var matcher = language.NewMatcher(supported)

// Labels returns weekday labels for a BCP 47 locale such as "es" or "pt-BR".
// Unknown locales get English.
func Labels(locale string) Labeler {
	tag, err := language.Parse(locale)
	if err != nil {
		return labelSets[0]
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return labelSets[0]
	}
	return labelSets[idx]
}
