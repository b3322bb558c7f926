package message

import (
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Locale holds the default date and time layouts of a language tag.
type Locale struct {
	Tag        language.Tag
	DateLayout string
	TimeLayout string
}

var fallbackLocale = Locale{
	Tag:        language.Und,
	DateLayout: "2006-01-02",
	TimeLayout: "15:04:05",
}

// LocaleFor resolves layouts for a BCP 47 or POSIX (ja_JP.UTF-8) locale name.
// Unknown or unparsable names fall back to ISO-style layouts.
func LocaleFor(name string) Locale {
	name = normalizeLocaleName(name)
	if name == "" {
		return fallbackLocale
	}
	if name == "C" || name == "POSIX" {
		name = "en-US"
	}
	tag, err := language.Parse(name)
	if err != nil {
		return fallbackLocale
	}

	base, _ := tag.Base()
	region, _ := tag.Region()

	loc := Locale{Tag: tag, TimeLayout: "15:04:05"}
	switch base.String() {
	case "ja", "zh", "ko":
		loc.DateLayout = "2006/1/2"
	case "en":
		switch region.String() {
		case "US", "ZZ":
			loc.DateLayout = "1/2/2006"
			loc.TimeLayout = "3:04:05 PM"
		default:
			loc.DateLayout = "02/01/2006"
		}
	case "fr", "es", "it", "pt":
		loc.DateLayout = "02/01/2006"
	case "de":
		loc.DateLayout = "2.1.2006"
	case "ru", "pl":
		loc.DateLayout = "02.01.2006"
	default:
		loc.DateLayout = fallbackLocale.DateLayout
	}
	return loc
}

// DefaultLocale reads LC_ALL, LC_TIME and LANG in that order.
func DefaultLocale() Locale {
	for _, key := range []string{"LC_ALL", "LC_TIME", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return LocaleFor(v)
		}
	}
	return fallbackLocale
}

// Format renders t as "<date> <time>".
func (l Locale) Format(t time.Time) string {
	return t.Format(l.DateLayout) + " " + t.Format(l.TimeLayout)
}

func normalizeLocaleName(name string) string {
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	return strings.ReplaceAll(strings.TrimSpace(name), "_", "-")
}
