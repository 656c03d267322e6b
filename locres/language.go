package locres

import (
	"strings"

	"github.com/ossrs/go-oryx-lib/errors"
)

// Language is a game language, identified on disk by its culture
// directory under Content/Localization/<Target>/.
type Language int

const (
	English Language = iota
	AmericanEnglish
	French
	German
	Italian
	Spanish
	SpanishMexico
	Portuguese
	PortugueseBrazil
	Russian
	Polish
	Turkish
	Arabic
	Japanese
	Korean
	Chinese
	TraditionalChinese
)

var cultures = [...]string{
	English:            "en",
	AmericanEnglish:    "en-US",
	French:             "fr",
	German:             "de",
	Italian:            "it",
	Spanish:            "es",
	SpanishMexico:      "es-MX",
	Portuguese:         "pt",
	PortugueseBrazil:   "pt-BR",
	Russian:            "ru",
	Polish:             "pl",
	Turkish:            "tr",
	Arabic:             "ar",
	Japanese:           "ja",
	Korean:             "ko",
	Chinese:            "zh-Hans",
	TraditionalChinese: "zh-Hant",
}

// Culture returns the culture code used for the localization directory.
func (l Language) Culture() string {
	if l >= 0 && int(l) < len(cultures) {
		return cultures[l]
	}
	return cultures[English]
}

func (l Language) String() string {
	return l.Culture()
}

// ParseLanguage accepts a culture code in any case, with '-' or '_'.
func ParseLanguage(s string) (Language, error) {
	want := strings.ReplaceAll(strings.TrimSpace(s), "_", "-")
	for i, c := range cultures {
		if strings.EqualFold(c, want) {
			return Language(i), nil
		}
	}
	return English, errors.Errorf("unknown language %q", s)
}
