package enrich

import (
	"unicode"

	"curator/internal/core"
)

// DetectLanguage labels text as Chinese, English or mixed based on the
// ratio of Han characters among the letters present. Short Latin acronyms
// inside a Chinese headline do not tip the label to mixed.
func DetectLanguage(text string) core.Language {
	var han, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.IsLetter(r):
			latin++
		}
	}

	total := han + latin
	if total == 0 {
		return core.LanguageEnglish
	}

	ratio := float64(han) / float64(total)
	switch {
	case ratio >= 0.6:
		return core.LanguageChinese
	case ratio <= 0.1:
		return core.LanguageEnglish
	default:
		return core.LanguageMixed
	}
}
