package domain

import (
	"fmt"
	"strings"
)

// TargetLanguage is a language code a completed result can be translated to.
type TargetLanguage string

// Supported translation targets
const (
	LanguageSpanish  TargetLanguage = "es"
	LanguageFrench   TargetLanguage = "fr"
	LanguageGerman   TargetLanguage = "de"
	LanguageHindi    TargetLanguage = "hi"
	LanguageJapanese TargetLanguage = "ja"
	LanguageKorean   TargetLanguage = "ko"
)

// SupportedLanguages lists every translation target in display order.
var SupportedLanguages = []TargetLanguage{
	LanguageSpanish,
	LanguageFrench,
	LanguageGerman,
	LanguageHindi,
	LanguageJapanese,
	LanguageKorean,
}

// ParseTargetLanguage validates a language code.
func ParseTargetLanguage(s string) (TargetLanguage, error) {
	code := TargetLanguage(strings.ToLower(strings.TrimSpace(s)))
	for _, lang := range SupportedLanguages {
		if code == lang {
			return lang, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
}
