package conversation

import (
	"strings"
	"unicode"
)

// Language identifies one of the storefront's supported reply languages
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
	LanguageFrench  Language = "fr"
)

// French carries no distinctive script, so detection leans on common words
// and accented characters.
var frenchKeywords = map[string]struct{}{
	"bonjour": {}, "bonsoir": {}, "merci": {}, "oui": {}, "non": {},
	"commande": {}, "prix": {}, "livraison": {}, "acheter": {}, "produit": {},
	"combien": {}, "annuler": {}, "suivant": {}, "adresse": {}, "svp": {},
}

const frenchAccents = "àâäçéèêëîïôöùûüÿœ"

// DetectLanguage classifies message text by character-class counts with
// keyword boosting, defaulting to English on ties and empty input.
func DetectLanguage(text string) Language {
	var arabic, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.IsLetter(r):
			latin++
		}
	}
	if arabic > latin {
		return LanguageArabic
	}
	if latin == 0 {
		return LanguageEnglish
	}

	french := 0
	lower := strings.ToLower(text)
	if strings.ContainsAny(lower, frenchAccents) {
		french += 2
	}
	for _, word := range strings.Fields(lower) {
		word = strings.Trim(word, ".,!?;:'\"")
		if _, ok := frenchKeywords[word]; ok {
			french += 2
		}
	}
	if french >= 2 {
		return LanguageFrench
	}
	return LanguageEnglish
}
