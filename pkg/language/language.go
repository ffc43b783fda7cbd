package language

import (
	"regexp"
	"strings"
)

type detector struct {
	code     string
	patterns []*regexp.Regexp
}

var detectors = []detector{
	{code: "es", patterns: []*regexp.Regexp{
		regexp.MustCompile(`[áéíóúüñ¿¡]`),
		regexp.MustCompile(`\b(hola|gracias|por favor|buenos|buenas|qué|cómo|dónde|cuánto|tiene|tienen|quiero|busco|necesito)\b`),
	}},
	{code: "fr", patterns: []*regexp.Regexp{
		regexp.MustCompile(`[àâçéèêëîïôùûü]`),
		regexp.MustCompile(`\b(bonjour|merci|je voudrais|comment|où|combien|avez-vous|cherche)\b`),
	}},
	{code: "pt", patterns: []*regexp.Regexp{
		regexp.MustCompile(`[ãõç]`),
		regexp.MustCompile(`\b(olá|obrigado|bom dia|boa tarde|onde|quanto|tem|tenho|quero|preciso)\b`),
	}},
	{code: "de", patterns: []*regexp.Regexp{
		regexp.MustCompile(`[äöüß]`),
		regexp.MustCompile(`\b(hallo|danke|bitte|guten|wie|wo|wieviel|haben|möchte|suche|brauche)\b`),
	}},
	{code: "it", patterns: []*regexp.Regexp{
		regexp.MustCompile(`[àèéìíîòóùú]`),
		regexp.MustCompile(`\b(ciao|grazie|per favore|buongiorno|dove|quanto|avete|vorrei|cerco)\b`),
	}},
}

// Detect returns an ISO 639-1 code for the message text using cheap
// character and keyword heuristics. Defaults to "en".
func Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return "en"
	}

	lower := strings.ToLower(text)

	best := "en"
	bestScore := 0
	for _, d := range detectors {
		score := 0
		for _, p := range d.patterns {
			if p.MatchString(lower) {
				score++
			}
		}
		if score > bestScore {
			best = d.code
			bestScore = score
		}
	}
	return best
}
