package template

import (
	"strings"
	"unicode"
)

// CaseStyle is a filename case normalization policy. The style applies to the
// name part only; the extension is always lowercased when a style is active.
type CaseStyle string

const (
	CaseNone       CaseStyle = "none"
	CaseLowercase  CaseStyle = "lowercase"
	CaseUppercase  CaseStyle = "uppercase"
	CaseCapitalize CaseStyle = "capitalize"
	CaseTitle      CaseStyle = "title-case"
	CaseKebab      CaseStyle = "kebab-case"
	CaseSnake      CaseStyle = "snake-case"
	CaseCamel      CaseStyle = "camelCase"
	CasePascal     CaseStyle = "PascalCase"
)

// splitWords breaks a name into words on separators and camelCase boundaries.
func splitWords(input string) []string {
	var words []string
	var current strings.Builder
	prevLower := false

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, c := range input {
		switch c {
		case ' ', '_', '-', '.':
			flush()
			prevLower = false
			continue
		}
		if unicode.IsUpper(c) && prevLower {
			flush()
		}
		current.WriteRune(c)
		prevLower = unicode.IsLower(c)
	}
	flush()
	return words
}

func capitalizeWord(word string) string {
	if word == "" {
		return ""
	}
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// NormalizeCase applies a case style to a bare name (no extension).
func NormalizeCase(name string, style CaseStyle) string {
	if style == CaseNone || style == "" || name == "" {
		return name
	}

	words := splitWords(name)
	lower := func(w string) string { return strings.ToLower(w) }

	switch style {
	case CaseLowercase:
		return joinMapped(words, lower, " ")
	case CaseUppercase:
		return joinMapped(words, strings.ToUpper, " ")
	case CaseCapitalize:
		if len(words) == 0 {
			return ""
		}
		out := capitalizeWord(words[0])
		if len(words) > 1 {
			out += " " + joinMapped(words[1:], lower, " ")
		}
		return out
	case CaseTitle:
		return joinMapped(words, capitalizeWord, " ")
	case CaseKebab:
		return joinMapped(words, lower, "-")
	case CaseSnake:
		return joinMapped(words, lower, "_")
	case CaseCamel:
		var b strings.Builder
		for i, w := range words {
			if i == 0 {
				b.WriteString(strings.ToLower(w))
			} else {
				b.WriteString(capitalizeWord(w))
			}
		}
		return b.String()
	case CasePascal:
		var b strings.Builder
		for _, w := range words {
			b.WriteString(capitalizeWord(w))
		}
		return b.String()
	}
	return name
}

func joinMapped(words []string, f func(string) string, sep string) string {
	mapped := make([]string, len(words))
	for i, w := range words {
		mapped[i] = f(w)
	}
	return strings.Join(mapped, sep)
}

// NormalizeFilename applies a case style to a full filename, preserving a
// leading dot for hidden files and lowercasing the extension.
func NormalizeFilename(filename string, style CaseStyle) string {
	if style == CaseNone || style == "" || filename == "" {
		return filename
	}

	hidden := strings.HasPrefix(filename, ".")
	working := filename
	if hidden {
		working = filename[1:]
	}

	name := working
	ext := ""
	if idx := strings.LastIndex(working, "."); idx > 0 {
		name = working[:idx]
		ext = working[idx:]
	}

	out := NormalizeCase(name, style) + strings.ToLower(ext)
	if hidden {
		out = "." + out
	}
	return out
}
