// Package template implements naming-pattern parsing and rendering. A pattern
// is a sequence of literal text and {placeholder} tokens; escaped braces
// ("{{" and "}}") collapse to literal braces.
package template

import (
	"fmt"
	"strings"
)

// Parse error codes.
const (
	ErrCodeUnclosedBrace        = "unclosed_brace"
	ErrCodeUnexpectedCloseBrace = "unexpected_close_brace"
	ErrCodeEmptyPlaceholder     = "empty_placeholder"
)

// ParseError describes a syntax error in a pattern.
type ParseError struct {
	Code     string
	Position int
}

func (e *ParseError) Error() string {
	switch e.Code {
	case ErrCodeUnclosedBrace:
		return fmt.Sprintf("unclosed '{' at position %d", e.Position)
	case ErrCodeUnexpectedCloseBrace:
		return fmt.Sprintf("unexpected '}' at position %d", e.Position)
	case ErrCodeEmptyPlaceholder:
		return fmt.Sprintf("empty placeholder at position %d", e.Position)
	}
	return fmt.Sprintf("parse error %s at position %d", e.Code, e.Position)
}

// TokenKind distinguishes literal text from placeholders.
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenPlaceholder
)

// Token is one element of a parsed pattern. Text carries the literal text for
// literal tokens and the trimmed placeholder name for placeholder tokens.
type Token struct {
	Kind TokenKind
	Text string
}

// Parsed is the result of parsing a pattern.
type Parsed struct {
	Pattern string
	Tokens  []Token
	// Placeholders lists the distinct placeholder names in first-appearance
	// order. Repeats stay in Tokens positionally but appear here once.
	Placeholders []string
}

// Parse tokenizes a naming pattern. It is a pure function: no state, no side
// effects.
func Parse(pattern string) (*Parsed, error) {
	parsed := &Parsed{Pattern: pattern}
	seen := make(map[string]bool)

	var literal strings.Builder
	flushLiteral := func() {
		if literal.Len() > 0 {
			parsed.Tokens = append(parsed.Tokens, Token{Kind: TokenLiteral, Text: literal.String()})
			literal.Reset()
		}
	}

	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '{':
			if i+1 < len(pattern) && pattern[i+1] == '{' {
				literal.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(pattern[i+1:], '}')
			if end < 0 {
				return nil, &ParseError{Code: ErrCodeUnclosedBrace, Position: i}
			}
			name := strings.TrimSpace(pattern[i+1 : i+1+end])
			if name == "" {
				return nil, &ParseError{Code: ErrCodeEmptyPlaceholder, Position: i}
			}
			flushLiteral()
			parsed.Tokens = append(parsed.Tokens, Token{Kind: TokenPlaceholder, Text: name})
			if !seen[name] {
				seen[name] = true
				parsed.Placeholders = append(parsed.Placeholders, name)
			}
			i += end + 2
		case '}':
			if i+1 < len(pattern) && pattern[i+1] == '}' {
				literal.WriteByte('}')
				i += 2
				continue
			}
			return nil, &ParseError{Code: ErrCodeUnexpectedCloseBrace, Position: i}
		default:
			literal.WriteByte(c)
			i++
		}
	}
	flushLiteral()

	return parsed, nil
}

// ExtractPlaceholders returns the distinct placeholder names of a pattern in
// first-appearance order.
func ExtractPlaceholders(pattern string) ([]string, error) {
	parsed, err := Parse(pattern)
	if err != nil {
		return nil, err
	}
	return parsed.Placeholders, nil
}

// knownPlaceholders is the fixed vocabulary accepted by the renderer: file
// identity, date/time, and metadata placeholders.
var knownPlaceholders = map[string]bool{
	"name":     true,
	"original": true,
	"ext":      true,
	"size":     true,
	"category": true,
	"counter":  true,
	"date":     true,
	"year":     true,
	"month":    true,
	"day":      true,
	"time":     true,
	"camera":   true,
	"location": true,
	"title":    true,
	"author":   true,
	"pages":    true,
}

// IsKnownPlaceholder reports whether a placeholder name belongs to the fixed
// vocabulary. "date:FORMAT" variants count as known.
func IsKnownPlaceholder(name string) bool {
	if strings.HasPrefix(name, "date:") && len(name) > len("date:") {
		return true
	}
	return knownPlaceholders[name]
}

// KnownPlaceholders returns the placeholders of a pattern that belong to the
// fixed vocabulary.
func KnownPlaceholders(pattern string) ([]string, error) {
	return filterPlaceholders(pattern, true)
}

// UnknownPlaceholders returns the placeholders of a pattern outside the fixed
// vocabulary, for UI validation feedback.
func UnknownPlaceholders(pattern string) ([]string, error) {
	return filterPlaceholders(pattern, false)
}

func filterPlaceholders(pattern string, known bool) ([]string, error) {
	names, err := ExtractPlaceholders(pattern)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if IsKnownPlaceholder(n) == known {
			out = append(out, n)
		}
	}
	return out, nil
}
