package template

import (
	"regexp"
	"strings"

	"github.com/renamekit/renamekit/pkg/pathutil"
)

// Characters rejected by at least one supported filesystem.
var invalidChars = map[rune]bool{
	'/': true, '\\': true, ':': true, '*': true, '?': true,
	'"': true, '<': true, '>': true, '|': true, 0: true,
}

// Windows reserved device names.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

const maxFilenameLength = 255

// IsValidFilename reports whether a filename is acceptable on all supported
// platforms: non-empty, within length limits, no invalid characters, not a
// reserved device name, no trailing space or dot.
func IsValidFilename(name string) bool {
	if name == "" || len(name) > maxFilenameLength {
		return false
	}
	for _, c := range name {
		if invalidChars[c] {
			return false
		}
	}
	base := strings.ToUpper(strings.SplitN(name, ".", 2)[0])
	if reservedNames[base] {
		return false
	}
	if strings.HasSuffix(name, " ") || strings.HasSuffix(name, ".") {
		return false
	}
	return true
}

// SanitizeChange records one transformation applied during sanitization.
type SanitizeChange struct {
	Type        string `json:"type"`
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
	Message     string `json:"message"`
}

// SanitizeResult is the outcome of sanitizing a filename.
type SanitizeResult struct {
	Sanitized   string           `json:"sanitized"`
	Original    string           `json:"original"`
	Changes     []SanitizeChange `json:"changes"`
	WasModified bool             `json:"wasModified"`
}

// Sanitize rewrites a filename so it is valid across operating systems:
// invalid characters are replaced and collapsed, Windows reserved names get a
// suffix, trailing spaces/dots are stripped, and overlong names are truncated
// preserving the extension.
func Sanitize(filename string, replacement rune) SanitizeResult {
	res := SanitizeResult{Original: filename, Sanitized: filename}
	if filename == "" {
		return res
	}

	result := filename

	var bad []rune
	seen := make(map[rune]bool)
	for _, c := range result {
		if invalidChars[c] && !seen[c] {
			seen[c] = true
			bad = append(bad, c)
		}
	}
	if len(bad) > 0 {
		res.Changes = append(res.Changes, SanitizeChange{
			Type:        "char_replacement",
			Original:    string(bad),
			Replacement: strings.Repeat(string(replacement), len(bad)),
			Message:     "Replaced invalid characters: " + string(bad),
		})
		result = strings.Map(func(c rune) rune {
			if invalidChars[c] {
				return replacement
			}
			return c
		}, result)
	}

	// Collapse runs of the replacement character
	double := string([]rune{replacement, replacement})
	for strings.Contains(result, double) {
		result = strings.ReplaceAll(result, double, string(replacement))
	}

	name, ext := pathutil.SplitFilename(result)
	if reservedNames[strings.ToUpper(name)] {
		res.Changes = append(res.Changes, SanitizeChange{
			Type:        "reserved_name",
			Original:    name,
			Replacement: name + "_file",
			Message:     "\"" + name + "\" is a reserved name on Windows",
		})
		result = name + "_file" + ext
	}

	name, ext = pathutil.SplitFilename(result)
	trimmed := strings.TrimRight(name, ". ")
	if trimmed != name && trimmed != "" {
		res.Changes = append(res.Changes, SanitizeChange{
			Type:        "trailing_fix",
			Original:    name[len(trimmed):],
			Replacement: "",
			Message:     "Removed trailing spaces/periods (invalid on Windows)",
		})
		result = trimmed + ext
	}
	trimmedAll := strings.TrimRight(result, ". ")
	if trimmedAll != result && trimmedAll != "" {
		res.Changes = append(res.Changes, SanitizeChange{
			Type:        "trailing_fix",
			Original:    result[len(trimmedAll):],
			Replacement: "",
			Message:     "Removed trailing spaces/periods (invalid on Windows)",
		})
		result = trimmedAll
	}

	if len(result) > maxFilenameLength {
		result = truncateFilename(result, maxFilenameLength, &res.Changes)
	}

	res.Sanitized = result
	res.WasModified = result != filename
	return res
}

func truncateFilename(filename string, max int, changes *[]SanitizeChange) string {
	name, ext := pathutil.SplitFilename(filename)

	maxName := max - len(ext)
	if maxName < 1 {
		out := filename[:max]
		*changes = append(*changes, SanitizeChange{
			Type:        "truncation",
			Original:    filename,
			Replacement: out,
			Message:     "Truncated to maximum filename length (extension too long)",
		})
		return out
	}

	const ellipsis = "..."
	available := maxName - len(ellipsis)
	var truncated string
	if available > 0 {
		truncated = name[:available] + ellipsis
	} else {
		truncated = name[:maxName]
	}
	out := truncated + ext
	*changes = append(*changes, SanitizeChange{
		Type:        "truncation",
		Original:    filename,
		Replacement: out,
		Message:     "Truncated to maximum filename length",
	})
	return out
}

// Patterns stripped by CleanFilename so reapplying a date/counter template is
// idempotent.
var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}[-_]\d{2}[-_]\d{2}[-_ ]?`),
		regexp.MustCompile(`^\d{8}[-_ ]?`),
		regexp.MustCompile(`^\d{2}[-_]\d{2}[-_]\d{4}[-_ ]?`),
		regexp.MustCompile(`[-_ ]\d{4}[-_]?\d{2}[-_]?\d{2}$`),
	}
	counterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[-_ ]\d{1,4}$`),
		regexp.MustCompile(`\(\d{1,4}\)$`),
	}
)

// CleanFilename strips leading/trailing date fragments and trailing counters
// from a base name (no extension). If stripping would empty the name, the
// original is returned unchanged.
func CleanFilename(name string) string {
	if name == "" {
		return name
	}

	result := name
	for _, re := range datePatterns {
		result = re.ReplaceAllString(result, "")
	}
	for _, re := range counterPatterns {
		result = re.ReplaceAllString(result, "")
	}
	result = strings.Trim(result, "-_ ")

	if result == "" {
		return name
	}
	return result
}
