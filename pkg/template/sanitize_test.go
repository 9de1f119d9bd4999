package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeReplacesInvalidChars(t *testing.T) {
	res := Sanitize(`photo:of/the*day?.jpg`, '_')

	assert.Equal(t, "photo_of_the_day_.jpg", res.Sanitized)
	assert.True(t, res.WasModified)
	assert.NotEmpty(t, res.Changes)
	assert.Equal(t, "char_replacement", res.Changes[0].Type)
}

func TestSanitizeCollapsesReplacementRuns(t *testing.T) {
	res := Sanitize("a<<>>b.txt", '_')
	assert.Equal(t, "a_b.txt", res.Sanitized)
}

func TestSanitizeReservedName(t *testing.T) {
	res := Sanitize("CON.txt", '_')
	assert.Equal(t, "CON_file.txt", res.Sanitized)

	res = Sanitize("con.txt", '_')
	assert.Equal(t, "con_file.txt", res.Sanitized)
}

func TestSanitizeTrailingDotsAndSpaces(t *testing.T) {
	res := Sanitize("report . .txt", '_')
	assert.Equal(t, "report.txt", res.Sanitized)
	assert.True(t, res.WasModified)
}

func TestSanitizeCleanNameUntouched(t *testing.T) {
	res := Sanitize("holiday-2024_01.jpg", '_')
	assert.Equal(t, "holiday-2024_01.jpg", res.Sanitized)
	assert.False(t, res.WasModified)
	assert.Empty(t, res.Changes)
}

func TestSanitizeTruncatesLongNames(t *testing.T) {
	long := strings.Repeat("a", 300) + ".jpg"
	res := Sanitize(long, '_')

	assert.LessOrEqual(t, len(res.Sanitized), 255)
	assert.True(t, strings.HasSuffix(res.Sanitized, "....jpg"))
	assert.True(t, res.WasModified)
}

func TestIsValidFilename(t *testing.T) {
	assert.True(t, IsValidFilename("photo.jpg"))
	assert.True(t, IsValidFilename(".gitignore"))

	assert.False(t, IsValidFilename(""))
	assert.False(t, IsValidFilename("bad:name.txt"))
	assert.False(t, IsValidFilename("NUL.log"))
	assert.False(t, IsValidFilename("trailing."))
	assert.False(t, IsValidFilename("trailing "))
	assert.False(t, IsValidFilename(strings.Repeat("x", 256)))
}

func TestCleanFilenameStripsDatesAndCounters(t *testing.T) {
	cases := map[string]string{
		"2024-01-15_vacation": "vacation",
		"20240115 vacation":   "vacation",
		"15-01-2024_vacation": "vacation",
		"vacation_20240115":   "vacation",
		"vacation_3":          "vacation",
		"vacation(12)":        "vacation",
		"vacation":            "vacation",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanFilename(in), in)
	}
}

func TestCleanFilenameKeepsNameWhenStrippingWouldEmptyIt(t *testing.T) {
	assert.Equal(t, "2024-01-15", CleanFilename("2024-01-15"))
}

// Re-applying a date template after cleaning must not stack prefixes.
func TestCleanFilenameIdempotentReapplication(t *testing.T) {
	base := "vacation"
	dated := "2024-01-15_" + base

	assert.Equal(t, base, CleanFilename(dated))
	assert.Equal(t, base, CleanFilename(CleanFilename(dated)))
}
