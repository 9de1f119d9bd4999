package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCaseStyles(t *testing.T) {
	input := "my summerVacation_photo"

	cases := map[CaseStyle]string{
		CaseNone:       "my summerVacation_photo",
		CaseLowercase:  "my summer vacation photo",
		CaseUppercase:  "MY SUMMER VACATION PHOTO",
		CaseCapitalize: "My summer vacation photo",
		CaseTitle:      "My Summer Vacation Photo",
		CaseKebab:      "my-summer-vacation-photo",
		CaseSnake:      "my_summer_vacation_photo",
		CaseCamel:      "mySummerVacationPhoto",
		CasePascal:     "MySummerVacationPhoto",
	}

	for style, want := range cases {
		assert.Equal(t, want, NormalizeCase(input, style), string(style))
	}
}

func TestNormalizeCaseEmptyAndNoStyle(t *testing.T) {
	assert.Equal(t, "", NormalizeCase("", CaseSnake))
	assert.Equal(t, "AsIs", NormalizeCase("AsIs", ""))
}

func TestNormalizeFilenameLowercasesExtension(t *testing.T) {
	assert.Equal(t, "my-photo.jpg", NormalizeFilename("My Photo.JPG", CaseKebab))
}

func TestNormalizeFilenamePreservesHiddenDot(t *testing.T) {
	assert.Equal(t, ".my_config.yaml", NormalizeFilename(".My Config.YAML", CaseSnake))
}

func TestNormalizeFilenameNoStylePassthrough(t *testing.T) {
	assert.Equal(t, "Photo.JPG", NormalizeFilename("Photo.JPG", CaseNone))
}
