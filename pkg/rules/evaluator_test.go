package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renamekit/renamekit/internal/models"
)

func testFile() *models.FileInfo {
	return &models.FileInfo{
		Path:       "/pics/IMG_4521.JPG",
		Name:       "IMG_4521",
		Extension:  "JPG",
		FullName:   "IMG_4521.JPG",
		Size:       2048,
		ModifiedAt: time.Date(2024, 3, 17, 14, 5, 9, 0, time.UTC),
		Category:   models.CategoryImage,
	}
}

func filenameRule(pattern string, caseSensitive bool) *models.FilenameRule {
	return &models.FilenameRule{
		ID:            "fr-1",
		Name:          "test",
		Pattern:       pattern,
		CaseSensitive: caseSensitive,
		TemplateID:    "tpl-1",
		Enabled:       true,
	}
}

func TestEvaluateFilenameRuleGlobMatrix(t *testing.T) {
	e := NewEvaluator(nil)

	cases := []struct {
		pattern       string
		caseSensitive bool
		want          bool
	}{
		{"IMG_*.JPG", true, true},
		{"img_*.jpg", true, false},
		{"img_*.jpg", false, true},
		{"*.{jpg,png}", false, true},
		{"*.{gif,png}", false, false},
		{"IMG_[0-9][0-9][0-9][0-9].JPG", true, true},
		{"IMG_[!a-z]*.JPG", true, true},
		{"DSC_*", false, false},
	}

	for _, tc := range cases {
		eval, err := e.EvaluateFilenameRule(filenameRule(tc.pattern, tc.caseSensitive), testFile())
		require.NoError(t, err, tc.pattern)
		assert.Equal(t, tc.want, eval.Matches, tc.pattern)
	}
}

func TestEvaluateFilenameRuleDisabled(t *testing.T) {
	e := NewEvaluator(nil)

	rule := filenameRule("*", true)
	rule.Enabled = false

	eval, err := e.EvaluateFilenameRule(rule, testFile())
	require.NoError(t, err)
	assert.False(t, eval.Matches)
}

func TestEvaluateFilenameRuleInvalidPattern(t *testing.T) {
	e := NewEvaluator(nil)

	_, err := e.EvaluateFilenameRule(filenameRule("[unclosed", true), testFile())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPattern))
}

func metadataRule(mode models.MatchMode, conds ...models.Condition) *models.MetadataRule {
	return &models.MetadataRule{
		ID:         "mr-1",
		Name:       "test",
		Conditions: conds,
		MatchMode:  mode,
		TemplateID: "tpl-1",
		Enabled:    true,
	}
}

func cameraMeta(model string) *models.FileMetadata {
	return &models.FileMetadata{
		Image: &models.ImageMetadata{CameraModel: model},
	}
}

func TestEvaluateMetadataRuleOperators(t *testing.T) {
	e := NewEvaluator(nil)
	file := testFile()
	meta := cameraMeta("Canon EOS R5")

	cases := []struct {
		cond models.Condition
		want bool
	}{
		{models.Condition{Field: "image.camera.model", Operator: models.OpEquals, Value: "canon eos r5"}, true},
		{models.Condition{Field: "image.camera.model", Operator: models.OpEquals, Value: "canon eos r5", CaseSensitive: true}, false},
		{models.Condition{Field: "image.camera.model", Operator: models.OpContains, Value: "EOS"}, true},
		{models.Condition{Field: "image.camera.model", Operator: models.OpStartsWith, Value: "Canon"}, true},
		{models.Condition{Field: "image.camera.model", Operator: models.OpEndsWith, Value: "R5"}, true},
		{models.Condition{Field: "image.camera.model", Operator: models.OpRegex, Value: `EOS R\d`, CaseSensitive: true}, true},
		{models.Condition{Field: "image.camera.model", Operator: models.OpExists}, true},
		{models.Condition{Field: "image.camera.model", Operator: models.OpNotExists}, false},
		{models.Condition{Field: "pdf.title", Operator: models.OpExists}, false},
		{models.Condition{Field: "pdf.title", Operator: models.OpNotExists}, true},
		// absent field is a plain non-match for value operators
		{models.Condition{Field: "pdf.title", Operator: models.OpEquals, Value: "x"}, false},
	}

	for i, tc := range cases {
		eval, err := e.EvaluateMetadataRule(metadataRule(models.MatchAll, tc.cond), file, meta)
		require.NoError(t, err, i)
		assert.Equal(t, tc.want, eval.Matches, "case %d", i)
	}
}

func TestEvaluateMetadataRuleMatchModes(t *testing.T) {
	e := NewEvaluator(nil)
	file := testFile()
	meta := cameraMeta("Canon EOS R5")

	hit := models.Condition{Field: "image.camera.model", Operator: models.OpContains, Value: "Canon"}
	miss := models.Condition{Field: "image.camera.model", Operator: models.OpContains, Value: "Nikon"}

	eval, err := e.EvaluateMetadataRule(metadataRule(models.MatchAll, hit, miss), file, meta)
	require.NoError(t, err)
	assert.False(t, eval.Matches)
	// all mode short-circuits on the failed condition
	assert.Len(t, eval.ConditionResults, 2)

	eval, err = e.EvaluateMetadataRule(metadataRule(models.MatchAny, miss, hit), file, meta)
	require.NoError(t, err)
	assert.True(t, eval.Matches)

	eval, err = e.EvaluateMetadataRule(metadataRule(models.MatchAny, miss, miss), file, meta)
	require.NoError(t, err)
	assert.False(t, eval.Matches)
}

func TestEvaluateMetadataRuleInvalidRegex(t *testing.T) {
	e := NewEvaluator(nil)

	cond := models.Condition{Field: "image.camera.model", Operator: models.OpRegex, Value: "("}
	_, err := e.EvaluateMetadataRule(metadataRule(models.MatchAll, cond), testFile(), cameraMeta("X"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRegex))
}

func TestEvaluateMetadataRuleDisabledOrEmpty(t *testing.T) {
	e := NewEvaluator(nil)

	rule := metadataRule(models.MatchAll, models.Condition{Field: "image.camera.model", Operator: models.OpExists})
	rule.Enabled = false
	eval, err := e.EvaluateMetadataRule(rule, testFile(), cameraMeta("X"))
	require.NoError(t, err)
	assert.False(t, eval.Matches)

	eval, err = e.EvaluateMetadataRule(metadataRule(models.MatchAll), testFile(), cameraMeta("X"))
	require.NoError(t, err)
	assert.False(t, eval.Matches)
}

func TestRegexCacheReuseAndClear(t *testing.T) {
	cache := NewRegexCache(4)
	e := NewEvaluator(cache)
	cond := models.Condition{Field: "image.camera.model", Operator: models.OpRegex, Value: `R\d`, CaseSensitive: true}

	first, err := e.EvaluateMetadataRule(metadataRule(models.MatchAll, cond), testFile(), cameraMeta("EOS R5"))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	// second evaluation reuses the compiled pattern
	_, err = e.EvaluateMetadataRule(metadataRule(models.MatchAll, cond), testFile(), cameraMeta("EOS R5"))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	e.ClearRegexCache()
	assert.Equal(t, 0, cache.Len())

	// results are identical after a clear
	again, err := e.EvaluateMetadataRule(metadataRule(models.MatchAll, cond), testFile(), cameraMeta("EOS R5"))
	require.NoError(t, err)
	assert.Equal(t, first.Matches, again.Matches)
}

func TestRegexCacheEviction(t *testing.T) {
	cache := NewRegexCache(2)

	_, err := cache.Get("a+", true)
	require.NoError(t, err)
	_, err = cache.Get("b+", true)
	require.NoError(t, err)
	_, err = cache.Get("c+", true)
	require.NoError(t, err)

	assert.Equal(t, 2, cache.Len())
}

func TestRegexCacheCaseVariantsAreDistinct(t *testing.T) {
	cache := NewRegexCache(8)

	sensitive, err := cache.Get("abc", true)
	require.NoError(t, err)
	insensitive, err := cache.Get("abc", false)
	require.NoError(t, err)

	assert.Equal(t, 2, cache.Len())
	assert.True(t, sensitive.MatchString("abc"))
	assert.False(t, sensitive.MatchString("ABC"))
	assert.True(t, insensitive.MatchString("ABC"))
}
