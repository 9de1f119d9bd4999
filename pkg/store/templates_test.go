package store

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renamekit/renamekit/internal/models"
)

func TestDefaultTemplateStoreHasBuiltIns(t *testing.T) {
	s := DefaultTemplateStore()

	require.NotEmpty(t, s.Templates)
	for _, tmpl := range s.Templates {
		assert.True(t, tmpl.IsBuiltIn, tmpl.ID)
	}
	assert.Equal(t, BuiltInOriginal, s.GlobalDefault)
}

func TestCreateTemplate(t *testing.T) {
	m := NewManager()
	s := DefaultTemplateStore()

	next, created, err := m.CreateTemplate(s, TemplateInput{
		Name:    "Vacation photos",
		Pattern: "{date}_{name}.{ext}",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.IsBuiltIn)

	// original store snapshot is untouched
	assert.Len(t, s.Templates, len(BuiltInTemplates()))
	assert.Len(t, next.Templates, len(BuiltInTemplates())+1)
}

func TestCreateTemplateRejectsBadPattern(t *testing.T) {
	m := NewManager()
	s := DefaultTemplateStore()

	_, _, err := m.CreateTemplate(s, TemplateInput{Name: "Broken", Pattern: "{name"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestCreateTemplateRejectsDuplicateName(t *testing.T) {
	m := NewManager()
	s := DefaultTemplateStore()

	next, _, err := m.CreateTemplate(s, TemplateInput{Name: "Mine", Pattern: "{name}.{ext}"})
	require.NoError(t, err)

	// duplicate check is case-insensitive
	_, _, err = m.CreateTemplate(next, TemplateInput{Name: "mine", Pattern: "{name}.{ext}"})
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestUpdateTemplate(t *testing.T) {
	m := NewManager()
	s := DefaultTemplateStore()

	s, created, err := m.CreateTemplate(s, TemplateInput{Name: "Mine", Pattern: "{name}.{ext}"})
	require.NoError(t, err)

	next, updated, err := m.UpdateTemplate(s, created.ID, TemplateInput{Name: "Renamed", Pattern: "{date}_{name}.{ext}"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	// snapshot semantics: old store still carries the old name
	old, err := m.GetTemplate(s, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", old.Name)

	current, err := m.GetTemplate(next, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", current.Name)
}

func TestBuiltInTemplatesAreProtected(t *testing.T) {
	m := NewManager()
	s := DefaultTemplateStore()

	_, _, err := m.UpdateTemplate(s, BuiltInOriginal, TemplateInput{Name: "X", Pattern: "{name}.{ext}"})
	assert.ErrorIs(t, err, ErrBuiltIn)

	_, err = m.DeleteTemplate(s, BuiltInOriginal)
	assert.ErrorIs(t, err, ErrBuiltIn)
}

func TestDeleteTemplateCascades(t *testing.T) {
	m := NewManager()
	s := DefaultTemplateStore()

	s, created, err := m.CreateTemplate(s, TemplateInput{Name: "Mine", Pattern: "{name}.{ext}"})
	require.NoError(t, err)
	s, err = m.SetDefault(s, string(models.CategoryImage), created.ID)
	require.NoError(t, err)
	s, err = m.SetGlobalDefault(s, created.ID)
	require.NoError(t, err)

	next, err := m.DeleteTemplate(s, created.ID)
	require.NoError(t, err)

	_, hasDefault := next.Defaults[string(models.CategoryImage)]
	assert.False(t, hasDefault)
	assert.Equal(t, builtInIDs()[0], next.GlobalDefault)
}

func TestGetDefaultForFileTypeChain(t *testing.T) {
	m := NewManager()
	s := DefaultTemplateStore()

	s, created, err := m.CreateTemplate(s, TemplateInput{Name: "Images only", Pattern: "{date}_{name}.{ext}"})
	require.NoError(t, err)
	s, err = m.SetDefault(s, string(models.CategoryImage), created.ID)
	require.NoError(t, err)

	// category default wins for images
	got := m.GetDefaultForFileType(s, models.CategoryImage)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	// other categories fall back to the global default
	got = m.GetDefaultForFileType(s, models.CategoryDocument)
	require.NotNil(t, got)
	assert.Equal(t, s.GlobalDefault, got.ID)
}

func TestValidateAndRepairStore(t *testing.T) {
	m := NewManager()

	// an empty store is missing everything
	issues := m.ValidateStore(models.TemplateStore{})
	require.NotEmpty(t, issues)

	repaired := m.RepairStore(models.TemplateStore{})
	assert.Empty(t, m.ValidateStore(repaired))
	assert.Equal(t, builtInIDs()[0], repaired.GlobalDefault)

	// a tampered built-in is restored
	tampered := repaired
	tampered.Templates = append([]models.Template(nil), repaired.Templates...)
	tampered.Templates[0].Pattern = "{hacked}"
	issues = m.ValidateStore(tampered)
	require.NotEmpty(t, issues)
	assert.Equal(t, "modified_builtin", issues[0].Code)

	fixed := m.RepairStore(tampered)
	assert.Empty(t, m.ValidateStore(fixed))

	// dangling category default is dropped
	dangling := m.RepairStore(models.TemplateStore{
		Defaults: map[string]string{"image": "nope"},
	})
	_, ok := dangling.Defaults["image"]
	assert.False(t, ok)
}

func TestRepairStoreIdempotent(t *testing.T) {
	m := NewManager()

	once := m.RepairStore(models.TemplateStore{})
	twice := m.RepairStore(once)
	assert.Equal(t, once, twice)
}

// Any sequence of creates must never mutate an earlier snapshot.
func TestStoreImmutabilityProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	m := NewManager()

	properties := gopter.NewProperties(parameters)
	properties.Property("create leaves the input snapshot unchanged", prop.ForAll(
		func(names []string) bool {
			s := DefaultTemplateStore()
			baseline := len(s.Templates)

			current := s
			seen := map[string]bool{}
			for _, name := range names {
				if name == "" || seen[name] {
					continue
				}
				seen[name] = true
				next, _, err := m.CreateTemplate(current, TemplateInput{Name: name, Pattern: "{name}.{ext}"})
				if err != nil {
					return false
				}
				if len(current.Templates) == len(next.Templates) {
					return false
				}
				current = next
			}
			return len(s.Templates) == baseline
		},
		gen.SliceOf(gen.RegexMatch(`[a-z]{1,12}`)),
	))

	properties.TestingRun(t)
}
