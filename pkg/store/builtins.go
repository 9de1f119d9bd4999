package store

import (
	"time"

	"github.com/renamekit/renamekit/internal/models"
)

// Built-in template IDs. These are fixed and well-known: callers may rely on
// them surviving store repair.
const (
	BuiltInOriginal     = "builtin-original"
	BuiltInDateName     = "builtin-date-name"
	BuiltInCategoryDate = "builtin-category-date"
	BuiltInTitleAuthor  = "builtin-title-author"
)

var builtInBirth = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// BuiltInTemplates returns fresh copies of the immutable built-in set.
func BuiltInTemplates() []models.Template {
	return []models.Template{
		{
			ID:        BuiltInOriginal,
			Name:      "Keep original name",
			Pattern:   "{name}.{ext}",
			IsBuiltIn: true,
			CreatedAt: builtInBirth,
			UpdatedAt: builtInBirth,
		},
		{
			ID:        BuiltInDateName,
			Name:      "Date and name",
			Pattern:   "{date}_{name}.{ext}",
			IsBuiltIn: true,
			CreatedAt: builtInBirth,
			UpdatedAt: builtInBirth,
		},
		{
			ID:        BuiltInCategoryDate,
			Name:      "Category and date",
			Pattern:   "{category}_{date}_{name}.{ext}",
			IsBuiltIn: true,
			CreatedAt: builtInBirth,
			UpdatedAt: builtInBirth,
		},
		{
			ID:        BuiltInTitleAuthor,
			Name:      "Document title and author",
			Pattern:   "{title}_{author}.{ext}",
			FileTypes: []string{string(models.CategoryDocument)},
			IsBuiltIn: true,
			CreatedAt: builtInBirth,
			UpdatedAt: builtInBirth,
		},
	}
}

// builtInIDs returns the fixed ID set in declaration order.
func builtInIDs() []string {
	return []string{BuiltInOriginal, BuiltInDateName, BuiltInCategoryDate, BuiltInTitleAuthor}
}

// DefaultTemplateStore returns a store holding exactly the built-in set with
// the first built-in as the global default.
func DefaultTemplateStore() models.TemplateStore {
	return models.TemplateStore{
		Templates:     BuiltInTemplates(),
		Defaults:      map[string]string{},
		GlobalDefault: BuiltInOriginal,
	}
}
