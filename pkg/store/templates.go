package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/logger"
	"github.com/renamekit/renamekit/pkg/template"
)

// Manager performs CRUD over template stores and rule collections. It holds
// no store state itself; every operation takes and returns store values.
type Manager struct {
	validate *validator.Validate
	log      *logrus.Entry
}

// NewManager creates a manager.
func NewManager() *Manager {
	return &Manager{
		validate: validator.New(),
		log:      logger.WithName("store"),
	}
}

// TemplateInput is the caller-supplied portion of a template.
type TemplateInput struct {
	Name      string   `validate:"required,max=100"`
	Pattern   string   `validate:"required"`
	FileTypes []string `validate:"dive,oneof=image document video audio archive code data other"`
}

func cloneTemplateStore(s models.TemplateStore) models.TemplateStore {
	out := models.TemplateStore{
		Templates:     make([]models.Template, len(s.Templates)),
		Defaults:      make(map[string]string, len(s.Defaults)),
		GlobalDefault: s.GlobalDefault,
	}
	copy(out.Templates, s.Templates)
	for k, v := range s.Defaults {
		out.Defaults[k] = v
	}
	return out
}

func findTemplate(s *models.TemplateStore, id string) int {
	for i := range s.Templates {
		if s.Templates[i].ID == id {
			return i
		}
	}
	return -1
}

func templateNameTaken(s *models.TemplateStore, name, excludeID string) bool {
	for i := range s.Templates {
		if s.Templates[i].ID != excludeID && strings.EqualFold(s.Templates[i].Name, name) {
			return true
		}
	}
	return false
}

// CreateTemplate adds a template to a new store snapshot.
func (m *Manager) CreateTemplate(s models.TemplateStore, input TemplateInput) (models.TemplateStore, models.Template, error) {
	if err := m.validate.Struct(input); err != nil {
		return s, models.Template{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := template.Parse(input.Pattern); err != nil {
		return s, models.Template{}, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	if templateNameTaken(&s, input.Name, "") {
		return s, models.Template{}, fmt.Errorf("%w: %q", ErrDuplicateName, input.Name)
	}

	now := time.Now().UTC()
	tmpl := models.Template{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Pattern:   input.Pattern,
		FileTypes: append([]string(nil), input.FileTypes...),
		CreatedAt: now,
		UpdatedAt: now,
	}

	out := cloneTemplateStore(s)
	out.Templates = append(out.Templates, tmpl)
	m.log.WithFields(logrus.Fields{"id": tmpl.ID, "name": tmpl.Name}).Info("Created template")
	return out, tmpl, nil
}

// UpdateTemplate replaces the mutable fields of a template in a new snapshot.
// Built-ins cannot be updated.
func (m *Manager) UpdateTemplate(s models.TemplateStore, id string, input TemplateInput) (models.TemplateStore, models.Template, error) {
	idx := findTemplate(&s, id)
	if idx < 0 {
		return s, models.Template{}, fmt.Errorf("%w: template %q", ErrNotFound, id)
	}
	if s.Templates[idx].IsBuiltIn {
		return s, models.Template{}, fmt.Errorf("%w: template %q", ErrBuiltIn, id)
	}
	if err := m.validate.Struct(input); err != nil {
		return s, models.Template{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := template.Parse(input.Pattern); err != nil {
		return s, models.Template{}, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	if templateNameTaken(&s, input.Name, id) {
		return s, models.Template{}, fmt.Errorf("%w: %q", ErrDuplicateName, input.Name)
	}

	out := cloneTemplateStore(s)
	tmpl := &out.Templates[idx]
	tmpl.Name = input.Name
	tmpl.Pattern = input.Pattern
	tmpl.FileTypes = append([]string(nil), input.FileTypes...)
	tmpl.UpdatedAt = time.Now().UTC()
	return out, *tmpl, nil
}

// DeleteTemplate removes a template from a new snapshot and cascades:
// category defaults pointing at it are dropped, and if it was the global
// default the global default resets to the first built-in.
func (m *Manager) DeleteTemplate(s models.TemplateStore, id string) (models.TemplateStore, error) {
	idx := findTemplate(&s, id)
	if idx < 0 {
		return s, fmt.Errorf("%w: template %q", ErrNotFound, id)
	}
	if s.Templates[idx].IsBuiltIn {
		return s, fmt.Errorf("%w: template %q", ErrBuiltIn, id)
	}

	out := cloneTemplateStore(s)
	out.Templates = append(out.Templates[:idx], out.Templates[idx+1:]...)
	for category, tid := range out.Defaults {
		if tid == id {
			delete(out.Defaults, category)
		}
	}
	if out.GlobalDefault == id {
		out.GlobalDefault = builtInIDs()[0]
	}
	m.log.WithField("id", id).Info("Deleted template")
	return out, nil
}

// SetDefault assigns a template as the default for a file category.
func (m *Manager) SetDefault(s models.TemplateStore, category, id string) (models.TemplateStore, error) {
	if findTemplate(&s, id) < 0 {
		return s, fmt.Errorf("%w: template %q", ErrNotFound, id)
	}
	out := cloneTemplateStore(s)
	out.Defaults[category] = id
	return out, nil
}

// SetGlobalDefault assigns the store-wide fallback template.
func (m *Manager) SetGlobalDefault(s models.TemplateStore, id string) (models.TemplateStore, error) {
	if findTemplate(&s, id) < 0 {
		return s, fmt.Errorf("%w: template %q", ErrNotFound, id)
	}
	out := cloneTemplateStore(s)
	out.GlobalDefault = id
	return out, nil
}

// GetTemplate returns a template by ID.
func (m *Manager) GetTemplate(s models.TemplateStore, id string) (models.Template, error) {
	idx := findTemplate(&s, id)
	if idx < 0 {
		return models.Template{}, fmt.Errorf("%w: template %q", ErrNotFound, id)
	}
	return s.Templates[idx], nil
}

// GetDefaultForFileType resolves the template to use when no rule matched:
// category default, then global default, then the first built-in, then nil.
func (m *Manager) GetDefaultForFileType(s models.TemplateStore, category models.FileCategory) *models.Template {
	if id, ok := s.Defaults[string(category)]; ok {
		if idx := findTemplate(&s, id); idx >= 0 {
			t := s.Templates[idx]
			return &t
		}
	}
	if s.GlobalDefault != "" {
		if idx := findTemplate(&s, s.GlobalDefault); idx >= 0 {
			t := s.Templates[idx]
			return &t
		}
	}
	for _, id := range builtInIDs() {
		if idx := findTemplate(&s, id); idx >= 0 {
			t := s.Templates[idx]
			return &t
		}
	}
	return nil
}

// StoreIssue describes one integrity problem found by ValidateStore.
type StoreIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidateStore checks a template store for missing or modified built-ins,
// dangling category defaults and a dangling global default.
func (m *Manager) ValidateStore(s models.TemplateStore) []StoreIssue {
	var issues []StoreIssue

	builtins := BuiltInTemplates()
	for i := range builtins {
		idx := findTemplate(&s, builtins[i].ID)
		if idx < 0 {
			issues = append(issues, StoreIssue{
				Code:    "missing_builtin",
				Message: fmt.Sprintf("built-in template %q is missing", builtins[i].ID),
			})
			continue
		}
		got := s.Templates[idx]
		if got.Pattern != builtins[i].Pattern || got.Name != builtins[i].Name || !got.IsBuiltIn {
			issues = append(issues, StoreIssue{
				Code:    "modified_builtin",
				Message: fmt.Sprintf("built-in template %q was modified", builtins[i].ID),
			})
		}
	}

	for category, id := range s.Defaults {
		if findTemplate(&s, id) < 0 {
			issues = append(issues, StoreIssue{
				Code:    "dangling_default",
				Message: fmt.Sprintf("default for category %q references missing template %q", category, id),
			})
		}
	}

	if s.GlobalDefault == "" || findTemplate(&s, s.GlobalDefault) < 0 {
		issues = append(issues, StoreIssue{
			Code:    "dangling_global_default",
			Message: fmt.Sprintf("global default references missing template %q", s.GlobalDefault),
		})
	}

	return issues
}

// RepairStore returns a store with every ValidateStore issue fixed: missing
// built-ins re-inserted, modified built-ins restored, dangling defaults
// dropped, and a dangling global default reassigned to the first built-in.
// Repairing an already-valid store is a no-op.
func (m *Manager) RepairStore(s models.TemplateStore) models.TemplateStore {
	out := cloneTemplateStore(s)
	if out.Defaults == nil {
		out.Defaults = map[string]string{}
	}

	for _, builtin := range BuiltInTemplates() {
		idx := findTemplate(&out, builtin.ID)
		if idx < 0 {
			out.Templates = append(out.Templates, builtin)
			m.log.WithField("id", builtin.ID).Warn("Re-inserted missing built-in template")
		} else {
			out.Templates[idx] = builtin
		}
	}

	for category, id := range out.Defaults {
		if findTemplate(&out, id) < 0 {
			delete(out.Defaults, category)
		}
	}

	if out.GlobalDefault == "" || findTemplate(&out, out.GlobalDefault) < 0 {
		out.GlobalDefault = builtInIDs()[0]
	}

	return out
}
