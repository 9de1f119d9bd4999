package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"github.com/renamekit/renamekit/internal/models"
)

// MetadataRuleInput is the caller-supplied portion of a metadata rule.
type MetadataRuleInput struct {
	Name              string             `validate:"required,max=100"`
	Conditions        []models.Condition `validate:"min=1,dive"`
	MatchMode         models.MatchMode   `validate:"oneof=all any"`
	TemplateID        string             `validate:"required"`
	FolderStructureID string
	Priority          int `validate:"min=0"`
	Enabled           bool
}

// FilenameRuleInput is the caller-supplied portion of a filename rule.
type FilenameRuleInput struct {
	Name          string `validate:"required,max=100"`
	Pattern       string `validate:"required"`
	CaseSensitive bool
	TemplateID    string `validate:"required"`
	Priority      int    `validate:"min=0"`
	Enabled       bool
}

func metadataRuleNameTaken(rules []models.MetadataRule, name, excludeID string) bool {
	for i := range rules {
		if rules[i].ID != excludeID && strings.EqualFold(rules[i].Name, name) {
			return true
		}
	}
	return false
}

func filenameRuleNameTaken(rules []models.FilenameRule, name, excludeID string) bool {
	for i := range rules {
		if rules[i].ID != excludeID && strings.EqualFold(rules[i].Name, name) {
			return true
		}
	}
	return false
}

func (m *Manager) checkMetadataInput(input MetadataRuleInput, templates *models.TemplateStore) error {
	if err := m.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	for _, cond := range input.Conditions {
		if !models.IsValidFieldPath(cond.Field) {
			return fmt.Errorf("%w: unknown field path %q", ErrValidation, cond.Field)
		}
		switch cond.Operator {
		case models.OpExists, models.OpNotExists:
		case models.OpEquals, models.OpContains, models.OpStartsWith, models.OpEndsWith, models.OpRegex:
			if cond.Value == "" {
				return fmt.Errorf("%w: operator %q requires a value", ErrValidation, cond.Operator)
			}
		default:
			return fmt.Errorf("%w: unknown operator %q", ErrValidation, cond.Operator)
		}
	}
	if templates != nil && findTemplate(templates, input.TemplateID) < 0 {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, input.TemplateID)
	}
	return nil
}

func (m *Manager) checkFilenameInput(input FilenameRuleInput, templates *models.TemplateStore) error {
	if err := m.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := glob.Compile(input.Pattern); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidPattern, input.Pattern, err)
	}
	if templates != nil && findTemplate(templates, input.TemplateID) < 0 {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, input.TemplateID)
	}
	return nil
}

// CreateMetadataRule appends a new rule to a new slice snapshot. When a
// template store is supplied, the template reference is checked.
func (m *Manager) CreateMetadataRule(rules []models.MetadataRule, input MetadataRuleInput, templates *models.TemplateStore) ([]models.MetadataRule, models.MetadataRule, error) {
	if err := m.checkMetadataInput(input, templates); err != nil {
		return rules, models.MetadataRule{}, err
	}
	if metadataRuleNameTaken(rules, input.Name, "") {
		return rules, models.MetadataRule{}, fmt.Errorf("%w: %q", ErrDuplicateName, input.Name)
	}

	now := time.Now().UTC()
	rule := models.MetadataRule{
		ID:                uuid.NewString(),
		Name:              input.Name,
		Conditions:        append([]models.Condition(nil), input.Conditions...),
		MatchMode:         input.MatchMode,
		TemplateID:        input.TemplateID,
		FolderStructureID: input.FolderStructureID,
		Priority:          input.Priority,
		Enabled:           input.Enabled,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	out := make([]models.MetadataRule, len(rules), len(rules)+1)
	copy(out, rules)
	out = append(out, rule)
	return out, rule, nil
}

// UpdateMetadataRule replaces a rule's mutable fields in a new snapshot.
func (m *Manager) UpdateMetadataRule(rules []models.MetadataRule, id string, input MetadataRuleInput, templates *models.TemplateStore) ([]models.MetadataRule, models.MetadataRule, error) {
	idx := -1
	for i := range rules {
		if rules[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return rules, models.MetadataRule{}, fmt.Errorf("%w: rule %q", ErrNotFound, id)
	}
	if err := m.checkMetadataInput(input, templates); err != nil {
		return rules, models.MetadataRule{}, err
	}
	if metadataRuleNameTaken(rules, input.Name, id) {
		return rules, models.MetadataRule{}, fmt.Errorf("%w: %q", ErrDuplicateName, input.Name)
	}

	out := make([]models.MetadataRule, len(rules))
	copy(out, rules)
	rule := &out[idx]
	rule.Name = input.Name
	rule.Conditions = append([]models.Condition(nil), input.Conditions...)
	rule.MatchMode = input.MatchMode
	rule.TemplateID = input.TemplateID
	rule.FolderStructureID = input.FolderStructureID
	rule.Priority = input.Priority
	rule.Enabled = input.Enabled
	rule.UpdatedAt = time.Now().UTC()
	return out, *rule, nil
}

// DeleteMetadataRule removes a rule in a new snapshot.
func (m *Manager) DeleteMetadataRule(rules []models.MetadataRule, id string) ([]models.MetadataRule, error) {
	for i := range rules {
		if rules[i].ID == id {
			out := make([]models.MetadataRule, 0, len(rules)-1)
			out = append(out, rules[:i]...)
			out = append(out, rules[i+1:]...)
			return out, nil
		}
	}
	return rules, fmt.Errorf("%w: rule %q", ErrNotFound, id)
}

// CreateFilenameRule appends a new glob rule to a new slice snapshot.
func (m *Manager) CreateFilenameRule(rules []models.FilenameRule, input FilenameRuleInput, templates *models.TemplateStore) ([]models.FilenameRule, models.FilenameRule, error) {
	if err := m.checkFilenameInput(input, templates); err != nil {
		return rules, models.FilenameRule{}, err
	}
	if filenameRuleNameTaken(rules, input.Name, "") {
		return rules, models.FilenameRule{}, fmt.Errorf("%w: %q", ErrDuplicateName, input.Name)
	}

	now := time.Now().UTC()
	rule := models.FilenameRule{
		ID:            uuid.NewString(),
		Name:          input.Name,
		Pattern:       input.Pattern,
		CaseSensitive: input.CaseSensitive,
		TemplateID:    input.TemplateID,
		Priority:      input.Priority,
		Enabled:       input.Enabled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	out := make([]models.FilenameRule, len(rules), len(rules)+1)
	copy(out, rules)
	out = append(out, rule)
	return out, rule, nil
}

// UpdateFilenameRule replaces a rule's mutable fields in a new snapshot.
func (m *Manager) UpdateFilenameRule(rules []models.FilenameRule, id string, input FilenameRuleInput, templates *models.TemplateStore) ([]models.FilenameRule, models.FilenameRule, error) {
	idx := -1
	for i := range rules {
		if rules[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return rules, models.FilenameRule{}, fmt.Errorf("%w: rule %q", ErrNotFound, id)
	}
	if err := m.checkFilenameInput(input, templates); err != nil {
		return rules, models.FilenameRule{}, err
	}
	if filenameRuleNameTaken(rules, input.Name, id) {
		return rules, models.FilenameRule{}, fmt.Errorf("%w: %q", ErrDuplicateName, input.Name)
	}

	out := make([]models.FilenameRule, len(rules))
	copy(out, rules)
	rule := &out[idx]
	rule.Name = input.Name
	rule.Pattern = input.Pattern
	rule.CaseSensitive = input.CaseSensitive
	rule.TemplateID = input.TemplateID
	rule.Priority = input.Priority
	rule.Enabled = input.Enabled
	rule.UpdatedAt = time.Now().UTC()
	return out, *rule, nil
}

// DeleteFilenameRule removes a rule in a new snapshot.
func (m *Manager) DeleteFilenameRule(rules []models.FilenameRule, id string) ([]models.FilenameRule, error) {
	for i := range rules {
		if rules[i].ID == id {
			out := make([]models.FilenameRule, 0, len(rules)-1)
			out = append(out, rules[:i]...)
			out = append(out, rules[i+1:]...)
			return out, nil
		}
	}
	return rules, fmt.Errorf("%w: rule %q", ErrNotFound, id)
}

// ReorderMetadataRules assigns descending priorities following the given ID
// order, returning a new snapshot. Unknown IDs fail with not_found and leave
// the input untouched.
func (m *Manager) ReorderMetadataRules(rules []models.MetadataRule, orderedIDs []string) ([]models.MetadataRule, error) {
	index := make(map[string]int, len(rules))
	for i := range rules {
		index[rules[i].ID] = i
	}
	for _, id := range orderedIDs {
		if _, ok := index[id]; !ok {
			return rules, fmt.Errorf("%w: rule %q", ErrNotFound, id)
		}
	}

	out := make([]models.MetadataRule, len(rules))
	copy(out, rules)
	now := time.Now().UTC()
	for pos, id := range orderedIDs {
		i := index[id]
		out[i].Priority = len(orderedIDs) - pos
		out[i].UpdatedAt = now
	}
	return out, nil
}

// ReorderFilenameRules is the filename-rule counterpart of
// ReorderMetadataRules.
func (m *Manager) ReorderFilenameRules(rules []models.FilenameRule, orderedIDs []string) ([]models.FilenameRule, error) {
	index := make(map[string]int, len(rules))
	for i := range rules {
		index[rules[i].ID] = i
	}
	for _, id := range orderedIDs {
		if _, ok := index[id]; !ok {
			return rules, fmt.Errorf("%w: rule %q", ErrNotFound, id)
		}
	}

	out := make([]models.FilenameRule, len(rules))
	copy(out, rules)
	now := time.Now().UTC()
	for pos, id := range orderedIDs {
		i := index[id]
		out[i].Priority = len(orderedIDs) - pos
		out[i].UpdatedAt = now
	}
	return out, nil
}
