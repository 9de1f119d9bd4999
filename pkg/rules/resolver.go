package rules

import (
	"sort"
	"time"

	"github.com/renamekit/renamekit/internal/models"
)

// RuleKind tags the two rule variants inside a unified ordering.
type RuleKind string

const (
	KindMetadata RuleKind = "metadata"
	KindFilename RuleKind = "filename"
)

// Fallback reasons reported when no rule decides the template.
const (
	FallbackNoMatch          = "no-match"
	FallbackTemplateNotFound = "template-not-found"
)

// RuleRef is a read-only view over either rule variant, used by the shared
// ordering function so resolution and preview can never disagree.
type RuleRef struct {
	Kind     RuleKind
	Metadata *models.MetadataRule
	Filename *models.FilenameRule
}

// ID returns the underlying rule's ID.
func (r RuleRef) ID() string {
	if r.Kind == KindMetadata {
		return r.Metadata.ID
	}
	return r.Filename.ID
}

// Name returns the underlying rule's name.
func (r RuleRef) Name() string {
	if r.Kind == KindMetadata {
		return r.Metadata.Name
	}
	return r.Filename.Name
}

// Priority returns the underlying rule's priority.
func (r RuleRef) Priority() int {
	if r.Kind == KindMetadata {
		return r.Metadata.Priority
	}
	return r.Filename.Priority
}

// CreatedAt returns the underlying rule's creation time.
func (r RuleRef) CreatedAt() time.Time {
	if r.Kind == KindMetadata {
		return r.Metadata.CreatedAt
	}
	return r.Filename.CreatedAt
}

// TemplateID returns the template the rule maps to.
func (r RuleRef) TemplateID() string {
	if r.Kind == KindMetadata {
		return r.Metadata.TemplateID
	}
	return r.Filename.TemplateID
}

// Enabled reports whether the underlying rule is enabled.
func (r RuleRef) Enabled() bool {
	if r.Kind == KindMetadata {
		return r.Metadata.Enabled
	}
	return r.Filename.Enabled
}

// sortByPriority orders refs by priority descending; ties break by earlier
// creation time, then by ID for full determinism.
func sortByPriority(refs []RuleRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Priority() != refs[j].Priority() {
			return refs[i].Priority() > refs[j].Priority()
		}
		if !refs[i].CreatedAt().Equal(refs[j].CreatedAt()) {
			return refs[i].CreatedAt().Before(refs[j].CreatedAt())
		}
		return refs[i].ID() < refs[j].ID()
	})
}

// OrderRules produces the evaluation order for a priority mode over the
// enabled rules. Because the first matching rule wins, placing one whole type
// ahead of the other realizes the metadata-first/filename-first whole-type
// precedence; "combined" merges both types into one priority-sorted list.
// Both Resolve and PreviewRulePriority consume this single function.
func OrderRules(mode models.PriorityMode, metadataRules []models.MetadataRule, filenameRules []models.FilenameRule) []RuleRef {
	metaRefs := make([]RuleRef, 0, len(metadataRules))
	for i := range metadataRules {
		if metadataRules[i].Enabled {
			metaRefs = append(metaRefs, RuleRef{Kind: KindMetadata, Metadata: &metadataRules[i]})
		}
	}
	fileRefs := make([]RuleRef, 0, len(filenameRules))
	for i := range filenameRules {
		if filenameRules[i].Enabled {
			fileRefs = append(fileRefs, RuleRef{Kind: KindFilename, Filename: &filenameRules[i]})
		}
	}

	switch mode {
	case models.PriorityMetadataFirst:
		sortByPriority(metaRefs)
		sortByPriority(fileRefs)
		return append(metaRefs, fileRefs...)
	case models.PriorityFilenameFirst:
		sortByPriority(metaRefs)
		sortByPriority(fileRefs)
		return append(fileRefs, metaRefs...)
	default: // combined
		all := append(metaRefs, fileRefs...)
		sortByPriority(all)
		return all
	}
}

// Resolution is the outcome of priority resolution for one file.
type Resolution struct {
	// TemplateID is the winning rule's template, empty when falling back.
	TemplateID string
	// MatchedRule is the winning rule, nil when no rule matched.
	MatchedRule *RuleRef
	// FallbackReason is set when the caller should use the default template:
	// "no-match" or "template-not-found".
	FallbackReason string
}

// Resolver picks the winning rule for a file.
type Resolver struct {
	evaluator *Evaluator
}

// NewResolver creates a resolver sharing the given evaluator.
func NewResolver(evaluator *Evaluator) *Resolver {
	if evaluator == nil {
		evaluator = NewEvaluator(nil)
	}
	return &Resolver{evaluator: evaluator}
}

func (r *Resolver) evaluate(ref RuleRef, file *models.FileInfo, meta *models.FileMetadata) (bool, error) {
	if ref.Kind == KindMetadata {
		eval, err := r.evaluator.EvaluateMetadataRule(ref.Metadata, file, meta)
		return eval.Matches, err
	}
	eval, err := r.evaluator.EvaluateFilenameRule(ref.Filename, file)
	return eval.Matches, err
}

// Resolve evaluates rules in the order given by the priority mode and returns
// the first match. The winner's template reference is validated against the
// supplied store; a dangling reference reports "template-not-found" instead
// of silently using the stale ID. Zero rules or zero matches report
// "no-match", telling the caller to fall back to the default template.
func (r *Resolver) Resolve(
	metadataRules []models.MetadataRule,
	filenameRules []models.FilenameRule,
	file *models.FileInfo,
	meta *models.FileMetadata,
	mode models.PriorityMode,
	templates *models.TemplateStore,
) (Resolution, error) {
	order := OrderRules(mode, metadataRules, filenameRules)

	for i := range order {
		matches, err := r.evaluate(order[i], file, meta)
		if err != nil {
			return Resolution{}, err
		}
		if !matches {
			continue
		}

		winner := order[i]
		if templates != nil && !templateExists(templates, winner.TemplateID()) {
			return Resolution{
				MatchedRule:    &winner,
				FallbackReason: FallbackTemplateNotFound,
			}, nil
		}
		return Resolution{TemplateID: winner.TemplateID(), MatchedRule: &winner}, nil
	}

	return Resolution{FallbackReason: FallbackNoMatch}, nil
}

func templateExists(store *models.TemplateStore, id string) bool {
	for i := range store.Templates {
		if store.Templates[i].ID == id {
			return true
		}
	}
	return false
}

// RuleOutcome records one rule's place in a priority preview.
type RuleOutcome struct {
	RuleID   string   `json:"ruleId"`
	RuleName string   `json:"ruleName"`
	Kind     RuleKind `json:"kind"`
	Priority int      `json:"priority"`
	Matched  bool     `json:"matched"`
	Winner   bool     `json:"winner"`
}

// PriorityPreview is the read-only diagnostic view of a resolution: the full
// evaluation order, the winner, every rule that matched but lost, and
// same-priority ties. Generating a preview never affects resolution outcome.
type PriorityPreview struct {
	EvaluationOrder []RuleOutcome `json:"evaluationOrder"`
	Winner          *RuleOutcome  `json:"winner,omitempty"`
	MatchedButLost  []RuleOutcome `json:"matchedButLost,omitempty"`
	Ties            []PriorityTie `json:"ties,omitempty"`
}

// PreviewRulePriority evaluates every enabled rule (no short-circuit) in the
// same order Resolve uses and reports the full diagnostic picture.
func (r *Resolver) PreviewRulePriority(
	metadataRules []models.MetadataRule,
	filenameRules []models.FilenameRule,
	file *models.FileInfo,
	meta *models.FileMetadata,
	mode models.PriorityMode,
) (PriorityPreview, error) {
	order := OrderRules(mode, metadataRules, filenameRules)

	preview := PriorityPreview{
		Ties: DetectPriorityTies(metadataRules, filenameRules),
	}
	winnerSeen := false
	for i := range order {
		matches, err := r.evaluate(order[i], file, meta)
		if err != nil {
			return PriorityPreview{}, err
		}
		outcome := RuleOutcome{
			RuleID:   order[i].ID(),
			RuleName: order[i].Name(),
			Kind:     order[i].Kind,
			Priority: order[i].Priority(),
			Matched:  matches,
		}
		if matches && !winnerSeen {
			outcome.Winner = true
			winnerSeen = true
			preview.Winner = &outcome
		} else if matches {
			preview.MatchedButLost = append(preview.MatchedButLost, outcome)
		}
		preview.EvaluationOrder = append(preview.EvaluationOrder, outcome)
	}
	return preview, nil
}

// PriorityTie is a group of enabled rules sharing the same priority value.
type PriorityTie struct {
	Priority int      `json:"priority"`
	RuleIDs  []string `json:"ruleIds"`
}

// DetectPriorityTies finds same-priority groups among all enabled rules of
// both types, sorted by priority descending.
func DetectPriorityTies(metadataRules []models.MetadataRule, filenameRules []models.FilenameRule) []PriorityTie {
	byPriority := make(map[int][]string)
	for i := range metadataRules {
		if metadataRules[i].Enabled {
			byPriority[metadataRules[i].Priority] = append(byPriority[metadataRules[i].Priority], metadataRules[i].ID)
		}
	}
	for i := range filenameRules {
		if filenameRules[i].Enabled {
			byPriority[filenameRules[i].Priority] = append(byPriority[filenameRules[i].Priority], filenameRules[i].ID)
		}
	}

	var ties []PriorityTie
	for priority, ids := range byPriority {
		if len(ids) > 1 {
			sort.Strings(ids)
			ties = append(ties, PriorityTie{Priority: priority, RuleIDs: ids})
		}
	}
	sort.Slice(ties, func(i, j int) bool { return ties[i].Priority > ties[j].Priority })
	return ties
}
