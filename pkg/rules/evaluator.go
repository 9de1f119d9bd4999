// Package rules evaluates filename and metadata rules against files and
// resolves which rule wins for a given priority mode.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/logger"
)

var (
	// ErrInvalidPattern signals a malformed glob (unclosed bracket or brace).
	ErrInvalidPattern = errors.New("INVALID_PATTERN")
	// ErrInvalidRegex signals a regex condition that failed to compile.
	ErrInvalidRegex = errors.New("INVALID_REGEX")
	// ErrUnknownOperator signals an operator outside the schema. Defensive;
	// valid stores never produce it.
	ErrUnknownOperator = errors.New("EVALUATION_ERROR")
)

// Evaluation is the outcome of testing one rule against one file.
type Evaluation struct {
	Matches bool
	// ConditionResults holds the per-condition outcome for metadata rules, in
	// condition order, for diagnostics. Short-circuited conditions are absent.
	ConditionResults []ConditionResult
}

// ConditionResult is the diagnostic outcome of one condition.
type ConditionResult struct {
	Field      string `json:"field"`
	Matched    bool   `json:"matched"`
	FieldFound bool   `json:"fieldFound"`
}

// Evaluator tests rules against files. The regex cache is injected so tests
// can assert cache behavior; a nil cache gets a default bounded one.
type Evaluator struct {
	regexes *RegexCache
	log     *logrus.Entry
}

// NewEvaluator creates an evaluator with the given regex cache.
func NewEvaluator(cache *RegexCache) *Evaluator {
	if cache == nil {
		cache = NewRegexCache(128)
	}
	return &Evaluator{
		regexes: cache,
		log:     logger.WithName("rules"),
	}
}

// RegexCache exposes the evaluator's cache for inspection.
func (e *Evaluator) RegexCache() *RegexCache {
	return e.regexes
}

// ClearRegexCache empties the regex cache. Results must not change.
func (e *Evaluator) ClearRegexCache() {
	e.regexes.Clear()
}

// EvaluateFilenameRule tests a glob rule against a file's full name. Disabled
// rules short-circuit to no-match without compiling the pattern.
func (e *Evaluator) EvaluateFilenameRule(rule *models.FilenameRule, file *models.FileInfo) (Evaluation, error) {
	if !rule.Enabled {
		return Evaluation{}, nil
	}

	pattern := rule.Pattern
	name := file.FullName
	if !rule.CaseSensitive {
		pattern = strings.ToLower(pattern)
		name = strings.ToLower(name)
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, rule.Pattern, err)
	}

	return Evaluation{Matches: g.Match(name)}, nil
}

// EvaluateMetadataRule tests every condition of a metadata rule against the
// file's metadata bundle. matchMode "all" short-circuits on the first failed
// condition, "any" on the first match. An absent field is a plain non-match
// for value operators, never an error.
func (e *Evaluator) EvaluateMetadataRule(rule *models.MetadataRule, file *models.FileInfo, meta *models.FileMetadata) (Evaluation, error) {
	if !rule.Enabled {
		return Evaluation{}, nil
	}
	if len(rule.Conditions) == 0 {
		return Evaluation{}, nil
	}

	var eval Evaluation
	for i := range rule.Conditions {
		cond := &rule.Conditions[i]
		matched, found, err := e.evaluateCondition(cond, file, meta)
		if err != nil {
			return Evaluation{}, err
		}
		eval.ConditionResults = append(eval.ConditionResults, ConditionResult{
			Field:      cond.Field,
			Matched:    matched,
			FieldFound: found,
		})

		if rule.MatchMode == models.MatchAny {
			if matched {
				eval.Matches = true
				return eval, nil
			}
		} else { // all (default)
			if !matched {
				return eval, nil
			}
		}
	}

	eval.Matches = rule.MatchMode != models.MatchAny
	return eval, nil
}

func (e *Evaluator) evaluateCondition(cond *models.Condition, file *models.FileInfo, meta *models.FileMetadata) (matched, found bool, err error) {
	value, found := models.ResolveField(cond.Field, file, meta)

	switch cond.Operator {
	case models.OpExists:
		return found, found, nil
	case models.OpNotExists:
		return !found, found, nil
	}

	if !found {
		return false, false, nil
	}

	target := cond.Value
	subject := value
	if !cond.CaseSensitive && cond.Operator != models.OpRegex {
		target = strings.ToLower(target)
		subject = strings.ToLower(subject)
	}

	switch cond.Operator {
	case models.OpEquals:
		return subject == target, true, nil
	case models.OpContains:
		return strings.Contains(subject, target), true, nil
	case models.OpStartsWith:
		return strings.HasPrefix(subject, target), true, nil
	case models.OpEndsWith:
		return strings.HasSuffix(subject, target), true, nil
	case models.OpRegex:
		re, compileErr := e.regexes.Get(cond.Value, cond.CaseSensitive)
		if compileErr != nil {
			return false, true, fmt.Errorf("%w: %q: %v", ErrInvalidRegex, cond.Value, compileErr)
		}
		return re.MatchString(value), true, nil
	default:
		return false, true, fmt.Errorf("%w: unknown operator %q", ErrUnknownOperator, cond.Operator)
	}
}
