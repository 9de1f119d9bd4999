// Package engine validates and executes batches of rename/move proposals
// with progress reporting, cooperative cancellation, on-demand directory
// creation, partial-failure handling and history recording.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/history"
	"github.com/renamekit/renamekit/pkg/logger"
)

// Validation issue codes.
const (
	CodeSourceNotFound    = "SOURCE_NOT_FOUND"
	CodeTargetExists      = "TARGET_EXISTS"
	CodeNoWritePermission = "NO_WRITE_PERMISSION"
)

const cancelledMessage = "Operation cancelled"

// ValidationIssue is one pre-flight failure for one proposal.
type ValidationIssue struct {
	ProposalID string `json:"proposalId"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// ValidationError blocks a batch before any filesystem mutation: it carries
// one issue per offending proposal so callers can present an actionable list.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("batch validation failed with %d issue(s)", len(e.Issues))
}

// ProgressFunc is invoked synchronously after each processed proposal.
type ProgressFunc func(completed, total int, result models.FileRenameResult)

// Options configures one execution.
type Options struct {
	// SkipValidation bypasses the pre-flight gate. This is a testing seam for
	// exercising partial-failure handling; production callers should leave it
	// false.
	SkipValidation bool
	// SkipHistory disables history recording for this execution.
	SkipHistory bool
	// OnProgress fires after each proposal, before the next one starts.
	OnProgress ProgressFunc
	// ProposalIDs restricts execution to the listed proposals; empty means
	// all. Unselected proposals are reported skipped.
	ProposalIDs []string
}

// Engine executes batches sequentially. One Engine may serve many batches;
// each invocation owns its own result state.
type Engine struct {
	history history.Store
	log     *logrus.Entry
}

// New creates an engine. The history store may be nil, in which case no
// entries are recorded.
func New(store history.Store) *Engine {
	return &Engine{
		history: store,
		log:     logger.WithName("engine"),
	}
}

// actionable reports whether execution should attempt a proposal at all.
// no-change and unresolved-conflict proposals are skipped outright.
func actionable(p *models.RenameProposal) bool {
	return p.Status == models.StatusReady
}

func dirWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

// nearestExistingAncestor walks up from dir to the closest directory that
// exists on disk.
func nearestExistingAncestor(dir string) string {
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

// Validate checks every actionable, selected proposal against the current
// filesystem state. Any issue blocks the whole batch.
func (e *Engine) Validate(proposals []models.RenameProposal, opts Options) []ValidationIssue {
	selected := selectionSet(opts.ProposalIDs)
	var issues []ValidationIssue

	for i := range proposals {
		p := &proposals[i]
		if !actionable(p) {
			continue
		}
		if selected != nil && !selected[p.ID] {
			continue
		}

		if _, err := os.Stat(p.OriginalPath); err != nil {
			issues = append(issues, ValidationIssue{
				ProposalID: p.ID,
				Code:       CodeSourceNotFound,
				Message:    fmt.Sprintf("source file not found: %s", p.OriginalPath),
			})
			continue
		}

		noop := p.OriginalPath == p.ProposedPath
		if !noop {
			if _, err := os.Stat(p.ProposedPath); err == nil {
				issues = append(issues, ValidationIssue{
					ProposalID: p.ID,
					Code:       CodeTargetExists,
					Message:    fmt.Sprintf("target already exists: %s", p.ProposedPath),
				})
				continue
			}
		}

		targetDir := filepath.Dir(p.ProposedPath)
		if _, err := os.Stat(targetDir); err == nil {
			if !dirWritable(targetDir) {
				issues = append(issues, ValidationIssue{
					ProposalID: p.ID,
					Code:       CodeNoWritePermission,
					Message:    fmt.Sprintf("no write permission for directory: %s", targetDir),
				})
			}
			continue
		}

		// Target directory is missing: only move operations may create it,
		// and the nearest existing ancestor must be writable.
		if !p.IsMoveOperation {
			issues = append(issues, ValidationIssue{
				ProposalID: p.ID,
				Code:       CodeNoWritePermission,
				Message:    fmt.Sprintf("target directory does not exist: %s", targetDir),
			})
			continue
		}
		ancestor := nearestExistingAncestor(targetDir)
		if !dirWritable(ancestor) {
			issues = append(issues, ValidationIssue{
				ProposalID: p.ID,
				Code:       CodeNoWritePermission,
				Message:    fmt.Sprintf("no write permission for directory: %s", ancestor),
			})
		}
	}

	return issues
}

func selectionSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// Execute runs the batch: validating → executing → completed or aborted.
// Execution is strictly sequential; a per-file failure never aborts the
// remaining proposals. Cancellation is polled between proposals, never
// mid-operation, and already-completed renames are not rolled back.
func (e *Engine) Execute(ctx context.Context, proposals []models.RenameProposal, opts Options) (models.BatchRenameResult, error) {
	startedAt := time.Now().UTC()

	if !opts.SkipValidation {
		if issues := e.Validate(proposals, opts); len(issues) > 0 {
			e.log.WithField("issues", len(issues)).Warn("Batch validation failed")
			return models.BatchRenameResult{}, &ValidationError{Issues: issues}
		}
	}

	selected := selectionSet(opts.ProposalIDs)
	total := len(proposals)
	result := models.BatchRenameResult{StartedAt: startedAt}

	var createdDirs []string
	createdSet := make(map[string]bool)
	cancelled := false

	for i := range proposals {
		p := &proposals[i]

		if !cancelled && ctx != nil && ctx.Err() != nil {
			cancelled = true
		}

		fileResult := models.FileRenameResult{
			ProposalID:   p.ID,
			OriginalPath: p.OriginalPath,
			OriginalName: p.OriginalName,
			IsMove:       p.IsMoveOperation,
		}

		switch {
		case cancelled:
			fileResult.Outcome = models.OutcomeSkipped
			fileResult.Error = cancelledMessage
		case selected != nil && !selected[p.ID]:
			fileResult.Outcome = models.OutcomeSkipped
			fileResult.Error = "Not selected"
		case !actionable(p):
			fileResult.Outcome = models.OutcomeSkipped
			fileResult.Error = fmt.Sprintf("Status: %s", p.Status)
		case p.OriginalName == p.ProposedName && !p.IsMoveOperation:
			fileResult.Outcome = models.OutcomeSkipped
			fileResult.Error = "No change needed"
		default:
			e.performRename(p, &fileResult, createdSet, &createdDirs)
		}

		result.Results = append(result.Results, fileResult)

		switch fileResult.Outcome {
		case models.OutcomeSuccess:
			result.Summary.Succeeded++
		case models.OutcomeFailed:
			result.Summary.Failed++
		case models.OutcomeSkipped:
			result.Summary.Skipped++
		}

		if opts.OnProgress != nil {
			opts.OnProgress(i+1, total, fileResult)
		}
	}

	result.Summary.Total = total
	result.Aborted = cancelled
	result.Success = result.Summary.Failed == 0 && !cancelled
	result.DirectoriesCreated = createdDirs
	result.CompletedAt = time.Now().UTC()
	result.DurationMS = result.CompletedAt.Sub(result.StartedAt).Milliseconds()

	if !opts.SkipHistory && e.history != nil {
		if entryID, err := e.recordHistory(&result); err != nil {
			// History recording must never fail the rename itself
			e.log.WithError(err).Warn("Failed to record operation history")
		} else {
			result.HistoryEntryID = entryID
		}
	}

	e.log.WithFields(logrus.Fields{
		"total":     result.Summary.Total,
		"succeeded": result.Summary.Succeeded,
		"failed":    result.Summary.Failed,
		"skipped":   result.Summary.Skipped,
		"aborted":   result.Aborted,
	}).Info("Batch execution finished")

	return result, nil
}

// performRename creates missing target directories for move operations and
// performs the rename, recording the outcome on fileResult.
func (e *Engine) performRename(p *models.RenameProposal, fileResult *models.FileRenameResult, createdSet map[string]bool, createdDirs *[]string) {
	targetDir := filepath.Dir(p.ProposedPath)

	if p.IsMoveOperation {
		if _, err := os.Stat(targetDir); os.IsNotExist(err) {
			// Record every directory level that will be newly created;
			// pre-existing ancestors keep their permissions untouched.
			var missing []string
			for dir := targetDir; ; dir = filepath.Dir(dir) {
				if _, statErr := os.Stat(dir); statErr == nil {
					break
				}
				missing = append(missing, dir)
				if filepath.Dir(dir) == dir {
					break
				}
			}
			if err := os.MkdirAll(targetDir, 0o755); err != nil {
				fileResult.Outcome = models.OutcomeFailed
				fileResult.Error = fmt.Sprintf("Failed to create directory: %v", err)
				return
			}
			for _, dir := range missing {
				if !createdSet[dir] {
					createdSet[dir] = true
					*createdDirs = append(*createdDirs, dir)
				}
			}
		}
	}

	if err := os.Rename(p.OriginalPath, p.ProposedPath); err != nil {
		fileResult.Outcome = models.OutcomeFailed
		fileResult.Error = err.Error()
		return
	}

	fileResult.Outcome = models.OutcomeSuccess
	fileResult.NewPath = p.ProposedPath
	fileResult.NewName = p.ProposedName
}

// recordHistory appends one entry for this execution, empty batches
// included.
func (e *Engine) recordHistory(result *models.BatchRenameResult) (string, error) {
	opType := models.OperationRename
	files := make([]models.FileHistoryRecord, 0, len(result.Results))
	for _, r := range result.Results {
		if r.IsMove && r.Outcome == models.OutcomeSuccess {
			opType = models.OperationMove
		}
		files = append(files, models.FileHistoryRecord{
			OriginalPath:    r.OriginalPath,
			NewPath:         r.NewPath,
			IsMoveOperation: r.IsMove,
			Success:         r.Outcome == models.OutcomeSuccess,
			Error:           r.Error,
		})
	}

	entry := models.OperationHistoryEntry{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		OperationType: opType,
		FileCount:     len(files),
		Summary: models.OperationSummary{
			Succeeded: result.Summary.Succeeded,
			Failed:    result.Summary.Failed,
			Skipped:   result.Summary.Skipped,
		},
		DurationMS:         result.DurationMS,
		Files:              files,
		DirectoriesCreated: append([]string(nil), result.DirectoriesCreated...),
	}

	if err := e.history.Append(entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// sortByDepthDesc orders directory paths deepest-first so empty directories
// can be removed bottom-up.
func sortByDepthDesc(dirs []string) {
	sort.Slice(dirs, func(i, j int) bool {
		di := strings.Count(filepath.Clean(dirs[i]), string(filepath.Separator))
		dj := strings.Count(filepath.Clean(dirs[j]), string(filepath.Separator))
		if di != dj {
			return di > dj
		}
		return dirs[i] > dirs[j]
	})
}
