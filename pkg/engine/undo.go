package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/history"
)

// UndoOptions configures one undo run.
type UndoOptions struct {
	// DryRun computes the per-file restore plan without touching the
	// filesystem or marking the entry undone.
	DryRun bool
}

// CanUndo reports whether the entry exists, has not been undone yet and has
// at least one successfully processed file to restore.
func (e *Engine) CanUndo(entryID string) (bool, error) {
	if e.history == nil {
		return false, fmt.Errorf("history store not configured")
	}
	entry, err := e.history.Get(entryID)
	if err != nil {
		return false, err
	}
	if entry.Undone {
		return false, nil
	}
	for _, f := range entry.Files {
		if f.Success && f.NewPath != "" {
			return true, nil
		}
	}
	return false, nil
}

// Undo reverses a recorded operation by renaming each successfully processed
// file back to its original path, then removing any directories the original
// operation created that are now empty. Files whose original attempt failed
// or was skipped are not touched. A second undo of the same entry returns
// history.ErrAlreadyUndone.
func (e *Engine) Undo(ctx context.Context, entryID string, opts UndoOptions) (models.UndoResult, error) {
	start := time.Now()
	result := models.UndoResult{OperationID: entryID, DryRun: opts.DryRun}

	if e.history == nil {
		return result, fmt.Errorf("history store not configured")
	}

	entry, err := e.history.Get(entryID)
	if err != nil {
		return result, err
	}
	if entry.Undone {
		return result, history.ErrAlreadyUndone
	}

	cancelled := false
	for _, f := range entry.Files {
		if !cancelled && ctx != nil && ctx.Err() != nil {
			cancelled = true
		}

		fileResult := models.UndoFileResult{
			FromPath: f.NewPath,
			ToPath:   f.OriginalPath,
		}

		switch {
		case !f.Success || f.NewPath == "":
			fileResult.Outcome = models.OutcomeSkipped
			fileResult.Error = "Original operation did not succeed"
			result.FilesSkipped++
		case cancelled:
			fileResult.Outcome = models.OutcomeSkipped
			fileResult.Error = cancelledMessage
			result.FilesSkipped++
		case opts.DryRun:
			fileResult.Outcome = models.OutcomeSkipped
			result.FilesSkipped++
		default:
			if _, statErr := os.Stat(f.NewPath); statErr != nil {
				fileResult.Outcome = models.OutcomeFailed
				fileResult.Error = fmt.Sprintf("file no longer at expected path: %s", f.NewPath)
				result.FilesFailed++
			} else if renameErr := os.Rename(f.NewPath, f.OriginalPath); renameErr != nil {
				fileResult.Outcome = models.OutcomeFailed
				fileResult.Error = renameErr.Error()
				result.FilesFailed++
			} else {
				fileResult.Outcome = models.OutcomeSuccess
				result.FilesRestored++
			}
		}

		result.Files = append(result.Files, fileResult)
	}

	if !opts.DryRun && !cancelled {
		result.DirectoriesRemoved = removeEmptyDirs(entry.DirectoriesCreated)
	}

	// A partially restored entry still flips undone: re-running it would
	// move the already-restored files a second time.
	if !opts.DryRun && result.FilesRestored > 0 {
		if markErr := e.history.MarkUndone(entryID); markErr != nil {
			e.log.WithError(markErr).Warn("Failed to mark history entry undone")
		}
	}

	result.Success = result.FilesFailed == 0 && !cancelled
	result.DurationMS = time.Since(start).Milliseconds()

	e.log.WithField("operationId", entryID).
		WithField("restored", result.FilesRestored).
		WithField("failed", result.FilesFailed).
		Info("Undo finished")

	return result, nil
}

// removeEmptyDirs removes the given directories deepest-first, keeping any
// that are not empty. Returns the directories actually removed.
func removeEmptyDirs(dirs []string) []string {
	if len(dirs) == 0 {
		return nil
	}
	ordered := append([]string(nil), dirs...)
	sortByDepthDesc(ordered)

	var removed []string
	for _, dir := range ordered {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err == nil {
			removed = append(removed, dir)
		}
	}
	return removed
}
