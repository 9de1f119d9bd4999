// Package conflict screens a batch of rename proposals for destructive
// collisions before any filesystem mutation happens.
package conflict

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/logger"
	"github.com/renamekit/renamekit/pkg/pathutil"
)

// Conflict type codes.
const (
	TypeDuplicateProposed = "DUPLICATE_PROPOSED"
	TypeFileExists        = "FILE_EXISTS"
)

// Options configures detection.
type Options struct {
	// CaseInsensitiveFS treats a case-only path difference as a rename of the
	// same file rather than a collision (macOS/Windows default).
	CaseInsensitiveFS bool
}

// Summary tallies detected conflicts by category.
type Summary struct {
	DuplicateProposed int `json:"duplicateProposed"`
	FileExists        int `json:"fileExists"`
	Total             int `json:"total"`
}

// Result is the outcome of screening a batch.
type Result struct {
	HasConflicts bool
	// Conflicts maps proposal ID to the conflicts found for it.
	Conflicts map[string][]models.Conflict
	Summary   Summary
}

var log *logrus.Entry

func init() {
	log = logger.WithName("conflict")
}

// DetectAll finds duplicate targets within the batch and collisions with
// pre-existing filesystem entries. Proposals that are not actionable
// (no-change, invalid-name) participate in duplicate grouping but are never
// flagged themselves.
func DetectAll(proposals []models.RenameProposal, opts Options) Result {
	result := Result{Conflicts: make(map[string][]models.Conflict)}

	add := func(id string, c models.Conflict) {
		result.Conflicts[id] = append(result.Conflicts[id], c)
		result.HasConflicts = true
		result.Summary.Total++
		switch c.Type {
		case TypeDuplicateProposed:
			result.Summary.DuplicateProposed++
		case TypeFileExists:
			result.Summary.FileExists++
		}
	}

	flaggable := func(p *models.RenameProposal) bool {
		return p.Status == models.StatusReady || p.Status == models.StatusConflict
	}

	// Batch duplicates: same proposed path, compared case-insensitively.
	groups := make(map[string][]int)
	for i := range proposals {
		key := strings.ToLower(proposals[i].ProposedPath)
		groups[key] = append(groups[key], i)
	}
	for _, indices := range groups {
		if len(indices) < 2 {
			continue
		}
		seq := 0
		for _, i := range indices {
			p := &proposals[i]
			if !flaggable(p) {
				continue
			}
			seq++
			other := indices[0]
			if other == i && len(indices) > 1 {
				other = indices[1]
			}
			add(p.ID, models.Conflict{
				Type:                  TypeDuplicateProposed,
				Message:               "Another file in this batch would have the same name",
				ConflictingProposalID: proposals[other].ID,
				SuggestedName:         pathutil.WithSequenceSuffix(p.ProposedName, seq),
			})
		}
	}

	// Filesystem collisions: target already exists and is not the source.
	for i := range proposals {
		p := &proposals[i]
		if !flaggable(p) {
			continue
		}
		if p.OriginalPath == p.ProposedPath {
			continue
		}
		if opts.CaseInsensitiveFS && strings.EqualFold(p.OriginalPath, p.ProposedPath) {
			// Case-only rename of the same file on a case-insensitive volume
			continue
		}
		if _, err := os.Stat(p.ProposedPath); err == nil {
			add(p.ID, models.Conflict{
				Type:             TypeFileExists,
				Message:          "A file already exists at the proposed path",
				ExistingFilePath: p.ProposedPath,
				SuggestedName:    pathutil.WithUniqueSuffix(p.ProposedName),
			})
		}
	}

	if result.HasConflicts {
		log.WithFields(logrus.Fields{
			"duplicates": result.Summary.DuplicateProposed,
			"existing":   result.Summary.FileExists,
		}).Debug("Conflicts detected in batch")
	}

	return result
}

// Annotate returns a new proposal slice with detected conflicts applied:
// affected proposals get conflict status/action, an issue per conflict, and
// the first conflict's detail attached. Input proposals are not mutated.
func Annotate(proposals []models.RenameProposal, result Result) []models.RenameProposal {
	out := make([]models.RenameProposal, len(proposals))
	copy(out, proposals)

	for i := range out {
		conflicts, ok := result.Conflicts[out[i].ID]
		if !ok || len(conflicts) == 0 {
			continue
		}
		out[i].Status = models.StatusConflict
		out[i].ActionType = models.ActionConflict
		first := conflicts[0]
		out[i].Conflict = &first
		for _, c := range conflicts {
			out[i].Issues = append(out[i].Issues, models.Issue{
				Code:    c.Type,
				Message: c.Message,
			})
		}
	}
	return out
}

// BlockOnConflicts is the hard gate before execution: it fails if any
// conflict remains, enumerating category counts so the caller can present an
// actionable message. Execution must never proceed past this gate.
func BlockOnConflicts(proposals []models.RenameProposal, opts Options) error {
	result := DetectAll(proposals, opts)
	if !result.HasConflicts {
		return nil
	}
	return fmt.Errorf(
		"cannot execute: %d unresolved conflict(s) (%d duplicate target(s), %d existing file(s)); resolve all conflicts before executing",
		result.Summary.Total, result.Summary.DuplicateProposed, result.Summary.FileExists,
	)
}
