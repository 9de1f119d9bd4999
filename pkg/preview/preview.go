// Package preview turns files plus configuration into rename proposals. A
// preview never mutates the filesystem: it resolves the winning rule per
// file, renders the template, screens the batch for conflicts and reports a
// summary the caller can act on.
package preview

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/conflict"
	"github.com/renamekit/renamekit/pkg/logger"
	"github.com/renamekit/renamekit/pkg/rules"
	"github.com/renamekit/renamekit/pkg/store"
	"github.com/renamekit/renamekit/pkg/template"
)

// Issue codes attached to proposals.
const (
	CodeMissingData       = "MISSING_DATA"
	CodeInvalidName       = "INVALID_NAME"
	CodeTemplateNotFound  = "TEMPLATE_NOT_FOUND"
	CodeNoDefaultTemplate = "NO_DEFAULT_TEMPLATE"
)

// Request describes one preview computation.
type Request struct {
	// Files are the candidates, in the order proposals are produced.
	Files []models.FileInfo
	// Metadata holds extracted metadata keyed by file path; entries may be
	// missing for files whose formats carry none.
	Metadata map[string]*models.FileMetadata
	// Config supplies templates, rules and the priority mode.
	Config models.AppConfig
	// TemplateID forces one template for every file, bypassing rules.
	TemplateID string

	DateFormat            string
	CaseStyle             template.CaseStyle
	StripExistingPatterns bool

	// OrganizeMode moves files into folders derived from FolderPattern,
	// e.g. "{year}/{month}" or "{category}".
	OrganizeMode bool
	FolderPattern string
	// DestinationRoot is the base directory for organize mode; defaults to
	// each file's own directory.
	DestinationRoot string

	// CaseInsensitiveFS adjusts collision detection for macOS/Windows
	// volumes where a case-only rename targets the same file.
	CaseInsensitiveFS bool
}

// Generator computes previews. Safe for concurrent use.
type Generator struct {
	templates *store.Manager
	resolver  *rules.Resolver
	log       *logrus.Entry
}

// New creates a generator. Nil arguments get fresh defaults.
func New(templates *store.Manager, resolver *rules.Resolver) *Generator {
	if templates == nil {
		templates = store.NewManager()
	}
	if resolver == nil {
		resolver = rules.NewResolver(nil)
	}
	return &Generator{
		templates: templates,
		resolver:  resolver,
		log:       logger.WithName("preview"),
	}
}

// Generate produces one proposal per file, in input order, then screens the
// whole batch for duplicate targets and filesystem collisions. Cancellation
// is polled between files and aborts with ctx.Err().
func (g *Generator) Generate(ctx context.Context, req Request) (models.RenamePreview, error) {
	prev := models.RenamePreview{GeneratedAt: time.Now().UTC(), TemplateUsed: req.TemplateID}

	parsedCache := make(map[string]*template.Parsed)
	proposals := make([]models.RenameProposal, 0, len(req.Files))

	for i := range req.Files {
		if ctx != nil && ctx.Err() != nil {
			return models.RenamePreview{}, ctx.Err()
		}

		file := &req.Files[i]
		meta := req.Metadata[file.Path]

		proposal, err := g.propose(file, meta, req, i+1, parsedCache)
		if err != nil {
			return models.RenamePreview{}, err
		}
		proposals = append(proposals, proposal)
	}

	screened := conflict.DetectAll(proposals, conflict.Options{CaseInsensitiveFS: req.CaseInsensitiveFS})
	proposals = conflict.Annotate(proposals, screened)

	prev.Proposals = proposals
	prev.Summary, prev.ActionSummary = summarize(proposals)

	g.log.WithFields(logrus.Fields{
		"files":     len(req.Files),
		"ready":     prev.Summary.Ready,
		"conflicts": prev.Summary.Conflicts,
	}).Debug("Preview generated")

	return prev, nil
}

// propose builds the pre-screening proposal for one file.
func (g *Generator) propose(file *models.FileInfo, meta *models.FileMetadata, req Request, counter int, parsedCache map[string]*template.Parsed) (models.RenameProposal, error) {
	proposal := models.RenameProposal{
		ID:           uuid.NewString(),
		OriginalPath: file.Path,
		OriginalName: file.FullName,
	}

	tpl, matchedRuleID, issue, err := g.pickTemplate(file, meta, req)
	if err != nil {
		return proposal, err
	}
	if issue != nil {
		proposal.Status = models.StatusMissingData
		proposal.ActionType = models.ActionError
		proposal.Issues = append(proposal.Issues, *issue)
		proposal.ProposedName = file.FullName
		proposal.ProposedPath = file.Path
		return proposal, nil
	}
	proposal.MatchedRuleID = matchedRuleID

	parsed, ok := parsedCache[tpl.ID]
	if !ok {
		parsed, err = template.Parse(tpl.Pattern)
		if err != nil {
			return proposal, fmt.Errorf("template %q: %w", tpl.ID, err)
		}
		parsedCache[tpl.ID] = parsed
	}

	rendered := template.Render(parsed, file, meta, template.RenderOptions{
		DateFormat:            req.DateFormat,
		Counter:               counter,
		StripExistingPatterns: req.StripExistingPatterns,
		CaseStyle:             req.CaseStyle,
	})
	proposal.ProposedName = rendered.Name
	proposal.MetadataSources = rendered.Sources

	targetDir := filepath.Dir(file.Path)
	if req.OrganizeMode && req.FolderPattern != "" {
		root := req.DestinationRoot
		if root == "" {
			root = targetDir
		}
		folder := template.RenderFolderPattern(file, req.FolderPattern)
		if folder != "" {
			targetDir = filepath.Join(root, folder)
			proposal.DestinationFolder = folder
		}
	}
	proposal.ProposedPath = filepath.Join(targetDir, rendered.Name)
	proposal.IsMoveOperation = targetDir != filepath.Dir(file.Path)

	switch {
	case len(rendered.MissingFields) > 0:
		proposal.Status = models.StatusMissingData
		proposal.ActionType = models.ActionError
		for _, f := range rendered.MissingFields {
			proposal.Issues = append(proposal.Issues, models.Issue{
				Code:    CodeMissingData,
				Message: fmt.Sprintf("no value available for placeholder {%s}", f),
				Field:   f,
			})
		}
	case !template.IsValidFilename(rendered.Name):
		proposal.Status = models.StatusInvalidName
		proposal.ActionType = models.ActionError
		proposal.Issues = append(proposal.Issues, models.Issue{
			Code:    CodeInvalidName,
			Message: fmt.Sprintf("rendered name is not a valid filename: %q", rendered.Name),
		})
	case proposal.ProposedPath == file.Path:
		proposal.Status = models.StatusNoChange
		proposal.ActionType = models.ActionNoChange
	case proposal.IsMoveOperation:
		proposal.Status = models.StatusReady
		proposal.ActionType = models.ActionMove
	default:
		proposal.Status = models.StatusReady
		proposal.ActionType = models.ActionRename
	}

	return proposal, nil
}

// pickTemplate returns the template to render for a file: the explicit
// override when set, otherwise the winning rule's template, otherwise the
// category default. A nil template with a non-nil issue means the proposal
// cannot be rendered.
func (g *Generator) pickTemplate(file *models.FileInfo, meta *models.FileMetadata, req Request) (*models.Template, string, *models.Issue, error) {
	if req.TemplateID != "" {
		tpl, err := g.templates.GetTemplate(req.Config.TemplateStore, req.TemplateID)
		if err != nil {
			return nil, "", &models.Issue{
				Code:    CodeTemplateNotFound,
				Message: fmt.Sprintf("template not found: %s", req.TemplateID),
			}, nil
		}
		return &tpl, "", nil, nil
	}

	res, err := g.resolver.Resolve(
		req.Config.MetadataRules,
		req.Config.FilenameRules,
		file,
		meta,
		req.Config.RulePriorityMode,
		&req.Config.TemplateStore,
	)
	if err != nil {
		return nil, "", nil, err
	}

	if res.TemplateID != "" {
		tpl, err := g.templates.GetTemplate(req.Config.TemplateStore, res.TemplateID)
		if err == nil {
			return &tpl, res.MatchedRule.ID(), nil, nil
		}
	}

	// no-match and template-not-found both fall back to the default chain
	if tpl := g.templates.GetDefaultForFileType(req.Config.TemplateStore, file.Category); tpl != nil {
		return tpl, "", nil, nil
	}
	return nil, "", &models.Issue{
		Code:    CodeNoDefaultTemplate,
		Message: "no rule matched and no default template is configured",
	}, nil
}

func summarize(proposals []models.RenameProposal) (models.PreviewSummary, models.ActionSummary) {
	var s models.PreviewSummary
	var a models.ActionSummary
	s.Total = len(proposals)

	for i := range proposals {
		switch proposals[i].Status {
		case models.StatusReady:
			s.Ready++
		case models.StatusConflict:
			s.Conflicts++
		case models.StatusMissingData:
			s.MissingData++
		case models.StatusNoChange:
			s.NoChange++
		case models.StatusInvalidName:
			s.InvalidName++
		}
		switch proposals[i].ActionType {
		case models.ActionRename:
			a.RenameCount++
		case models.ActionMove:
			a.MoveCount++
		case models.ActionNoChange:
			a.NoChangeCount++
		case models.ActionConflict:
			a.ConflictCount++
		case models.ActionError:
			a.ErrorCount++
		}
	}
	return s, a
}
