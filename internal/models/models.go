// Package models contains the plain, serializable records exchanged between
// the rename core and its callers (CLI, HTTP, MCP). None of these types carry
// behavior beyond trivial accessors; everything is JSON-compatible.
package models

import "time"

// FileCategory classifies a file by its extension.
type FileCategory string

const (
	CategoryImage    FileCategory = "image"
	CategoryDocument FileCategory = "document"
	CategoryVideo    FileCategory = "video"
	CategoryAudio    FileCategory = "audio"
	CategoryArchive  FileCategory = "archive"
	CategoryCode     FileCategory = "code"
	CategoryData     FileCategory = "data"
	CategoryOther    FileCategory = "other"
)

// FileInfo describes one scanned file. It is produced by the scanning
// collaborator and consumed read-only by the core.
type FileInfo struct {
	// Full absolute path to the file
	Path string `json:"path"`
	// Filename without extension
	Name string `json:"name"`
	// File extension without the dot
	Extension string `json:"extension"`
	// Full filename with extension
	FullName string `json:"fullName"`
	// Size in bytes
	Size int64 `json:"size"`
	// Creation timestamp (best effort, falls back to mtime)
	CreatedAt time.Time `json:"createdAt"`
	// Modification timestamp
	ModifiedAt time.Time `json:"modifiedAt"`
	// Path relative to the scan root
	RelativePath string `json:"relativePath"`
	// Category derived from the extension
	Category FileCategory `json:"category"`
	// Whether metadata extraction is supported for this file type
	MetadataSupported bool `json:"metadataSupported"`
}

// ImageMetadata holds the EXIF-derived fields the core can reference.
type ImageMetadata struct {
	CameraMake  string     `json:"cameraMake,omitempty"`
	CameraModel string     `json:"cameraModel,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	DateTaken   *time.Time `json:"dateTaken,omitempty"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
}

// PDFMetadata holds document-info fields extracted from PDFs.
type PDFMetadata struct {
	Title     string     `json:"title,omitempty"`
	Author    string     `json:"author,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	Keywords  string     `json:"keywords,omitempty"`
	PageCount int        `json:"pageCount,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// OfficeMetadata holds fields extracted from office documents.
type OfficeMetadata struct {
	Title     string     `json:"title,omitempty"`
	Author    string     `json:"author,omitempty"`
	Company   string     `json:"company,omitempty"`
	WordCount int        `json:"wordCount,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// FileMetadata is the unified per-file metadata bundle supplied by the
// extraction collaborator. Any namespace may be nil.
type FileMetadata struct {
	Image  *ImageMetadata  `json:"image,omitempty"`
	PDF    *PDFMetadata    `json:"pdf,omitempty"`
	Office *OfficeMetadata `json:"office,omitempty"`
}

// Template is a saved naming pattern.
type Template struct {
	ID        string       `json:"id" validate:"required"`
	Name      string       `json:"name" validate:"required,max=100"`
	Pattern   string       `json:"pattern" validate:"required"`
	FileTypes []string     `json:"fileTypes,omitempty"`
	IsDefault bool         `json:"isDefault"`
	IsBuiltIn bool         `json:"isBuiltIn"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// TemplateStore is the immutable value holding all saved templates plus the
// default assignments. Manager operations return new store values; a store
// held by a caller is never mutated.
type TemplateStore struct {
	Templates []Template `json:"templates"`
	// Defaults maps a file category to the template ID used for it
	Defaults map[string]string `json:"defaults"`
	// GlobalDefault is the template ID used when no category default applies
	GlobalDefault string `json:"globalDefault"`
}

// ConditionOperator enumerates the metadata condition operators.
type ConditionOperator string

const (
	OpEquals     ConditionOperator = "equals"
	OpContains   ConditionOperator = "contains"
	OpStartsWith ConditionOperator = "startsWith"
	OpEndsWith   ConditionOperator = "endsWith"
	OpRegex      ConditionOperator = "regex"
	OpExists     ConditionOperator = "exists"
	OpNotExists  ConditionOperator = "notExists"
)

// Condition is one metadata test inside a MetadataRule.
type Condition struct {
	Field         string            `json:"field" validate:"required"`
	Operator      ConditionOperator `json:"operator" validate:"required"`
	Value         string            `json:"value,omitempty"`
	CaseSensitive bool              `json:"caseSensitive"`
}

// MatchMode controls how a MetadataRule combines its conditions.
type MatchMode string

const (
	MatchAll MatchMode = "all"
	MatchAny MatchMode = "any"
)

// MetadataRule maps a set of metadata conditions to a template.
type MetadataRule struct {
	ID                string      `json:"id" validate:"required"`
	Name              string      `json:"name" validate:"required,max=100"`
	Conditions        []Condition `json:"conditions" validate:"min=1,dive"`
	MatchMode         MatchMode   `json:"matchMode" validate:"oneof=all any"`
	TemplateID        string      `json:"templateId" validate:"required"`
	FolderStructureID string      `json:"folderStructureId,omitempty"`
	Priority          int         `json:"priority" validate:"min=0"`
	Enabled           bool        `json:"enabled"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// FilenameRule maps a glob pattern over the full filename to a template.
type FilenameRule struct {
	ID            string    `json:"id" validate:"required"`
	Name          string    `json:"name" validate:"required,max=100"`
	Pattern       string    `json:"pattern" validate:"required"`
	CaseSensitive bool      `json:"caseSensitive"`
	TemplateID    string    `json:"templateId" validate:"required"`
	Priority      int       `json:"priority" validate:"min=0"`
	Enabled       bool      `json:"enabled"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PriorityMode selects how metadata and filename rules are ordered during
// resolution.
type PriorityMode string

const (
	// PriorityCombined merges both rule types into one priority-sorted list
	PriorityCombined PriorityMode = "combined"
	// PriorityMetadataFirst evaluates all metadata rules before any filename rule
	PriorityMetadataFirst PriorityMode = "metadata-first"
	// PriorityFilenameFirst evaluates all filename rules before any metadata rule
	PriorityFilenameFirst PriorityMode = "filename-first"
)

// RenameStatus is the lifecycle status of a proposal.
type RenameStatus string

const (
	StatusReady       RenameStatus = "ready"
	StatusConflict    RenameStatus = "conflict"
	StatusMissingData RenameStatus = "missing-data"
	StatusNoChange    RenameStatus = "no-change"
	StatusInvalidName RenameStatus = "invalid-name"
)

// ActionType describes what execution will do with a proposal.
type ActionType string

const (
	ActionRename   ActionType = "rename"
	ActionMove     ActionType = "move"
	ActionNoChange ActionType = "no-change"
	ActionConflict ActionType = "conflict"
	ActionError    ActionType = "error"
)

// Issue is one problem found with a proposal.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Conflict carries the detail of a detected collision.
type Conflict struct {
	Type string `json:"type"`
	// Human-readable description
	Message string `json:"message"`
	// ID of the other proposal involved (duplicate-name conflicts)
	ConflictingProposalID string `json:"conflictingProposalId,omitempty"`
	// Path of the existing file (file-exists conflicts)
	ExistingFilePath string `json:"existingFilePath,omitempty"`
	// Suggested alternative name that would avoid the conflict
	SuggestedName string `json:"suggestedName,omitempty"`
}

// RenameProposal is a single file's computed rename/move plan.
type RenameProposal struct {
	ID                string       `json:"id"`
	OriginalPath      string       `json:"originalPath"`
	OriginalName      string       `json:"originalName"`
	ProposedName      string       `json:"proposedName"`
	ProposedPath      string       `json:"proposedPath"`
	Status            RenameStatus `json:"status"`
	Issues            []Issue      `json:"issues"`
	ActionType        ActionType   `json:"actionType"`
	Conflict          *Conflict    `json:"conflict,omitempty"`
	IsMoveOperation   bool         `json:"isMoveOperation"`
	DestinationFolder string       `json:"destinationFolder,omitempty"`
	// Metadata source badges, e.g. "EXIF", "file-date", "filename"
	MetadataSources []string `json:"metadataSources,omitempty"`
	// Rule that produced this proposal, empty when the default template applied
	MatchedRuleID string `json:"matchedRuleId,omitempty"`
}

// PreviewSummary counts proposals by status.
type PreviewSummary struct {
	Total       int `json:"total"`
	Ready       int `json:"ready"`
	Conflicts   int `json:"conflicts"`
	MissingData int `json:"missingData"`
	NoChange    int `json:"noChange"`
	InvalidName int `json:"invalidName"`
}

// ActionSummary counts proposals by action type.
type ActionSummary struct {
	RenameCount   int `json:"renameCount"`
	MoveCount     int `json:"moveCount"`
	NoChangeCount int `json:"noChangeCount"`
	ConflictCount int `json:"conflictCount"`
	ErrorCount    int `json:"errorCount"`
}

// RenamePreview is the full result of preview generation.
type RenamePreview struct {
	Proposals     []RenameProposal `json:"proposals"`
	Summary       PreviewSummary   `json:"summary"`
	ActionSummary ActionSummary    `json:"actionSummary"`
	GeneratedAt   time.Time        `json:"generatedAt"`
	TemplateUsed  string           `json:"templateUsed"`
}

// RenameOutcome is the per-file execution outcome.
type RenameOutcome string

const (
	OutcomeSuccess RenameOutcome = "success"
	OutcomeFailed  RenameOutcome = "failed"
	OutcomeSkipped RenameOutcome = "skipped"
)

// FileRenameResult records what happened to one proposal during execution.
type FileRenameResult struct {
	ProposalID   string        `json:"proposalId"`
	OriginalPath string        `json:"originalPath"`
	OriginalName string        `json:"originalName"`
	NewPath      string        `json:"newPath,omitempty"`
	NewName      string        `json:"newName,omitempty"`
	Outcome      RenameOutcome `json:"outcome"`
	Error        string        `json:"error,omitempty"`
	IsMove       bool          `json:"isMove"`
}

// BatchSummary tallies a batch execution.
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// BatchRenameResult is the immutable outcome of one batch execution.
type BatchRenameResult struct {
	Success            bool               `json:"success"`
	Results            []FileRenameResult `json:"results"`
	Summary            BatchSummary       `json:"summary"`
	DirectoriesCreated []string           `json:"directoriesCreated,omitempty"`
	HistoryEntryID     string             `json:"historyEntryId,omitempty"`
	Aborted            bool               `json:"aborted,omitempty"`
	StartedAt          time.Time          `json:"startedAt"`
	CompletedAt        time.Time          `json:"completedAt"`
	DurationMS         int64              `json:"durationMs"`
}

// OperationType classifies a history entry.
type OperationType string

const (
	OperationRename OperationType = "rename"
	OperationMove   OperationType = "move"
)

// FileHistoryRecord is the per-file before/after record inside a history entry.
type FileHistoryRecord struct {
	OriginalPath    string `json:"originalPath"`
	NewPath         string `json:"newPath,omitempty"`
	IsMoveOperation bool   `json:"isMoveOperation"`
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
}

// OperationSummary tallies a recorded operation.
type OperationSummary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// OperationHistoryEntry is the durable record of one executed batch.
type OperationHistoryEntry struct {
	ID                 string              `json:"id"`
	Timestamp          time.Time           `json:"timestamp"`
	OperationType      OperationType       `json:"operationType"`
	FileCount          int                 `json:"fileCount"`
	Summary            OperationSummary    `json:"summary"`
	DurationMS         int64               `json:"durationMs"`
	Files              []FileHistoryRecord `json:"files"`
	DirectoriesCreated []string            `json:"directoriesCreated,omitempty"`
	Undone             bool                `json:"undone"`
}

// UndoFileResult records the plan or outcome for one file during undo.
type UndoFileResult struct {
	FromPath string        `json:"fromPath"`
	ToPath   string        `json:"toPath"`
	Outcome  RenameOutcome `json:"outcome"`
	Error    string        `json:"error,omitempty"`
}

// UndoResult is the outcome of undoing one history entry.
type UndoResult struct {
	OperationID        string           `json:"operationId"`
	Success            bool             `json:"success"`
	DryRun             bool             `json:"dryRun"`
	FilesRestored      int              `json:"filesRestored"`
	FilesSkipped       int              `json:"filesSkipped"`
	FilesFailed        int              `json:"filesFailed"`
	DirectoriesRemoved []string         `json:"directoriesRemoved,omitempty"`
	Files              []UndoFileResult `json:"files"`
	DurationMS         int64            `json:"durationMs"`
}

// AppConfig is the persisted configuration consumed by the core.
type AppConfig struct {
	TemplateStore    TemplateStore  `json:"templateStore" yaml:"templateStore"`
	MetadataRules    []MetadataRule `json:"metadataRules" yaml:"metadataRules"`
	FilenameRules    []FilenameRule `json:"filenameRules" yaml:"filenameRules"`
	RulePriorityMode PriorityMode   `json:"rulePriorityMode" yaml:"rulePriorityMode"`
}
