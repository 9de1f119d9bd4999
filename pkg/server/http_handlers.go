package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/engine"
	"github.com/renamekit/renamekit/pkg/history"
	"github.com/renamekit/renamekit/pkg/preview"
	"github.com/renamekit/renamekit/pkg/scan"
	"github.com/renamekit/renamekit/pkg/store"
	"github.com/renamekit/renamekit/pkg/template"
)

func (a *App) registerRoutes(router *gin.Engine) {
	api := router.Group("/api")

	api.POST("/preview", a.handlePreview)
	api.POST("/rename", a.handleRename)
	api.POST("/sanitize", a.handleSanitize)
	api.GET("/fields", a.handleListFields)

	api.GET("/history", a.handleHistoryList)
	api.GET("/history/:id", a.handleHistoryGet)
	api.POST("/history/:id/undo", a.handleUndo)
	api.DELETE("/history", a.handleHistoryClear)

	api.GET("/templates", a.handleTemplatesList)
	api.POST("/templates", a.handleTemplateCreate)
	api.PUT("/templates/:id", a.handleTemplateUpdate)
	api.DELETE("/templates/:id", a.handleTemplateDelete)
	api.POST("/templates/defaults", a.handleTemplateSetDefault)

	api.GET("/rules/metadata", a.handleMetadataRulesList)
	api.POST("/rules/metadata", a.handleMetadataRuleCreate)
	api.PUT("/rules/metadata/:id", a.handleMetadataRuleUpdate)
	api.DELETE("/rules/metadata/:id", a.handleMetadataRuleDelete)
	api.POST("/rules/metadata/reorder", a.handleMetadataRulesReorder)

	api.GET("/rules/filename", a.handleFilenameRulesList)
	api.POST("/rules/filename", a.handleFilenameRuleCreate)
	api.PUT("/rules/filename/:id", a.handleFilenameRuleUpdate)
	api.DELETE("/rules/filename/:id", a.handleFilenameRuleDelete)
	api.POST("/rules/filename/reorder", a.handleFilenameRulesReorder)

	api.POST("/rules/priority-preview", a.handlePriorityPreview)
}

// storeError maps store sentinel errors to HTTP statuses.
func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, history.ErrEntryNotFound):
		jsonError(c, http.StatusNotFound, err)
	case errors.Is(err, store.ErrDuplicateName):
		jsonError(c, http.StatusConflict, err)
	case errors.Is(err, store.ErrBuiltIn):
		jsonError(c, http.StatusForbidden, err)
	case errors.Is(err, history.ErrAlreadyUndone):
		jsonError(c, http.StatusConflict, err)
	default:
		jsonError(c, http.StatusBadRequest, err)
	}
}

type organizeRequest struct {
	Enabled         bool   `json:"enabled"`
	FolderPattern   string `json:"folderPattern"`
	DestinationRoot string `json:"destinationRoot"`
}

type previewRequest struct {
	Paths                 []string                           `json:"paths" binding:"required"`
	Metadata              map[string]*models.FileMetadata    `json:"metadata"`
	TemplateID            string                             `json:"templateId"`
	DateFormat            string                             `json:"dateFormat"`
	CaseStyle             string                             `json:"caseStyle"`
	StripExistingPatterns bool                               `json:"stripExistingPatterns"`
	Organize              organizeRequest                    `json:"organize"`
	CaseInsensitiveFS     bool                               `json:"caseInsensitiveFs"`
}

func (a *App) handlePreview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}

	files, skipped := scan.StatAll(req.Paths)

	a.mu.Lock()
	config := a.config.App
	a.mu.Unlock()

	result, err := a.generator.Generate(c.Request.Context(), preview.Request{
		Files:                 files,
		Metadata:              req.Metadata,
		Config:                config,
		TemplateID:            req.TemplateID,
		DateFormat:            req.DateFormat,
		CaseStyle:             template.CaseStyle(req.CaseStyle),
		StripExistingPatterns: req.StripExistingPatterns,
		OrganizeMode:          req.Organize.Enabled,
		FolderPattern:         req.Organize.FolderPattern,
		DestinationRoot:       req.Organize.DestinationRoot,
		CaseInsensitiveFS:     req.CaseInsensitiveFS,
	})
	if err != nil {
		jsonBadRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"preview": result, "skippedPaths": skipped})
}

type renameRequest struct {
	Proposals      []models.RenameProposal `json:"proposals" binding:"required"`
	ProposalIDs    []string                `json:"proposalIds"`
	SkipValidation bool                    `json:"skipValidation"`
	SkipHistory    bool                    `json:"skipHistory"`
}

func (a *App) handleRename(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}

	result, err := a.engine.Execute(c.Request.Context(), req.Proposals, engine.Options{
		SkipValidation: req.SkipValidation,
		SkipHistory:    req.SkipHistory,
		ProposalIDs:    req.ProposalIDs,
	})
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  verr.Error(),
				"issues": verr.Issues,
			})
			return
		}
		jsonError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (a *App) handleSanitize(c *gin.Context) {
	var req struct {
		Filename string `json:"filename" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, template.Sanitize(req.Filename, '_'))
}

func (a *App) handleListFields(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": models.ValidFieldPaths()})
}

func (a *App) handleHistoryList(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			jsonError(c, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	entries, err := a.history.List(limit)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	count, err := a.history.Count()
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "total": count})
}

func (a *App) handleHistoryGet(c *gin.Context) {
	entry, err := a.history.Get(c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (a *App) handleUndo(c *gin.Context) {
	var req struct {
		DryRun bool `json:"dryRun"`
	}
	// body is optional for a plain undo
	_ = c.ShouldBindJSON(&req)

	result, err := a.engine.Undo(c.Request.Context(), c.Param("id"), engine.UndoOptions{DryRun: req.DryRun})
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *App) handleHistoryClear(c *gin.Context) {
	if err := a.history.Clear(); err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (a *App) handleTemplatesList(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c.JSON(http.StatusOK, a.config.App.TemplateStore)
}

type templateRequest struct {
	Name      string   `json:"name" binding:"required"`
	Pattern   string   `json:"pattern" binding:"required"`
	FileTypes []string `json:"fileTypes"`
}

func (a *App) handleTemplateCreate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next, created, err := a.templates.CreateTemplate(a.config.App.TemplateStore, store.TemplateInput{
		Name: req.Name, Pattern: req.Pattern, FileTypes: req.FileTypes,
	})
	if err != nil {
		storeError(c, err)
		return
	}
	a.config.App.TemplateStore = next
	if err := a.saveConfig(); err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *App) handleTemplateUpdate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next, updated, err := a.templates.UpdateTemplate(a.config.App.TemplateStore, c.Param("id"), store.TemplateInput{
		Name: req.Name, Pattern: req.Pattern, FileTypes: req.FileTypes,
	})
	if err != nil {
		storeError(c, err)
		return
	}
	a.config.App.TemplateStore = next
	if err := a.saveConfig(); err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *App) handleTemplateDelete(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := a.templates.DeleteTemplate(a.config.App.TemplateStore, c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	a.config.App.TemplateStore = next
	if err := a.saveConfig(); err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (a *App) handleTemplateSetDefault(c *gin.Context) {
	var req struct {
		TemplateID string `json:"templateId" binding:"required"`
		// Category empty sets the global default
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var next models.TemplateStore
	var err error
	if req.Category == "" {
		next, err = a.templates.SetGlobalDefault(a.config.App.TemplateStore, req.TemplateID)
	} else {
		next, err = a.templates.SetDefault(a.config.App.TemplateStore, req.Category, req.TemplateID)
	}
	if err != nil {
		storeError(c, err)
		return
	}
	a.config.App.TemplateStore = next
	if err := a.saveConfig(); err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, a.config.App.TemplateStore)
}

func (a *App) handleMetadataRulesList(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"rules": a.config.App.MetadataRules})
}

type metadataRuleRequest struct {
	Name       string             `json:"name" binding:"required"`
	Conditions []models.Condition `json:"conditions" binding:"required"`
	MatchMode  models.MatchMode   `json:"matchMode"`
	TemplateID string             `json:"templateId" binding:"required"`
	Priority   int                `json:"priority"`
	Enabled    bool               `json:"enabled"`
}

func (req metadataRuleRequest) input() store.MetadataRuleInput {
	mode := req.MatchMode
	if mode == "" {
		mode = models.MatchAll
	}
	return store.MetadataRuleInput{
		Name:       req.Name,
		Conditions: req.Conditions,
		MatchMode:  mode,
		TemplateID: req.TemplateID,
		Priority:   req.Priority,
		Enabled:    req.Enabled,
	}
}

func (a *App) handleMetadataRuleCreate(c *gin.Context) {
	var req metadataRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next, created, err := a.templates.CreateMetadataRule(a.config.App.MetadataRules, req.input(), &a.config.App.TemplateStore)
	if err != nil {
		storeError(c, err)
		return
	}
	a.config.App.MetadataRules = next
	if err := a.saveConfig(); err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *App) handleMetadataRuleUpdate(c *gin.Context) {
	var req metadataRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next, updated, err := a.templates.UpdateMetadataRule(a.config.App.MetadataRules, c.Param("id"), req.input(), &a.config.App.TemplateStore)
	if err != nil {
		storeError(c, err)
		return
	}
	a.config.App.MetadataRules = next
	if err := a.saveConfig(); err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *App) handleMetadataRuleDelete(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := a.templates.DeleteMetadataRule(a.config.App.MetadataRules, c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	a.config.App.MetadataRules = next
	if err := a.saveConfig(); err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (a *App) handleMetadataRulesReorder(c *gin.Context) {
	var req struct {
		OrderedIDs []string `json:"orderedIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := a.templates.ReorderMetadataRules(a.config.App.MetadataRules, req.OrderedIDs)
	if err != nil {
		storeError(c, err)
		return
	}
	a.config.App.MetadataRules = next
	if err := a.saveConfig(); err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": next})
}

func (a *App) handleFilenameRulesList(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"rules": a.config.App.FilenameRules})
}

type filenameRuleRequest struct {
	Name          string `json:"name" binding:"required"`
	Pattern       string `json:"pattern" binding:"required"`
	CaseSensitive bool   `json:"caseSensitive"`
	TemplateID    string `json:"templateId" binding:"required"`
	Priority      int    `json:"priority"`
	Enabled       bool   `json:"enabled"`
}

func (req filenameRuleRequest) input() store.FilenameRuleInput {
	return store.FilenameRuleInput{
		Name:          req.Name,
		Pattern:       req.Pattern,
		CaseSensitive: req.CaseSensitive,
		TemplateID:    req.TemplateID,
		Priority:      req.Priority,
		Enabled:       req.Enabled,
	}
}

func (a *App) handleFilenameRuleCreate(c *gin.Context) {
	var req filenameRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next, created, err := a.templates.CreateFilenameRule(a.config.App.FilenameRules, req.input(), &a.config.App.TemplateStore)
	if err != nil {
		storeError(c, err)
		return
	}
	a.config.App.FilenameRules = next
	if err := a.saveConfig(); err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *App) handleFilenameRuleUpdate(c *gin.Context) {
	var req filenameRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next, updated, err := a.templates.UpdateFilenameRule(a.config.App.FilenameRules, c.Param("id"), req.input(), &a.config.App.TemplateStore)
	if err != nil {
		storeError(c, err)
		return
	}
	a.config.App.FilenameRules = next
	if err := a.saveConfig(); err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *App) handleFilenameRuleDelete(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := a.templates.DeleteFilenameRule(a.config.App.FilenameRules, c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	a.config.App.FilenameRules = next
	if err := a.saveConfig(); err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (a *App) handleFilenameRulesReorder(c *gin.Context) {
	var req struct {
		OrderedIDs []string `json:"orderedIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := a.templates.ReorderFilenameRules(a.config.App.FilenameRules, req.OrderedIDs)
	if err != nil {
		storeError(c, err)
		return
	}
	a.config.App.FilenameRules = next
	if err := a.saveConfig(); err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": next})
}

func (a *App) handlePriorityPreview(c *gin.Context) {
	var req struct {
		Path     string               `json:"path" binding:"required"`
		Metadata *models.FileMetadata `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}

	file, err := scan.Stat(req.Path)
	if err != nil {
		jsonBadRequest(c, err)
		return
	}

	a.mu.Lock()
	config := a.config.App
	a.mu.Unlock()

	result, err := a.resolver.PreviewRulePriority(
		config.MetadataRules,
		config.FilenameRules,
		&file,
		req.Metadata,
		config.RulePriorityMode,
	)
	if err != nil {
		jsonBadRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
