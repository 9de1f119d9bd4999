package preview

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/store"
)

var testStamp = time.Date(2024, 3, 17, 14, 5, 9, 0, time.UTC)

func photoFile(dir, name string) models.FileInfo {
	base := name[:len(name)-len(filepath.Ext(name))]
	return models.FileInfo{
		Path:              filepath.Join(dir, name),
		Name:              base,
		Extension:         "jpg",
		FullName:          name,
		Category:          models.CategoryImage,
		CreatedAt:         testStamp,
		ModifiedAt:        testStamp,
		MetadataSupported: true,
	}
}

func baseConfig() models.AppConfig {
	return models.AppConfig{
		TemplateStore:    store.DefaultTemplateStore(),
		RulePriorityMode: models.PriorityCombined,
	}
}

func TestGenerateUsesWinningRuleTemplate(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.FilenameRules = []models.FilenameRule{{
		ID:         "rule-photos",
		Name:       "Camera exports",
		Pattern:    "IMG_*.jpg",
		TemplateID: store.BuiltInDateName,
		Priority:   10,
		Enabled:    true,
	}}

	gen := New(nil, nil)
	prev, err := gen.Generate(context.Background(), Request{
		Files:  []models.FileInfo{photoFile(dir, "IMG_4521.jpg")},
		Config: cfg,
	})
	require.NoError(t, err)
	require.Len(t, prev.Proposals, 1)

	p := prev.Proposals[0]
	assert.Equal(t, models.StatusReady, p.Status)
	assert.Equal(t, models.ActionRename, p.ActionType)
	assert.Equal(t, "2024-03-17_IMG_4521.jpg", p.ProposedName)
	assert.Equal(t, filepath.Join(dir, "2024-03-17_IMG_4521.jpg"), p.ProposedPath)
	assert.Equal(t, "rule-photos", p.MatchedRuleID)
	assert.False(t, p.IsMoveOperation)
	assert.Equal(t, 1, prev.Summary.Ready)
	assert.Equal(t, 1, prev.ActionSummary.RenameCount)
}

func TestGenerateFallsBackToDefaultTemplate(t *testing.T) {
	dir := t.TempDir()

	// no rules configured: the global default keeps the original name, which
	// makes the proposal a no-change
	gen := New(nil, nil)
	prev, err := gen.Generate(context.Background(), Request{
		Files:  []models.FileInfo{photoFile(dir, "IMG_4521.jpg")},
		Config: baseConfig(),
	})
	require.NoError(t, err)

	p := prev.Proposals[0]
	assert.Equal(t, models.StatusNoChange, p.Status)
	assert.Equal(t, models.ActionNoChange, p.ActionType)
	assert.Empty(t, p.MatchedRuleID)
	assert.Equal(t, 1, prev.Summary.NoChange)
}

func TestGenerateExplicitTemplateBypassesRules(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.FilenameRules = []models.FilenameRule{{
		ID:         "rule-photos",
		Name:       "Camera exports",
		Pattern:    "IMG_*.jpg",
		TemplateID: store.BuiltInCategoryDate,
		Priority:   10,
		Enabled:    true,
	}}

	gen := New(nil, nil)
	prev, err := gen.Generate(context.Background(), Request{
		Files:      []models.FileInfo{photoFile(dir, "IMG_4521.jpg")},
		Config:     cfg,
		TemplateID: store.BuiltInDateName,
	})
	require.NoError(t, err)

	p := prev.Proposals[0]
	assert.Equal(t, "2024-03-17_IMG_4521.jpg", p.ProposedName)
	assert.Empty(t, p.MatchedRuleID)
	assert.Equal(t, store.BuiltInDateName, prev.TemplateUsed)
}

func TestGenerateUnknownTemplateID(t *testing.T) {
	dir := t.TempDir()

	gen := New(nil, nil)
	prev, err := gen.Generate(context.Background(), Request{
		Files:      []models.FileInfo{photoFile(dir, "IMG_4521.jpg")},
		Config:     baseConfig(),
		TemplateID: "ghost",
	})
	require.NoError(t, err)

	p := prev.Proposals[0]
	assert.Equal(t, models.StatusMissingData, p.Status)
	assert.Equal(t, models.ActionError, p.ActionType)
	require.Len(t, p.Issues, 1)
	assert.Equal(t, CodeTemplateNotFound, p.Issues[0].Code)
	// original name is kept so the proposal stays displayable
	assert.Equal(t, "IMG_4521.jpg", p.ProposedName)
}

func TestGenerateFlagsDuplicateTargets(t *testing.T) {
	dir := t.TempDir()
	mgr := store.NewManager()
	ts, flat, err := mgr.CreateTemplate(store.DefaultTemplateStore(), store.TemplateInput{
		Name:    "Flat photo",
		Pattern: "photo.{ext}",
	})
	require.NoError(t, err)

	cfg := baseConfig()
	cfg.TemplateStore = ts

	gen := New(mgr, nil)
	prev, err := gen.Generate(context.Background(), Request{
		Files: []models.FileInfo{
			photoFile(dir, "DSC_0001.jpg"),
			photoFile(dir, "DSC_0002.jpg"),
		},
		Config:     cfg,
		TemplateID: flat.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, prev.Summary.Conflicts)
	assert.Equal(t, 2, prev.ActionSummary.ConflictCount)
	for _, p := range prev.Proposals {
		assert.Equal(t, models.StatusConflict, p.Status)
		require.NotNil(t, p.Conflict)
		assert.NotEmpty(t, p.Conflict.SuggestedName)
	}
}

func TestGenerateOrganizeMode(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "sorted")

	gen := New(nil, nil)
	prev, err := gen.Generate(context.Background(), Request{
		Files:           []models.FileInfo{photoFile(dir, "IMG_4521.jpg")},
		Config:          baseConfig(),
		TemplateID:      store.BuiltInOriginal,
		OrganizeMode:    true,
		FolderPattern:   "{year}/{month}",
		DestinationRoot: root,
	})
	require.NoError(t, err)

	p := prev.Proposals[0]
	assert.Equal(t, models.StatusReady, p.Status)
	assert.Equal(t, models.ActionMove, p.ActionType)
	assert.True(t, p.IsMoveOperation)
	assert.Equal(t, filepath.Join("2024", "03"), p.DestinationFolder)
	assert.Equal(t, filepath.Join(root, "2024", "03", "IMG_4521.jpg"), p.ProposedPath)
	assert.Equal(t, 1, prev.ActionSummary.MoveCount)
}

func TestGenerateMissingMetadata(t *testing.T) {
	dir := t.TempDir()
	mgr := store.NewManager()
	ts, byCamera, err := mgr.CreateTemplate(store.DefaultTemplateStore(), store.TemplateInput{
		Name:    "By camera",
		Pattern: "{camera}_{name}.{ext}",
	})
	require.NoError(t, err)

	cfg := baseConfig()
	cfg.TemplateStore = ts

	gen := New(mgr, nil)
	prev, err := gen.Generate(context.Background(), Request{
		Files:      []models.FileInfo{photoFile(dir, "IMG_4521.jpg")},
		Config:     cfg,
		TemplateID: byCamera.ID,
	})
	require.NoError(t, err)

	p := prev.Proposals[0]
	assert.Equal(t, models.StatusMissingData, p.Status)
	require.Len(t, p.Issues, 1)
	assert.Equal(t, CodeMissingData, p.Issues[0].Code)
	assert.Equal(t, "camera", p.Issues[0].Field)
	assert.Equal(t, 1, prev.Summary.MissingData)
}

func TestGenerateWithMetadata(t *testing.T) {
	dir := t.TempDir()
	mgr := store.NewManager()
	ts, byCamera, err := mgr.CreateTemplate(store.DefaultTemplateStore(), store.TemplateInput{
		Name:    "By camera",
		Pattern: "{camera}_{name}.{ext}",
	})
	require.NoError(t, err)

	cfg := baseConfig()
	cfg.TemplateStore = ts
	file := photoFile(dir, "IMG_4521.jpg")

	gen := New(mgr, nil)
	prev, err := gen.Generate(context.Background(), Request{
		Files: []models.FileInfo{file},
		Metadata: map[string]*models.FileMetadata{
			file.Path: {Image: &models.ImageMetadata{CameraModel: "X100V"}},
		},
		Config:     cfg,
		TemplateID: byCamera.ID,
	})
	require.NoError(t, err)

	p := prev.Proposals[0]
	assert.Equal(t, models.StatusReady, p.Status)
	assert.Equal(t, "X100V_IMG_4521.jpg", p.ProposedName)
}

func TestGenerateCancellation(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := New(nil, nil)
	_, err := gen.Generate(ctx, Request{
		Files:  []models.FileInfo{photoFile(dir, "IMG_4521.jpg")},
		Config: baseConfig(),
	})
	assert.ErrorIs(t, err, context.Canceled)
}
