package home

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager(filepath.Join(t.TempDir(), ".renamekit"))
	require.NoError(t, err)
	return mgr
}

func TestInitializeCreatesStructure(t *testing.T) {
	mgr := newTestManager(t)
	assert.False(t, mgr.Exists())

	require.NoError(t, mgr.Initialize())

	assert.True(t, mgr.Exists())
	assert.DirExists(t, mgr.JoinPath(LogsDir))
	assert.FileExists(t, mgr.ConfigPath())

	// second initialize is a no-op that keeps the existing config
	require.NoError(t, mgr.Initialize())
}

func TestDefaultHomePathEnvOverride(t *testing.T) {
	t.Setenv("RENAMEKIT_HOME", "/tmp/custom-renamekit")
	assert.Equal(t, "/tmp/custom-renamekit", DefaultHomePath())
}

func TestLoadOrDefaultWithoutConfigFile(t *testing.T) {
	mgr := newTestManager(t)

	cfg, err := mgr.LoadOrDefault()
	require.NoError(t, err)

	assert.Equal(t, models.PriorityCombined, cfg.App.RulePriorityMode)
	assert.Equal(t, store.BuiltInOriginal, cfg.App.TemplateStore.GlobalDefault)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, HistoryFile, cfg.History.Path)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Initialize())

	cfg := DefaultConfig()
	cfg.App.RulePriorityMode = models.PriorityMetadataFirst
	cfg.App.FilenameRules = []models.FilenameRule{{
		ID:         "rule-1",
		Name:       "Camera exports",
		Pattern:    "IMG_*.jpg",
		TemplateID: store.BuiltInDateName,
		Priority:   10,
		Enabled:    true,
	}}
	cfg.Server.Port = 8080
	require.NoError(t, mgr.SaveConfig(cfg))

	loaded, err := mgr.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, models.PriorityMetadataFirst, loaded.App.RulePriorityMode)
	require.Len(t, loaded.App.FilenameRules, 1)
	assert.Equal(t, "IMG_*.jpg", loaded.App.FilenameRules[0].Pattern)
	assert.Equal(t, 8080, loaded.Server.Port)
}

func TestLoadConfigRepairsTemplateStore(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Initialize())

	// hand-edited config missing the built-ins entirely
	broken := []byte("app:\n  templateStore:\n    templates: []\n")
	require.NoError(t, os.WriteFile(mgr.ConfigPath(), broken, 0o644))

	loaded, err := mgr.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, models.PriorityCombined, loaded.App.RulePriorityMode)
	assert.Equal(t, store.BuiltInOriginal, loaded.App.TemplateStore.GlobalDefault)
	assert.Len(t, loaded.App.TemplateStore.Templates, 4)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Initialize())
	require.NoError(t, os.WriteFile(mgr.ConfigPath(), []byte("app: [not a map"), 0o644))

	_, err := mgr.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
