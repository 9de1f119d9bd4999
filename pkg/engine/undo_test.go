package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/history"
)

// executeBatch runs a successful rename and returns its history entry ID.
func executeBatch(t *testing.T, eng *Engine, proposals []models.RenameProposal) string {
	t.Helper()
	result, err := eng.Execute(context.Background(), proposals, Options{})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotEmpty(t, result.HistoryEntryID)
	return result.HistoryEntryID
}

func TestUndoRestoresOriginalPaths(t *testing.T) {
	eng := newTestEngine(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"))
	writeFile(t, filepath.Join(dir, "b.jpg"))

	entryID := executeBatch(t, eng, []models.RenameProposal{
		renameProposal("p1", dir, "a.jpg", "a2.jpg"),
		renameProposal("p2", dir, "b.jpg", "b2.jpg"),
	})

	result, err := eng.Undo(context.Background(), entryID, UndoOptions{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.FilesRestored)
	assert.FileExists(t, filepath.Join(dir, "a.jpg"))
	assert.FileExists(t, filepath.Join(dir, "b.jpg"))
	assert.NoFileExists(t, filepath.Join(dir, "a2.jpg"))

	entry, err := eng.history.Get(entryID)
	require.NoError(t, err)
	assert.True(t, entry.Undone)
}

func TestUndoDryRunTouchesNothing(t *testing.T) {
	eng := newTestEngine(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"))

	entryID := executeBatch(t, eng, []models.RenameProposal{
		renameProposal("p1", dir, "a.jpg", "a2.jpg"),
	})

	result, err := eng.Undo(context.Background(), entryID, UndoOptions{DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 0, result.FilesRestored)
	assert.Equal(t, 1, result.FilesSkipped)
	require.Len(t, result.Files, 1)
	assert.Equal(t, filepath.Join(dir, "a2.jpg"), result.Files[0].FromPath)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), result.Files[0].ToPath)

	// file stays where the original operation put it, undo remains possible
	assert.FileExists(t, filepath.Join(dir, "a2.jpg"))
	ok, err := eng.CanUndo(entryID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUndoTwiceReturnsAlreadyUndone(t *testing.T) {
	eng := newTestEngine(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"))

	entryID := executeBatch(t, eng, []models.RenameProposal{
		renameProposal("p1", dir, "a.jpg", "a2.jpg"),
	})

	_, err := eng.Undo(context.Background(), entryID, UndoOptions{})
	require.NoError(t, err)

	_, err = eng.Undo(context.Background(), entryID, UndoOptions{})
	assert.ErrorIs(t, err, history.ErrAlreadyUndone)

	ok, err := eng.CanUndo(entryID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUndoFailsWhenFileMoved(t *testing.T) {
	eng := newTestEngine(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"))
	writeFile(t, filepath.Join(dir, "b.jpg"))

	entryID := executeBatch(t, eng, []models.RenameProposal{
		renameProposal("p1", dir, "a.jpg", "a2.jpg"),
		renameProposal("p2", dir, "b.jpg", "b2.jpg"),
	})

	// someone moved one renamed file out from under us
	require.NoError(t, os.Remove(filepath.Join(dir, "a2.jpg")))

	result, err := eng.Undo(context.Background(), entryID, UndoOptions{})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.FilesFailed)
	assert.Equal(t, 1, result.FilesRestored)
	assert.Contains(t, result.Files[0].Error, "no longer at expected path")
	assert.FileExists(t, filepath.Join(dir, "b.jpg"))

	// partial restore still flips the undone flag
	entry, err := eng.history.Get(entryID)
	require.NoError(t, err)
	assert.True(t, entry.Undone)
}

func TestUndoSkipsFilesWhoseOperationFailed(t *testing.T) {
	eng := newTestEngine(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.jpg"))

	result, err := eng.Execute(context.Background(), []models.RenameProposal{
		renameProposal("p1", dir, "missing.jpg", "x.jpg"),
		renameProposal("p2", dir, "b.jpg", "b2.jpg"),
	}, Options{SkipValidation: true})
	require.NoError(t, err)
	require.NotEmpty(t, result.HistoryEntryID)

	undo, err := eng.Undo(context.Background(), result.HistoryEntryID, UndoOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, undo.FilesRestored)
	assert.Equal(t, 1, undo.FilesSkipped)
	assert.Equal(t, "Original operation did not succeed", undo.Files[0].Error)
	assert.FileExists(t, filepath.Join(dir, "b.jpg"))
}

func TestUndoRemovesCreatedDirectoriesWhenEmpty(t *testing.T) {
	eng := newTestEngine(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"))

	target := filepath.Join(dir, "2024", "03", "a.jpg")
	result, err := eng.Execute(context.Background(), []models.RenameProposal{
		moveProposal("p1", filepath.Join(dir, "a.jpg"), target),
	}, Options{})
	require.NoError(t, err)
	require.True(t, result.Success)

	undo, err := eng.Undo(context.Background(), result.HistoryEntryID, UndoOptions{})
	require.NoError(t, err)

	assert.True(t, undo.Success)
	assert.FileExists(t, filepath.Join(dir, "a.jpg"))
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "2024", "03"),
		filepath.Join(dir, "2024"),
	}, undo.DirectoriesRemoved)
	assert.NoDirExists(t, filepath.Join(dir, "2024"))
}

func TestUndoKeepsNonEmptyCreatedDirectories(t *testing.T) {
	eng := newTestEngine(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"))

	target := filepath.Join(dir, "2024", "a.jpg")
	result, err := eng.Execute(context.Background(), []models.RenameProposal{
		moveProposal("p1", filepath.Join(dir, "a.jpg"), target),
	}, Options{})
	require.NoError(t, err)

	// an unrelated file appeared in the created directory
	writeFile(t, filepath.Join(dir, "2024", "keepme.txt"))

	undo, err := eng.Undo(context.Background(), result.HistoryEntryID, UndoOptions{})
	require.NoError(t, err)

	assert.True(t, undo.Success)
	assert.Empty(t, undo.DirectoriesRemoved)
	assert.DirExists(t, filepath.Join(dir, "2024"))
}

func TestCanUndoRequiresRestorableFile(t *testing.T) {
	eng := newTestEngine(t)
	dir := t.TempDir()

	// every file in the batch failed, there is nothing to restore
	result, err := eng.Execute(context.Background(), []models.RenameProposal{
		renameProposal("p1", dir, "missing.jpg", "x.jpg"),
	}, Options{SkipValidation: true})
	require.NoError(t, err)

	ok, err := eng.CanUndo(result.HistoryEntryID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUndoMissingEntry(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Undo(context.Background(), "ghost", UndoOptions{})
	assert.ErrorIs(t, err, history.ErrEntryNotFound)
}
