package template

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renamekit/renamekit/internal/models"
)

func photoFile() *models.FileInfo {
	return &models.FileInfo{
		Path:       "/pics/IMG_4521.jpg",
		Name:       "IMG_4521",
		Extension:  "jpg",
		FullName:   "IMG_4521.jpg",
		Size:       2048,
		ModifiedAt: time.Date(2024, 3, 17, 14, 5, 9, 0, time.UTC),
		Category:   models.CategoryImage,
	}
}

func mustParse(t *testing.T, pattern string) *Parsed {
	t.Helper()
	parsed, err := Parse(pattern)
	require.NoError(t, err)
	return parsed
}

func TestRenderBasicPlaceholders(t *testing.T) {
	res := Render(mustParse(t, "{date}_{name}.{ext}"), photoFile(), nil, RenderOptions{})

	assert.Equal(t, "2024-03-17_IMG_4521.jpg", res.Name)
	assert.Empty(t, res.MissingFields)
	assert.Contains(t, res.Sources, "file-date")
	assert.Contains(t, res.Sources, "filename")
}

func TestRenderDateFormatVariant(t *testing.T) {
	res := Render(mustParse(t, "{date:YYYYMMDD}_{name}.{ext}"), photoFile(), nil, RenderOptions{})
	assert.Equal(t, "20240317_IMG_4521.jpg", res.Name)
}

func TestRenderCounterPadding(t *testing.T) {
	res := Render(mustParse(t, "{name}_{counter}.{ext}"), photoFile(), nil, RenderOptions{Counter: 7})
	assert.Equal(t, "IMG_4521_007.jpg", res.Name)

	// counter below 1 clamps to the first slot
	res = Render(mustParse(t, "{counter}.{ext}"), photoFile(), nil, RenderOptions{})
	assert.Equal(t, "001.jpg", res.Name)
}

func TestRenderMetadataPlaceholders(t *testing.T) {
	meta := &models.FileMetadata{
		Image: &models.ImageMetadata{CameraModel: "X100V"},
	}
	res := Render(mustParse(t, "{camera}_{name}.{ext}"), photoFile(), meta, RenderOptions{})

	assert.Equal(t, "X100V_IMG_4521.jpg", res.Name)
	assert.Contains(t, res.Sources, "EXIF")
}

func TestRenderMissingMetadataReported(t *testing.T) {
	res := Render(mustParse(t, "{camera}_{title}.{ext}"), photoFile(), nil, RenderOptions{})

	assert.Equal(t, []string{"camera", "title"}, res.MissingFields)
}

func TestRenderEnforcesRealExtension(t *testing.T) {
	// pattern hard-codes the wrong extension
	res := Render(mustParse(t, "{name}.png"), photoFile(), nil, RenderOptions{})
	assert.Equal(t, "IMG_4521.jpg", res.Name)

	// pattern omits the extension entirely
	res = Render(mustParse(t, "{name}"), photoFile(), nil, RenderOptions{})
	assert.Equal(t, "IMG_4521.jpg", res.Name)
}

func TestRenderStripExistingPatterns(t *testing.T) {
	file := photoFile()
	file.Name = "2024-03-17_IMG_4521"
	file.FullName = "2024-03-17_IMG_4521.jpg"

	res := Render(mustParse(t, "{date}_{name}.{ext}"), file, nil, RenderOptions{StripExistingPatterns: true})
	assert.Equal(t, "2024-03-17_IMG_4521.jpg", res.Name)
}

func TestRenderAppliesCaseStyle(t *testing.T) {
	res := Render(mustParse(t, "{name}.{ext}"), photoFile(), nil, RenderOptions{CaseStyle: CaseKebab})
	assert.Equal(t, "img-4521.jpg", res.Name)
}

func TestRenderSanitizesOutput(t *testing.T) {
	meta := &models.FileMetadata{
		PDF: &models.PDFMetadata{Title: "Q1: Budget/Plan"},
	}
	file := photoFile()
	file.Extension = "pdf"

	res := Render(mustParse(t, "{title}.{ext}"), file, meta, RenderOptions{})
	assert.Equal(t, "Q1_ Budget_Plan.pdf", res.Name)
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, 3, 17, 14, 5, 9, 0, time.UTC)

	assert.Equal(t, "2024-03-17", FormatDate(ts, "YYYY-MM-DD"))
	assert.Equal(t, "20240317", FormatDate(ts, "YYYYMMDD"))
	assert.Equal(t, "17.03.2024 14:05:09", FormatDate(ts, "DD.MM.YYYY HH:mm:ss"))
}

func TestRenderFolderPattern(t *testing.T) {
	file := photoFile()

	assert.Equal(t, filepath.Join("2024", "03"), RenderFolderPattern(file, "{year}/{month}"))
	assert.Equal(t, "Images", RenderFolderPattern(file, "{category}"))
	assert.Equal(t, filepath.Join("Images", "jpg"), RenderFolderPattern(file, "{category}/{ext}"))

	// separators are normalized and collapsed
	assert.Equal(t, filepath.Join("2024", "03"), RenderFolderPattern(file, `/{year}//{month}/`))
}
