package template

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/renamekit/renamekit/internal/models"
)

// RenderOptions controls template rendering.
type RenderOptions struct {
	// DateFormat is the default format for {date}; "YYYY-MM-DD" when empty.
	DateFormat string
	// Counter is the 1-based position of the file in the batch, used by the
	// {counter} placeholder.
	Counter int
	// StripExistingPatterns removes previously applied date/counter fragments
	// from {name} so re-applying a template is idempotent.
	StripExistingPatterns bool
	// CaseStyle normalizes the rendered name.
	CaseStyle CaseStyle
}

// RenderResult is the outcome of applying a template to one file.
type RenderResult struct {
	// Name is the rendered and sanitized filename including extension.
	Name string
	// Sources lists the metadata origins used, e.g. "filename", "file-date",
	// "EXIF", "PDF".
	Sources []string
	// MissingFields lists placeholders that could not be resolved because the
	// file lacks the backing metadata.
	MissingFields []string
}

// Render applies a parsed template to a file and its metadata bundle. The
// returned name always carries the file's extension and has been sanitized
// for cross-platform validity.
func Render(parsed *Parsed, file *models.FileInfo, meta *models.FileMetadata, opts RenderOptions) RenderResult {
	dateFormat := opts.DateFormat
	if dateFormat == "" {
		dateFormat = "YYYY-MM-DD"
	}

	var out strings.Builder
	var res RenderResult
	addSource := func(s string) {
		for _, existing := range res.Sources {
			if existing == s {
				return
			}
		}
		res.Sources = append(res.Sources, s)
	}

	for _, tok := range parsed.Tokens {
		if tok.Kind == TokenLiteral {
			out.WriteString(tok.Text)
			continue
		}
		value, source, ok := resolvePlaceholder(tok.Text, file, meta, opts, dateFormat)
		if !ok {
			res.MissingFields = append(res.MissingFields, tok.Text)
			continue
		}
		out.WriteString(value)
		if source != "" {
			addSource(source)
		}
	}

	name := out.String()
	name = ensureExtension(name, file.Extension)
	name = NormalizeFilename(name, opts.CaseStyle)
	res.Name = Sanitize(name, '_').Sanitized
	return res
}

func resolvePlaceholder(name string, file *models.FileInfo, meta *models.FileMetadata, opts RenderOptions, dateFormat string) (value, source string, ok bool) {
	if strings.HasPrefix(name, "date:") {
		return FormatDate(file.ModifiedAt, name[len("date:"):]), "file-date", true
	}

	switch name {
	case "name", "original":
		base := file.Name
		if opts.StripExistingPatterns {
			base = CleanFilename(base)
		}
		return base, "filename", true
	case "ext":
		return file.Extension, "", true
	case "size":
		return strconv.FormatInt(file.Size, 10), "", true
	case "category":
		return string(file.Category), "", true
	case "counter":
		counter := opts.Counter
		if counter < 1 {
			counter = 1
		}
		return fmt.Sprintf("%03d", counter), "", true
	case "date":
		return FormatDate(file.ModifiedAt, dateFormat), "file-date", true
	case "year":
		return file.ModifiedAt.Format("2006"), "file-date", true
	case "month":
		return file.ModifiedAt.Format("01"), "file-date", true
	case "day":
		return file.ModifiedAt.Format("02"), "file-date", true
	case "time":
		return file.ModifiedAt.Format("150405"), "file-date", true
	case "camera":
		if meta != nil && meta.Image != nil {
			if meta.Image.CameraModel != "" {
				return meta.Image.CameraModel, "EXIF", true
			}
			if meta.Image.CameraMake != "" {
				return meta.Image.CameraMake, "EXIF", true
			}
		}
		return "", "", false
	case "location":
		if meta != nil && meta.Image != nil && meta.Image.Latitude != nil && meta.Image.Longitude != nil {
			return fmt.Sprintf("%.4f_%.4f", *meta.Image.Latitude, *meta.Image.Longitude), "EXIF", true
		}
		return "", "", false
	case "title":
		if meta != nil && meta.PDF != nil && meta.PDF.Title != "" {
			return meta.PDF.Title, "PDF", true
		}
		if meta != nil && meta.Office != nil && meta.Office.Title != "" {
			return meta.Office.Title, "Office", true
		}
		return "", "", false
	case "author":
		if meta != nil && meta.PDF != nil && meta.PDF.Author != "" {
			return meta.PDF.Author, "PDF", true
		}
		if meta != nil && meta.Office != nil && meta.Office.Author != "" {
			return meta.Office.Author, "Office", true
		}
		return "", "", false
	case "pages":
		if meta != nil && meta.PDF != nil && meta.PDF.PageCount > 0 {
			return strconv.Itoa(meta.PDF.PageCount), "PDF", true
		}
		return "", "", false
	}
	// Outside the fixed vocabulary
	return "", "", false
}

// ensureExtension guarantees the rendered name ends with the file's real
// extension, replacing a wrong one if the pattern hard-coded it.
func ensureExtension(name, ext string) string {
	if ext == "" {
		return name
	}
	suffix := "." + ext
	if strings.HasSuffix(name, suffix) {
		return name
	}
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[:idx] + suffix
	}
	return name + suffix
}

// FormatDate renders a time using the common token syntax (YYYY, MM, DD, HH,
// mm, ss) seen in user-facing date formats.
func FormatDate(t time.Time, format string) string {
	layout := strings.NewReplacer(
		"YYYY", "2006",
		"MM", "01",
		"DD", "02",
		"HH", "15",
		"mm", "04",
		"ss", "05",
	).Replace(format)
	return t.Format(layout)
}

// RenderFolderPattern expands a folder structure pattern ({year}/{month},
// {category}, {ext}) into a relative directory path with normalized
// separators.
func RenderFolderPattern(file *models.FileInfo, pattern string) string {
	categoryNames := map[models.FileCategory]string{
		models.CategoryImage:    "Images",
		models.CategoryDocument: "Documents",
		models.CategoryVideo:    "Videos",
		models.CategoryAudio:    "Audio",
		models.CategoryArchive:  "Archives",
		models.CategoryCode:     "Code",
		models.CategoryData:     "Data",
		models.CategoryOther:    "Other",
	}

	result := strings.NewReplacer(
		"{year}", file.ModifiedAt.Format("2006"),
		"{month}", file.ModifiedAt.Format("01"),
		"{day}", file.ModifiedAt.Format("02"),
		"{category}", categoryNames[file.Category],
		"{extension}", file.Extension,
		"{ext}", file.Extension,
	).Replace(pattern)

	result = strings.ReplaceAll(result, "\\", "/")
	result = strings.Trim(result, "/")
	for strings.Contains(result, "//") {
		result = strings.ReplaceAll(result, "//", "/")
	}
	return filepath.FromSlash(result)
}
