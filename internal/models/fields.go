package models

import (
	"sort"
	"strconv"
	"time"
)

// FieldPath is one entry of the closed set of dotted metadata paths a rule
// condition may reference. Paths outside this set are rejected at rule
// creation time; there is no runtime reflection over the metadata bundle.
type FieldPath string

const (
	FieldImageCameraMake  FieldPath = "image.camera.make"
	FieldImageCameraModel FieldPath = "image.camera.model"
	FieldImageGPSLat      FieldPath = "image.gps.latitude"
	FieldImageGPSLon      FieldPath = "image.gps.longitude"
	FieldImageDateTaken   FieldPath = "image.dateTaken"
	FieldImageWidth       FieldPath = "image.width"
	FieldImageHeight      FieldPath = "image.height"

	FieldPDFTitle     FieldPath = "pdf.title"
	FieldPDFAuthor    FieldPath = "pdf.author"
	FieldPDFSubject   FieldPath = "pdf.subject"
	FieldPDFKeywords  FieldPath = "pdf.keywords"
	FieldPDFPageCount FieldPath = "pdf.pageCount"

	FieldOfficeTitle     FieldPath = "office.title"
	FieldOfficeAuthor    FieldPath = "office.author"
	FieldOfficeCompany   FieldPath = "office.company"
	FieldOfficeWordCount FieldPath = "office.wordCount"

	FieldFileName      FieldPath = "file.name"
	FieldFileExtension FieldPath = "file.extension"
	FieldFileCategory  FieldPath = "file.category"
	FieldFileSize      FieldPath = "file.size"
)

// fieldResolvers maps every valid path to its extraction function. A resolver
// returns the field's string form and whether the field is present for this
// file. Resolvers never error: absence is an ordinary outcome.
var fieldResolvers = map[FieldPath]func(*FileInfo, *FileMetadata) (string, bool){
	FieldImageCameraMake: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.Image == nil || m.Image.CameraMake == "" {
			return "", false
		}
		return m.Image.CameraMake, true
	},
	FieldImageCameraModel: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.Image == nil || m.Image.CameraModel == "" {
			return "", false
		}
		return m.Image.CameraModel, true
	},
	FieldImageGPSLat: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.Image == nil || m.Image.Latitude == nil {
			return "", false
		}
		return strconv.FormatFloat(*m.Image.Latitude, 'f', -1, 64), true
	},
	FieldImageGPSLon: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.Image == nil || m.Image.Longitude == nil {
			return "", false
		}
		return strconv.FormatFloat(*m.Image.Longitude, 'f', -1, 64), true
	},
	FieldImageDateTaken: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.Image == nil || m.Image.DateTaken == nil {
			return "", false
		}
		return m.Image.DateTaken.UTC().Format(time.RFC3339), true
	},
	FieldImageWidth: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.Image == nil || m.Image.Width == 0 {
			return "", false
		}
		return strconv.Itoa(m.Image.Width), true
	},
	FieldImageHeight: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.Image == nil || m.Image.Height == 0 {
			return "", false
		}
		return strconv.Itoa(m.Image.Height), true
	},
	FieldPDFTitle: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.PDF == nil || m.PDF.Title == "" {
			return "", false
		}
		return m.PDF.Title, true
	},
	FieldPDFAuthor: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.PDF == nil || m.PDF.Author == "" {
			return "", false
		}
		return m.PDF.Author, true
	},
	FieldPDFSubject: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.PDF == nil || m.PDF.Subject == "" {
			return "", false
		}
		return m.PDF.Subject, true
	},
	FieldPDFKeywords: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.PDF == nil || m.PDF.Keywords == "" {
			return "", false
		}
		return m.PDF.Keywords, true
	},
	FieldPDFPageCount: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.PDF == nil || m.PDF.PageCount == 0 {
			return "", false
		}
		return strconv.Itoa(m.PDF.PageCount), true
	},
	FieldOfficeTitle: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.Office == nil || m.Office.Title == "" {
			return "", false
		}
		return m.Office.Title, true
	},
	FieldOfficeAuthor: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.Office == nil || m.Office.Author == "" {
			return "", false
		}
		return m.Office.Author, true
	},
	FieldOfficeCompany: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.Office == nil || m.Office.Company == "" {
			return "", false
		}
		return m.Office.Company, true
	},
	FieldOfficeWordCount: func(_ *FileInfo, m *FileMetadata) (string, bool) {
		if m == nil || m.Office == nil || m.Office.WordCount == 0 {
			return "", false
		}
		return strconv.Itoa(m.Office.WordCount), true
	},
	FieldFileName: func(f *FileInfo, _ *FileMetadata) (string, bool) {
		if f == nil {
			return "", false
		}
		return f.Name, true
	},
	FieldFileExtension: func(f *FileInfo, _ *FileMetadata) (string, bool) {
		if f == nil {
			return "", false
		}
		return f.Extension, true
	},
	FieldFileCategory: func(f *FileInfo, _ *FileMetadata) (string, bool) {
		if f == nil {
			return "", false
		}
		return string(f.Category), true
	},
	FieldFileSize: func(f *FileInfo, _ *FileMetadata) (string, bool) {
		if f == nil {
			return "", false
		}
		return strconv.FormatInt(f.Size, 10), true
	},
}

// IsValidFieldPath reports whether a dotted path is part of the closed set.
func IsValidFieldPath(path string) bool {
	_, ok := fieldResolvers[FieldPath(path)]
	return ok
}

// ValidFieldPaths returns the sorted list of all accepted field paths.
func ValidFieldPaths() []string {
	paths := make([]string, 0, len(fieldResolvers))
	for p := range fieldResolvers {
		paths = append(paths, string(p))
	}
	sort.Strings(paths)
	return paths
}

// ResolveField returns the string value of a field for a file, and whether
// the field is present. Unknown paths resolve to absent.
func ResolveField(path string, file *FileInfo, meta *FileMetadata) (string, bool) {
	resolver, ok := fieldResolvers[FieldPath(path)]
	if !ok {
		return "", false
	}
	return resolver(file, meta)
}
