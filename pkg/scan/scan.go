// Package scan builds FileInfo records from paths on disk.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/logger"
	"github.com/renamekit/renamekit/pkg/pathutil"
)

var categoryByExtension = map[string]models.FileCategory{
	"jpg": models.CategoryImage, "jpeg": models.CategoryImage, "png": models.CategoryImage,
	"gif": models.CategoryImage, "bmp": models.CategoryImage, "webp": models.CategoryImage,
	"tiff": models.CategoryImage, "tif": models.CategoryImage, "heic": models.CategoryImage,
	"raw": models.CategoryImage, "svg": models.CategoryImage,

	"pdf": models.CategoryDocument, "doc": models.CategoryDocument, "docx": models.CategoryDocument,
	"xls": models.CategoryDocument, "xlsx": models.CategoryDocument, "ppt": models.CategoryDocument,
	"pptx": models.CategoryDocument, "odt": models.CategoryDocument, "txt": models.CategoryDocument,
	"md": models.CategoryDocument, "rtf": models.CategoryDocument,

	"mp4": models.CategoryVideo, "mov": models.CategoryVideo, "avi": models.CategoryVideo,
	"mkv": models.CategoryVideo, "webm": models.CategoryVideo, "wmv": models.CategoryVideo,

	"mp3": models.CategoryAudio, "wav": models.CategoryAudio, "flac": models.CategoryAudio,
	"aac": models.CategoryAudio, "ogg": models.CategoryAudio, "m4a": models.CategoryAudio,

	"zip": models.CategoryArchive, "tar": models.CategoryArchive, "gz": models.CategoryArchive,
	"rar": models.CategoryArchive, "7z": models.CategoryArchive, "bz2": models.CategoryArchive,

	"go": models.CategoryCode, "rs": models.CategoryCode, "py": models.CategoryCode,
	"js": models.CategoryCode, "ts": models.CategoryCode, "c": models.CategoryCode,
	"cpp": models.CategoryCode, "h": models.CategoryCode, "java": models.CategoryCode,
	"sh": models.CategoryCode, "rb": models.CategoryCode,

	"json": models.CategoryData, "yaml": models.CategoryData, "yml": models.CategoryData,
	"xml": models.CategoryData, "csv": models.CategoryData, "toml": models.CategoryData,
	"sql": models.CategoryData,
}

// extensions whose formats carry extractable metadata
var metadataExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "tiff": true, "tif": true, "heic": true,
	"pdf":  true,
	"docx": true, "xlsx": true, "pptx": true,
}

// Categorize maps an extension (without dot, any case) to its category.
func Categorize(ext string) models.FileCategory {
	if c, ok := categoryByExtension[strings.ToLower(ext)]; ok {
		return c
	}
	return models.CategoryOther
}

// SupportsMetadata reports whether metadata extraction is implemented for
// the extension.
func SupportsMetadata(ext string) bool {
	return metadataExtensions[strings.ToLower(ext)]
}

// Stat builds a FileInfo for one path. Directories are rejected: previews
// operate on files only.
func Stat(path string) (models.FileInfo, error) {
	expanded, err := pathutil.ExpandAndValidatePath(path)
	if err != nil {
		return models.FileInfo{}, err
	}

	fi, err := os.Stat(expanded)
	if err != nil {
		return models.FileInfo{}, err
	}
	if fi.IsDir() {
		return models.FileInfo{}, fmt.Errorf("path is a directory: %s", expanded)
	}

	full := filepath.Base(expanded)
	name, ext := pathutil.SplitFilename(full)
	ext = strings.TrimPrefix(ext, ".")

	return models.FileInfo{
		Path:              expanded,
		Name:              name,
		Extension:         ext,
		FullName:          full,
		Size:              fi.Size(),
		CreatedAt:         fi.ModTime(),
		ModifiedAt:        fi.ModTime(),
		Category:          Categorize(ext),
		MetadataSupported: SupportsMetadata(ext),
	}, nil
}

// StatAll builds FileInfo records for every path, in input order. Paths that
// cannot be read are collected into skipped rather than failing the batch.
func StatAll(paths []string) (files []models.FileInfo, skipped []string) {
	log := logger.WithName("scan")
	for _, p := range paths {
		info, err := Stat(p)
		if err != nil {
			log.WithError(err).WithField("path", p).Warn("Skipping unreadable path")
			skipped = append(skipped, p)
			continue
		}
		files = append(files, info)
	}
	return files, skipped
}

// ListDir enumerates the regular files directly under dir, sorted by name.
// Hidden files are excluded unless includeHidden is set.
func ListDir(dir string, includeHidden bool) ([]models.FileInfo, error) {
	expanded, err := pathutil.ExpandAndValidatePath(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(expanded)
	if err != nil {
		return nil, err
	}

	var files []models.FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !includeHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := Stat(filepath.Join(expanded, entry.Name()))
		if err != nil {
			continue
		}
		info.RelativePath = entry.Name()
		files = append(files, info)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].FullName < files[j].FullName })
	return files, nil
}
