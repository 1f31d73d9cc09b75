package backup

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	kgzip "github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// DetectFormat infers the archive format from the path suffix. The
// encrypted-file marker must be stripped before calling. An unrecognized
// suffix is an UnsupportedFormatError.
func DetectFormat(path string) (ArchiveFormat, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".tar.gz"):
		return FormatTarGz, nil
	case strings.HasSuffix(name, ".tar.bz2"):
		return FormatTarBz2, nil
	case strings.HasSuffix(name, ".tar.zst"):
		return FormatTarZst, nil
	case strings.HasSuffix(name, ".tar.lz4"):
		return FormatTarLz4, nil
	case strings.HasSuffix(name, ".tar"):
		return FormatTar, nil
	case strings.HasSuffix(name, ".zip"):
		return FormatZip, nil
	default:
		return "", NewUnsupportedFormatError(fmt.Sprintf("unrecognized archive suffix: %s", filepath.Base(path)), nil)
	}
}

// Extractor reverses ArchiveBuilder: it writes an archive's entries into a
// destination directory, preserving relative paths.
type Extractor struct{}

// NewExtractor creates a new extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract dispatches on the detected format and unpacks archivePath into
// destination. Returns the number of files written.
func (e *Extractor) Extract(archivePath, destination string) (int, error) {
	format, err := DetectFormat(archivePath)
	if err != nil {
		return 0, err
	}
	if format == FormatZip {
		return e.extractZip(archivePath, destination)
	}
	return e.extractTar(archivePath, destination, format)
}

func (e *Extractor) extractTar(archivePath, destination string, format ArchiveFormat) (int, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return 0, NewExtractionError("failed to open archive", err).
			WithContext("path", archivePath)
	}
	defer file.Close()

	var stream io.Reader = file
	switch format {
	case FormatTarGz:
		gz, err := kgzip.NewReader(file)
		if err != nil {
			return 0, NewExtractionError("failed to open gzip stream", err).
				WithContext("path", archivePath)
		}
		defer gz.Close()
		stream = gz
	case FormatTarBz2:
		stream = bzip2.NewReader(file)
	case FormatTarZst:
		zr, err := zstd.NewReader(file)
		if err != nil {
			return 0, NewExtractionError("failed to open zstd stream", err).
				WithContext("path", archivePath)
		}
		defer zr.Close()
		stream = zr
	case FormatTarLz4:
		stream = lz4.NewReader(file)
	}

	count := 0
	tr := tar.NewReader(stream)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, NewExtractionError("corrupt archive stream", err).
				WithContext("path", archivePath)
		}

		target, err := safeJoin(destination, header.Name)
		if err != nil {
			return count, err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)|0o700); err != nil {
				return count, NewExtractionError("failed to create directory", err).
					WithContext("path", target)
			}
		case tar.TypeReg:
			if err := writeExtractedFile(target, tr, os.FileMode(header.Mode)); err != nil {
				return count, err
			}
			count++
		default:
			// Other entry types are not produced by our builders.
		}
	}
	return count, nil
}

func (e *Extractor) extractZip(archivePath, destination string) (int, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, NewExtractionError("corrupt or unreadable zip archive", err).
			WithContext("path", archivePath)
	}
	defer reader.Close()

	count := 0
	for _, entry := range reader.File {
		target, err := safeJoin(destination, entry.Name)
		if err != nil {
			return count, err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, entry.Mode()|0o700); err != nil {
				return count, NewExtractionError("failed to create directory", err).
					WithContext("path", target)
			}
			continue
		}

		src, err := entry.Open()
		if err != nil {
			return count, NewExtractionError("failed to read zip entry", err).
				WithContext("entry", entry.Name)
		}
		err = writeExtractedFile(target, src, entry.Mode())
		src.Close()
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// safeJoin joins an archive entry name onto the destination and rejects
// entries that would escape it.
func safeJoin(destination, name string) (string, error) {
	target := filepath.Join(destination, filepath.FromSlash(name))
	cleanDest := filepath.Clean(destination)
	if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
		return "", NewExtractionError(fmt.Sprintf("archive entry escapes destination: %s", name), nil)
	}
	return target, nil
}

func writeExtractedFile(target string, src io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return NewExtractionError("failed to create parent directory", err).
			WithContext("path", target)
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return NewExtractionError("failed to create file", err).
			WithContext("path", target)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return NewExtractionError("failed to write file contents", err).
			WithContext("path", target)
	}
	return out.Close()
}
