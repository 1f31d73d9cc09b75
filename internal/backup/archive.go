package backup

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dsnet/compress/bzip2"
	kgzip "github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ArchiveBuilder produces exactly one artifact from either a whole
// directory tree or an explicit file list. An empty tree or empty list
// still yields a well-formed, empty-content archive.
type ArchiveBuilder interface {
	Format() ArchiveFormat
	// BuildTree archives the whole tree rooted at source into destPath and
	// returns the number of files archived.
	BuildTree(destPath, source string) (int, error)
	// BuildList archives the given absolute paths into destPath, stored
	// with their source-relative paths preserved.
	BuildList(destPath, source string, files ChangeSet) (int, error)
}

// ArchiveRegistry maps codecs to their builder strategies.
type ArchiveRegistry struct {
	builders map[Codec]ArchiveBuilder
}

// NewArchiveRegistry creates a registry with all supported builders.
func NewArchiveRegistry() *ArchiveRegistry {
	return &ArchiveRegistry{
		builders: map[Codec]ArchiveBuilder{
			CodecNone:  &tarBuilder{format: FormatTar},
			CodecGzip:  &tarBuilder{format: FormatTarGz, wrap: wrapGzip},
			CodecBzip2: &tarBuilder{format: FormatTarBz2, wrap: wrapBzip2},
			CodecZstd:  &tarBuilder{format: FormatTarZst, wrap: wrapZstd},
			CodecLZ4:   &tarBuilder{format: FormatTarLz4, wrap: wrapLZ4},
			CodecZip:   &zipBuilder{},
		},
	}
}

// Builder returns the builder for a codec.
func (r *ArchiveRegistry) Builder(codec Codec) (ArchiveBuilder, error) {
	builder, ok := r.builders[codec]
	if !ok {
		return nil, NewConfigurationError(fmt.Sprintf("unsupported compression codec: %s", codec), nil)
	}
	return builder, nil
}

// SupportedCodecs lists the registered codecs.
func (r *ArchiveRegistry) SupportedCodecs() []Codec {
	codecs := make([]Codec, 0, len(r.builders))
	for codec := range r.builders {
		codecs = append(codecs, codec)
	}
	return codecs
}

// Compression wrappers over the tar stream.

func wrapGzip(w io.Writer) (io.WriteCloser, error) {
	return kgzip.NewWriter(w), nil
}

func wrapBzip2(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
}

func wrapZstd(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

func wrapLZ4(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}

// tarBuilder writes a tar container, optionally behind a compression
// writer.
type tarBuilder struct {
	format ArchiveFormat
	wrap   func(io.Writer) (io.WriteCloser, error)
}

func (b *tarBuilder) Format() ArchiveFormat {
	return b.format
}

func (b *tarBuilder) BuildTree(destPath, source string) (int, error) {
	return b.build(destPath, func(tw *tar.Writer) (int, error) {
		return writeTreeToTar(tw, source)
	})
}

func (b *tarBuilder) BuildList(destPath, source string, files ChangeSet) (int, error) {
	return b.build(destPath, func(tw *tar.Writer) (int, error) {
		return writeListToTar(tw, source, files)
	})
}

func (b *tarBuilder) build(destPath string, fill func(*tar.Writer) (int, error)) (count int, err error) {
	out, err := os.Create(destPath)
	if err != nil {
		return 0, NewArchiveError("failed to create archive file", err).
			WithContext("path", destPath)
	}
	defer func() {
		// A partial artifact must never be treated as valid.
		if err != nil {
			out.Close()
			os.Remove(destPath)
		}
	}()

	var stream io.Writer = out
	var compressor io.WriteCloser
	if b.wrap != nil {
		compressor, err = b.wrap(out)
		if err != nil {
			return 0, NewArchiveError("failed to initialize compressor", err).
				WithContext("format", string(b.format))
		}
		stream = compressor
	}

	tw := tar.NewWriter(stream)
	count, err = fill(tw)
	if err != nil {
		return 0, NewArchiveError("failed to write archive entries", err).
			WithContext("path", destPath)
	}

	if err = tw.Close(); err != nil {
		return 0, NewArchiveError("failed to finalize tar stream", err)
	}
	if compressor != nil {
		if err = compressor.Close(); err != nil {
			return 0, NewArchiveError("failed to finalize compressed stream", err)
		}
	}
	if err = out.Close(); err != nil {
		return 0, NewArchiveError("failed to close archive file", err)
	}
	return count, nil
}

func writeTreeToTar(tw *tar.Writer, source string) (int, error) {
	count := 0
	err := filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		switch {
		case entry.IsDir():
			header, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			header.Name = filepath.ToSlash(rel) + "/"
			return tw.WriteHeader(header)
		case entry.Type().IsRegular():
			if err := writeFileToTar(tw, path, rel, info); err != nil {
				return err
			}
			count++
			return nil
		default:
			// Sockets, devices and symlinks are not backed up.
			return nil
		}
	})
	return count, err
}

func writeListToTar(tw *tar.Writer, source string, files ChangeSet) (int, error) {
	count := 0
	for _, path := range files {
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return count, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return count, err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if err := writeFileToTar(tw, path, rel, info); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func writeFileToTar(tw *tar.Writer, path, rel string, info fs.FileInfo) error {
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(rel)

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(tw, file)
	return err
}

// zipBuilder writes a zip container with directory-relative paths
// preserved.
type zipBuilder struct{}

func (b *zipBuilder) Format() ArchiveFormat {
	return FormatZip
}

func (b *zipBuilder) BuildTree(destPath, source string) (int, error) {
	var files ChangeSet
	err := filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return 0, NewArchiveError("failed to read source tree", err).
			WithContext("source", source)
	}
	return b.BuildList(destPath, source, files)
}

func (b *zipBuilder) BuildList(destPath, source string, files ChangeSet) (count int, err error) {
	out, err := os.Create(destPath)
	if err != nil {
		return 0, NewArchiveError("failed to create archive file", err).
			WithContext("path", destPath)
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(destPath)
		}
	}()

	zw := zip.NewWriter(out)
	for _, path := range files {
		rel, relErr := filepath.Rel(source, path)
		if relErr != nil {
			err = NewArchiveError("failed to resolve entry path", relErr).WithContext("path", path)
			return 0, err
		}
		if err = writeFileToZip(zw, path, rel); err != nil {
			err = NewArchiveError("failed to write archive entry", err).WithContext("path", path)
			return 0, err
		}
		count++
	}

	if err = zw.Close(); err != nil {
		return 0, NewArchiveError("failed to finalize zip archive", err)
	}
	if err = out.Close(); err != nil {
		return 0, NewArchiveError("failed to close archive file", err)
	}
	return count, nil
}

func writeFileToZip(zw *zip.Writer, path, rel string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(rel)
	header.Method = zip.Deflate

	entry, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(entry, file)
	return err
}
