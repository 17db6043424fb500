// Package archive packs problem data and solutions into zip files and
// unpacks downloaded ones.
package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"code.cloudfoundry.org/archiver/extractor"
	"github.com/klauspost/compress/zip"
)

// Info describes a written archive.
type Info struct {
	Path   string
	Size   int64
	SHA256 string
}

// Builder adds entries to a zip stream.
type Builder struct {
	zw *zip.Writer
}

func NewBuilder(w io.Writer) *Builder {
	return &Builder{zw: zip.NewWriter(w)}
}

// AddBytes stores data under name.
func (b *Builder) AddBytes(name string, data []byte) error {
	entry, err := entryName(name)
	if err != nil {
		return err
	}
	w, err := b.zw.CreateHeader(&zip.FileHeader{Name: entry, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("create zip entry %s failed: %w", entry, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write zip entry %s failed: %w", entry, err)
	}
	return nil
}

// AddFile stores the file at src under name.
func (b *Builder) AddFile(name, src string) error {
	entry, err := entryName(name)
	if err != nil {
		return err
	}
	file, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s failed: %w", src, err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s failed: %w", src, err)
	}
	if stat.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}
	header, err := zip.FileInfoHeader(stat)
	if err != nil {
		return fmt.Errorf("build zip header for %s failed: %w", src, err)
	}
	header.Name = entry
	header.Method = zip.Deflate

	w, err := b.zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create zip entry %s failed: %w", entry, err)
	}
	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("write zip entry %s failed: %w", entry, err)
	}
	return nil
}

// AddDir stores every regular file below dir, named relative to dir and
// placed under prefix. An empty prefix puts the contents at the archive root.
func (b *Builder) AddDir(prefix, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := path.Join(prefix, filepath.ToSlash(rel))
		if d.IsDir() {
			_, err := b.zw.Create(strings.TrimPrefix(name, "/") + "/")
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return b.AddFile(name, p)
	})
}

func (b *Builder) Close() error {
	if err := b.zw.Close(); err != nil {
		return fmt.Errorf("finish zip failed: %w", err)
	}
	return nil
}

// Create writes a new archive at dst, filled by fill, and returns its size
// and sha256. A partially written archive is removed on failure.
func Create(dst string, fill func(b *Builder) error) (Info, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Info{}, fmt.Errorf("create archive dir failed: %w", err)
	}
	file, err := os.Create(dst)
	if err != nil {
		return Info{}, fmt.Errorf("create archive failed: %w", err)
	}

	b := NewBuilder(file)
	err = fill(b)
	if err == nil {
		err = b.Close()
	}
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close archive failed: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(dst)
		return Info{}, err
	}

	hash, size, err := HashFile(dst)
	if err != nil {
		return Info{}, err
	}
	return Info{Path: dst, Size: size, SHA256: hash}, nil
}

// HashFile returns the hex sha256 and size of a file.
func HashFile(p string) (string, int64, error) {
	file, err := os.Open(p)
	if err != nil {
		return "", 0, fmt.Errorf("open %s failed: %w", p, err)
	}
	defer func() { _ = file.Close() }()

	h := sha256.New()
	size, err := io.Copy(h, file)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s failed: %w", p, err)
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}

// Extract unpacks the zip at src into dest.
func Extract(src, dest string) error {
	if err := extractor.NewZip().Extract(src, dest); err != nil {
		return fmt.Errorf("extract %s failed: %w", src, err)
	}
	return nil
}

// entryName normalises a zip entry name and rejects names escaping the root.
func entryName(name string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "." || clean == "" || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid archive entry name %q", name)
	}
	return clean, nil
}
