// Package romfile resolves a configured ROM path into something an
// emulator can open. Archived ROMs (ZIP, 7z, gzip, tar.gz, RAR) are
// detected by magic bytes and unpacked to a temporary file; raw ROMs
// pass through untouched.
package romfile

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

// GBA ROMs top out at 32MB.
const maxSize = 32 * 1024 * 1024

// romExtensions are the cartridge image suffixes recognized inside
// archives.
var romExtensions = []string{".gba", ".agb", ".srl", ".bin"}

var (
	// ErrNoROM reports an archive with no recognizable cartridge image.
	ErrNoROM = errors.New("romfile: no ROM found in archive")

	// ErrTooLarge reports content past the cartridge size limit.
	ErrTooLarge = errors.New("romfile: ROM exceeds size limit")
)

var (
	magicZIP      = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEmpty = []byte{0x50, 0x4B, 0x05, 0x06}
	magic7z       = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip     = []byte{0x1F, 0x8B}
	magicRAR      = []byte{0x52, 0x61, 0x72, 0x21}
)

// Resolve returns a filesystem path holding the raw ROM for path. A
// raw ROM resolves to itself with a no-op cleanup. An archive is
// unpacked to a temporary file named after the entry inside it; the
// caller runs cleanup once the emulator no longer needs the file.
func Resolve(path string) (string, func(), error) {
	if !isArchive(path) {
		return path, func() {}, nil
	}

	data, name, err := Extract(path)
	if err != nil {
		return "", nil, err
	}

	dir, err := os.MkdirTemp("", "emubridge-rom-")
	if err != nil {
		return "", nil, fmt.Errorf("romfile: temp dir: %w", err)
	}
	out := filepath.Join(dir, name)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		os.RemoveAll(dir)
		return "", nil, fmt.Errorf("romfile: write %s: %w", out, err)
	}
	return out, func() { os.RemoveAll(dir) }, nil
}

// Extract reads the cartridge image out of an archive or raw file.
// It returns the image bytes and the basename the image carried.
func Extract(path string) ([]byte, string, error) {
	header, err := readHeader(path)
	if err != nil {
		return nil, "", err
	}

	switch {
	case bytes.HasPrefix(header, magicZIP) || bytes.HasPrefix(header, magicZIPEmpty):
		return extractZIP(path)
	case bytes.HasPrefix(header, magicRAR):
		return extractRAR(path)
	case bytes.HasPrefix(header, magic7z):
		return extract7z(path)
	case bytes.HasPrefix(header, magicGzip):
		return extractGzip(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("romfile: open %s: %w", path, err)
	}
	data, err := readCapped(f)
	if err != nil {
		return nil, "", err
	}
	return data, filepath.Base(path), nil
}

// isArchive reports whether path looks like an archive, by magic
// bytes when the file is readable, by extension otherwise.
func isArchive(path string) bool {
	if header, err := readHeader(path); err == nil {
		for _, magic := range [][]byte{magicZIP, magicZIPEmpty, magicRAR, magic7z, magicGzip} {
			if bytes.HasPrefix(header, magic) {
				return true
			}
		}
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".7z", ".gz", ".tgz", ".rar":
		return true
	}
	return false
}

func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("romfile: open %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, 8)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("romfile: read %s: %w", path, err)
	}
	return header[:n], nil
}

func extractZIP(path string) ([]byte, string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("romfile: open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isROMName(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("romfile: open %s in zip: %w", f.Name, err)
		}
		data, err := readCapped(rc)
		rc.Close()
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(f.Name), nil
	}
	return nil, "", ErrNoROM
}

func extract7z(path string) ([]byte, string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("romfile: open 7z: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isROMName(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("romfile: open %s in 7z: %w", f.Name, err)
		}
		data, err := readCapped(rc)
		rc.Close()
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(f.Name), nil
	}
	return nil, "", ErrNoROM
}

func extractRAR(path string) ([]byte, string, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("romfile: open rar: %w", err)
	}
	defer r.Close()

	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil, "", ErrNoROM
		}
		if err != nil {
			return nil, "", fmt.Errorf("romfile: read rar entry: %w", err)
		}
		if header.IsDir || !isROMName(header.Name) {
			continue
		}
		data, err := readCapped(io.NopCloser(r))
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(header.Name), nil
	}
}

func extractGzip(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("romfile: open gzip: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, "", fmt.Errorf("romfile: read gzip: %w", err)
	}
	defer gr.Close()

	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") {
		return extractTar(gr)
	}

	data, err := readCapped(io.NopCloser(gr))
	if err != nil {
		return nil, "", err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return data, name, nil
}

func extractTar(r io.Reader) ([]byte, string, error) {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil, "", ErrNoROM
		}
		if err != nil {
			return nil, "", fmt.Errorf("romfile: read tar entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg || !isROMName(header.Name) {
			continue
		}
		data, err := readCapped(io.NopCloser(tr))
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(header.Name), nil
	}
}

func isROMName(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range romExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func readCapped(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("romfile: read: %w", err)
	}
	if len(data) > maxSize {
		return nil, ErrTooLarge
	}
	return data, nil
}
