package finder

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
)

const defaultArchiveDepth = 3

// isArchive reports whether name looks like a zip archive.
func isArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(name), constants.ZipExtension)
}

// uniquePath returns path, or path with the first free "-N" suffix.
func uniquePath(path string) string {
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return path
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", path, i)
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// safeJoin resolves an archive member below dest and rejects members that
// would escape it.
func safeJoin(dest, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("absolute member path %q", name)
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("member %q escapes the extraction directory", name)
	}
	return target, nil
}

// extractZip unpacks archive into dest, which must not exist yet.
func extractZip(ctx context.Context, archive, dest string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return errors.WrapIO("extract", archive, err)
	}
	defer func() { _ = zr.Close() }()

	if err := os.MkdirAll(dest, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dest, err)
	}
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return errors.NewIOError("extract", archive, err)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, constants.DirPermissions); err != nil {
				return errors.WrapIO("create", target, err)
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}
		if f.UncompressedSize64 > constants.MaxArchiveFileSize {
			return errors.NewIOError("extract", archive, fmt.Errorf("member %q exceeds %d bytes", f.Name, int64(constants.MaxArchiveFileSize)))
		}
		if err := extractFile(f, target); err != nil {
			return errors.NewIOError("extract", archive, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), constants.DirPermissions); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, io.LimitReader(rc, constants.MaxArchiveFileSize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n > constants.MaxArchiveFileSize {
		return fmt.Errorf("member %q exceeds %d bytes", f.Name, int64(constants.MaxArchiveFileSize))
	}
	return nil
}
