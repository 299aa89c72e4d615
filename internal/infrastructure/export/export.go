// Package export streams the warden's data directory as a tar.gz
// archive, giving operators a one-request copy of every backup.
package export

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charlievieth/fastwalk"
	"github.com/klauspost/compress/gzip"
)

// Stats summarizes an archive run.
type Stats struct {
	Files int
	Bytes int64
}

// Archive writes a gzip-compressed tarball of dir to w. Entries are
// named relative to dir. Unreadable files are skipped rather than
// failing the whole archive.
func Archive(ctx context.Context, dir string, w io.Writer) (Stats, error) {
	var stats Stats

	if _, err := os.Stat(dir); err != nil {
		return stats, fmt.Errorf("failed to archive data dir: %w", err)
	}

	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	// Tar writers are not concurrent; keep the walk single-threaded.
	conf := fastwalk.Config{Follow: false, NumWorkers: 1}
	err := fastwalk.Walk(&conf, dir, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || path == dir {
			return nil
		}

		relPath, _ := filepath.Rel(dir, path)

		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			header, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return nil
			}
			header.Name = filepath.ToSlash(relPath) + "/"
			return tw.WriteHeader(header)
		}

		file, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer file.Close()

		// Stat the opened handle and copy exactly that many bytes, so a
		// log growing mid-export still archives as a consistent entry.
		info, err := file.Stat()
		if err != nil {
			return nil
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return nil
		}
		header.Name = filepath.ToSlash(relPath)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if _, err := io.CopyN(tw, file, info.Size()); err != nil {
			return err
		}
		stats.Bytes += info.Size()
		stats.Files++
		return nil
	})
	if err != nil {
		_ = tw.Close()
		_ = gz.Close()
		return stats, fmt.Errorf("failed to archive data dir: %w", err)
	}

	if err := tw.Close(); err != nil {
		_ = gz.Close()
		return stats, fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return stats, fmt.Errorf("failed to finish archive: %w", err)
	}
	return stats, nil
}
