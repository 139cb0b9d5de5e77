package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/leafo/keystolyrics/internal/convert"
	"github.com/leafo/keystolyrics/internal/sng"
)

// chartEntry is the chart file inside an SNG package
const chartEntry = "notes.chart"

func isSng(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sng")
}

func ioError(err error) error {
	return fmt.Errorf("%w: %w", convert.ErrIO, err)
}

// readChart loads chart text from a file, or from the notes.chart entry
// of an SNG package.
func readChart(path string) ([]byte, error) {
	if !isSng(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, ioError(err)
		}
		return data, nil
	}

	pkg, err := sng.Open(path)
	if err != nil {
		return nil, ioError(err)
	}
	defer pkg.Close()

	data, err := pkg.ReadFile(chartEntry)
	if err != nil {
		return nil, ioError(fmt.Errorf("%s: %w", path, err))
	}
	return data, nil
}

func readAll(reader io.Reader) ([]byte, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, ioError(fmt.Errorf("error reading stdin: %w", err))
	}
	return data, nil
}

func fileMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return 0o644
}

// writeFileAtomic writes data to a temporary file next to destPath and
// renames it into place, so a failed write never leaves a partial chart.
func writeFileAtomic(destPath string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(destPath)

	tmp, err := os.CreateTemp(dir, ".keystolyrics-*")
	if err != nil {
		return ioError(fmt.Errorf("create temp file: %w", err))
	}
	tmpName := tmp.Name()

	// cleanup on failure, the remove is a no-op after the rename
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return ioError(fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return ioError(fmt.Errorf("close temp file: %w", err))
	}

	_ = os.Chmod(tmpName, perm)

	if err := os.Rename(tmpName, destPath); err != nil {
		return ioError(fmt.Errorf("rename %s: %w", destPath, err))
	}
	return nil
}
