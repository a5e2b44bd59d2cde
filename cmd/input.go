package cmd

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// maxReportBytes bounds a single decompressed input.
const maxReportBytes = 4 << 20

// readInput reads a report source. "-" or an empty path means stdin;
// .gz, .bz2 and .zst files are decompressed.
func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(io.LimitReader(os.Stdin, maxReportBytes))
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var src io.Reader = f
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bz2":
		src = bzip2.NewReader(f)
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		src = dec
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	b, err := io.ReadAll(io.LimitReader(src, maxReportBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
