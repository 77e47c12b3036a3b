package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joseph-ayodele/bol-extractor/constants"
)

// Dedup remembers content hashes already handed out. Safe for concurrent use.
type Dedup struct {
	mu   sync.Mutex
	seen map[string]string
}

func NewDedup() *Dedup {
	return &Dedup{seen: map[string]string{}}
}

// Observe records hash for path and reports the first path seen with it.
func (d *Dedup) Observe(hash, path string) (first string, dup bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.seen[hash]; ok {
		return p, true
	}
	d.seen[hash] = path
	return path, false
}

// ScanDirectory walks root and returns every matching file, flagging files whose
// content was already seen (in this scan or earlier ones sharing dedup).
// A nil dedup means a fresh one.
func ScanDirectory(ctx context.Context, root string, opts Options, dedup *Dedup) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	if dedup == nil {
		dedup = NewDedup()
	}
	exts := extSet(opts.Exts)

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if opts.SkipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !allowed(path, exts) {
			return nil
		}
		stats.Matched++

		res := FileResult{Path: path}
		res.HashHex, res.Size, walkErr = HashFile(path)
		if walkErr != nil {
			res.Err = walkErr.Error()
			results = append(results, res)
			stats.Failed++
			return nil
		}
		_, res.Deduplicated = dedup.Observe(res.HashHex, path)
		results = append(results, res)
		stats.Succeeded++
		if res.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// HashFile returns the hex sha256 and size of the file at path.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

func extSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return constants.AllowedExtensions
	}
	out := map[string]struct{}{}
	for _, e := range exts {
		if e = constants.NormalizeExt(e); e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}
