// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mdhender/aresmem"
	"github.com/mdhender/aresmem/model"
	"github.com/spf13/afero"
)

// Loader reads the JSONL dataset once and caches it for its lifetime.
// Concurrent first callers share a single read; later callers never touch the file.
// A failed load is not cached.
type Loader struct {
	fs   afero.Fs
	path string
	dec  *lineDecoder

	mu      sync.Mutex // serializes the initial read
	records atomic.Pointer[[]*model.Record]
	stats   LoadStats
}

// maxReported caps the nonconforming lines logged per load.
const maxReported = 5

// LoadStats describes the most recent successful load.
type LoadStats struct {
	Path          string
	Lines         int // lines read, including blank ones
	Blank         int
	Kept          int
	Skipped       int // lines that were not valid records
	Nonconforming int // kept lines with fields that fail the record schema
	Elapsed       time.Duration
}

// NewLoader creates a Loader for the dataset at path on the OS filesystem.
func NewLoader(path string) (*Loader, error) {
	return NewLoaderFS(afero.NewOsFs(), path)
}

// NewLoaderFS creates a Loader that reads from the given filesystem.
func NewLoaderFS(fsys afero.Fs, path string) (*Loader, error) {
	dec, err := newLineDecoder()
	if err != nil {
		return nil, err
	}
	return &Loader{fs: fsys, path: path, dec: dec}, nil
}

// Path returns the dataset path.
func (l *Loader) Path() string {
	return l.path
}

// Load returns the dataset, reading it from disk on the first successful call.
func (l *Loader) Load(ctx context.Context) ([]*model.Record, error) {
	if p := l.records.Load(); p != nil {
		return *p, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if p := l.records.Load(); p != nil {
		return *p, nil
	}

	records, stats, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	l.stats = stats
	l.records.Store(&records)
	log.Printf("store: loaded %d records (%d skipped, %d blank, %d nonconforming) from %s in %v",
		stats.Kept, stats.Skipped, stats.Blank, stats.Nonconforming, stats.Path, stats.Elapsed)
	return records, nil
}

// Loaded reports whether the dataset is in memory.
func (l *Loader) Loaded() bool {
	return l.records.Load() != nil
}

// Stats returns statistics for the cached load. It is the zero value until Load succeeds.
func (l *Loader) Stats() LoadStats {
	if !l.Loaded() {
		return LoadStats{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *Loader) read(ctx context.Context) ([]*model.Record, LoadStats, error) {
	started := time.Now()
	stats := LoadStats{Path: l.path}

	fd, err := l.fs.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, stats, &aresmem.NotFoundError{What: "data file", Key: l.path, Err: err}
		}
		return nil, stats, fmt.Errorf("open %s: %w", l.path, err)
	}
	defer fd.Close()

	var records []*model.Record
	rd := bufio.NewReader(fd)
	for {
		line, rerr := rd.ReadBytes('\n')
		if len(line) != 0 {
			stats.Lines++
			if stats.Lines%4096 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, stats, err
				}
			}
			r, err := l.dec.decode(line)
			switch {
			case errors.Is(err, errBlankLine):
				stats.Blank++
			case err != nil:
				stats.Skipped++
			default:
				records = append(records, r)
				if err := l.dec.conform(line); err != nil {
					stats.Nonconforming++
					if stats.Nonconforming <= maxReported {
						log.Printf("store: %s:%d: case %s step %d: %v", l.path, stats.Lines, r.CaseID, r.StepID, err)
					}
				}
			}
		}
		if rerr == io.EOF {
			break
		} else if rerr != nil {
			return nil, stats, fmt.Errorf("read %s: %w", l.path, rerr)
		}
	}

	stats.Kept = len(records)
	stats.Elapsed = time.Since(started)
	return records, stats, nil
}
