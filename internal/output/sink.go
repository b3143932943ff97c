// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"fmt"
	"slices"
	"sync"

	"github.com/yitzshapiro/synthetic-data-generator/pkg/types"
)

// Sink saves records to one output file as documents complete. Each Save
// rewrites the file with the rows it held when the sink was opened followed
// by every record saved so far, sorted by (document, chunk). Save is safe
// for concurrent use.
type Sink struct {
	path   string
	format types.OutputFormat
	mode   types.Mode

	mu       sync.Mutex
	existing [][]string
	records  []types.Record
}

// OpenSink prepares path for records of mode. Unless replace is set, the
// rows already in the file are read now and kept; a file that cannot be
// parsed or has other columns is an error. With replace, the first Save
// overwrites the file.
func OpenSink(path string, format types.OutputFormat, mode types.Mode, replace bool) (*Sink, error) {
	if _, err := codecFor(format); err != nil {
		return nil, err
	}
	s := &Sink{path: path, format: format, mode: mode}
	if !replace {
		existing, err := Read(path, format, mode.Columns())
		if err != nil {
			return nil, fmt.Errorf("reading existing output: %w", err)
		}
		s.existing = existing
	}
	return s, nil
}

// Save adds records and rewrites the file. An empty batch leaves the file
// untouched. The file is replaced atomically, so a failed Save keeps the
// previous contents.
func (s *Sink) Save(records []types.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := append(slices.Clone(s.records), records...)
	types.SortRecords(all)
	rows, err := recordRows(s.mode, all)
	if err != nil {
		return err
	}
	if err := Write(s.path, s.format, s.mode.Columns(), append(slices.Clone(s.existing), rows...), false); err != nil {
		return err
	}
	s.records = all
	return nil
}

// Saved returns the number of records written through the sink.
func (s *Sink) Saved() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
