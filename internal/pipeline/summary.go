// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"
	"sort"
)

// Failure describes one failed document or chunk.
type Failure struct {
	DocumentID string
	// Chunk is the chunk index, or -1 when the whole document failed.
	Chunk  int
	Reason string
}

func (f Failure) String() string {
	if f.Chunk < 0 {
		return fmt.Sprintf("%s: %s", f.DocumentID, f.Reason)
	}
	return fmt.Sprintf("%s#%d: %s", f.DocumentID, f.Chunk, f.Reason)
}

// Summary holds the counts of a run.
type Summary struct {
	Processed   int
	Skipped     int
	Failed      int
	Interrupted int

	ChunksSucceeded int
	ChunksFailed    int

	Failures []Failure
}

// Total returns the number of documents discovered.
func (s Summary) Total() int {
	return s.Processed + s.Skipped + s.Failed + s.Interrupted
}

// HasFailures reports whether any document or chunk failed.
func (s Summary) HasFailures() bool {
	return len(s.Failures) > 0
}

func (s *Summary) sortFailures() {
	sort.SliceStable(s.Failures, func(i, j int) bool {
		a, b := s.Failures[i], s.Failures[j]
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		return a.Chunk < b.Chunk
	})
}

// Print writes the end-of-run report.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "\n%d documents: %d processed, %d skipped, %d failed", s.Total(), s.Processed, s.Skipped, s.Failed)
	if s.Interrupted > 0 {
		fmt.Fprintf(w, ", %d not started (interrupted)", s.Interrupted)
	}
	fmt.Fprintf(w, "\nchunks: %d succeeded, %d failed\n", s.ChunksSucceeded, s.ChunksFailed)
	if len(s.Failures) == 0 {
		return
	}
	fmt.Fprintln(w, "failures:")
	for _, f := range s.Failures {
		fmt.Fprintf(w, "  %s\n", f)
	}
}
