// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a generation pass over a data directory: discover
// documents, skip those in the ledger, chunk the rest and generate one record
// per chunk, with documents processed concurrently.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yitzshapiro/synthetic-data-generator/internal/chunk"
	"github.com/yitzshapiro/synthetic-data-generator/pkg/types"
)

// DefaultWorkers is the number of documents processed at once when no
// worker count is configured.
const DefaultWorkers = 4

// Converter extracts the text of a document.
type Converter interface {
	Supported(path string) bool
	Convert(ctx context.Context, path string) (string, error)
}

// Generator produces one record from one chunk.
type Generator interface {
	Generate(ctx context.Context, c types.Chunk, mode types.Mode) (types.Record, error)
}

// Ledger tracks completed documents across runs.
type Ledger interface {
	Contains(id string) bool
	MarkDone(ctx context.Context, id string) error
}

// Sink persists the records of one finished document. A document is marked
// done only after Save returns.
type Sink interface {
	Save(records []types.Record) error
}

// Pipeline wires the stages of one run together.
type Pipeline struct {
	cfg    types.GenerationConfig
	conv   Converter
	gen    Generator
	ledger Ledger
	sink   Sink
	log    zerolog.Logger

	outMu sync.Mutex
	out   io.Writer
}

// New returns a Pipeline. Per-document status lines go to out.
func New(cfg types.GenerationConfig, conv Converter, gen Generator, ledger Ledger, sink Sink, log zerolog.Logger, out io.Writer) *Pipeline {
	return &Pipeline{cfg: cfg, conv: conv, gen: gen, ledger: ledger, sink: sink, log: log, out: out}
}

// status prints one line for the user; workers share out.
func (p *Pipeline) status(format string, args ...any) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Result is the outcome of a run: the generated records, sorted by
// (document, chunk), and the summary.
type Result struct {
	Records []types.Record
	Summary Summary
}

// run holds the state shared by document workers.
type run struct {
	mu      sync.Mutex
	records []types.Record
	summary Summary
}

func (r *run) update(fn func(s *Summary)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.summary)
}

// Run processes every discovered document not already in the ledger. When
// ctx is cancelled no further documents are started; documents already
// started run to completion, each model call still bounded by its own
// timeout. Documents already in the ledger are counted as skipped even after
// an interrupt. Per-document failures are reported in the summary. Run
// returns an error only for discovery, record save or ledger write failures.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	docs, err := Discover(p.cfg.DataDir, p.cfg.Recursive, p.conv.Supported)
	if err != nil {
		return Result{}, err
	}
	p.log.Info().Int("documents", len(docs)).Str("dir", p.cfg.DataDir).Msg("discovered documents")

	workers := p.cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(workers)
	work := context.WithoutCancel(ctx)

	st := &run{}
	for _, doc := range docs {
		if p.ledger.Contains(doc.ID) {
			p.status("skipped %s", doc.ID)
			st.update(func(s *Summary) { s.Skipped++ })
			continue
		}
		if ctx.Err() != nil || gctx.Err() != nil {
			st.update(func(s *Summary) { s.Interrupted++ })
			continue
		}
		g.Go(func() error {
			// The slot may have opened after an interrupt.
			if ctx.Err() != nil || gctx.Err() != nil {
				st.update(func(s *Summary) { s.Interrupted++ })
				return nil
			}
			return p.processDocument(work, doc, st)
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if st.summary.Interrupted > 0 {
		p.log.Warn().Int("documents", st.summary.Interrupted).Msg("run interrupted before all documents were started")
	}

	types.SortRecords(st.records)
	st.summary.sortFailures()
	return Result{Records: st.records, Summary: st.summary}, nil
}

// processDocument converts, chunks and generates one document, saves its
// records and then records it in the ledger. Only save and ledger write
// failures are returned.
func (p *Pipeline) processDocument(ctx context.Context, doc types.Document, st *run) error {
	log := p.log.With().Str("document", doc.ID).Logger()

	text, err := p.conv.Convert(ctx, doc.Path)
	if err != nil {
		log.Error().Err(err).Msg("text extraction failed")
		p.status("failed  %s: %v", doc.ID, err)
		st.update(func(s *Summary) {
			s.Failed++
			s.Failures = append(s.Failures, Failure{DocumentID: doc.ID, Chunk: -1, Reason: err.Error()})
		})
		return nil
	}

	size := p.cfg.ChunkSize
	if size <= 0 {
		size = chunk.DefaultSize
	}
	chunks := chunk.Split(doc.ID, text, size)
	p.status("processing %s (%d chunks)", doc.ID, len(chunks))

	var recs []types.Record
	var failures []Failure
	attempted := 0
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		attempted++
		rec, err := p.gen.Generate(ctx, c, p.cfg.Mode)
		if err != nil {
			log.Warn().Err(err).Int("chunk", c.Index).Msg("chunk generation failed")
			failures = append(failures, Failure{DocumentID: doc.ID, Chunk: c.Index, Reason: err.Error()})
			continue
		}
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		log.Warn().Int("chunks", attempted).Msg("no records generated; marking document done")
	}

	if err := p.sink.Save(recs); err != nil {
		return fmt.Errorf("saving records for %s: %w", doc.ID, err)
	}

	st.mu.Lock()
	st.records = append(st.records, recs...)
	st.summary.ChunksSucceeded += len(recs)
	st.summary.ChunksFailed += len(failures)
	st.summary.Failures = append(st.summary.Failures, failures...)
	st.mu.Unlock()

	if err := p.ledger.MarkDone(ctx, doc.ID); err != nil {
		return err
	}

	p.status("processed %s (%d/%d chunks)", doc.ID, len(recs), attempted)
	log.Info().Int("records", len(recs)).Int("failed_chunks", len(failures)).Msg("document processed")
	st.update(func(s *Summary) { s.Processed++ })
	return nil
}
