// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"sort"
	"strings"
)

// Mode selects what kind of training record is synthesized from each chunk.
type Mode string

const (
	ModeQA  Mode = "qa"
	ModeDPO Mode = "dpo"
)

// Columns returns the serialized field names for records of this mode,
// in output order.
func (m Mode) Columns() []string {
	switch m {
	case ModeQA:
		return []string{"question", "answer", "source"}
	case ModeDPO:
		return []string{"prompt", "chosen", "rejected", "source"}
	default:
		return nil
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeQA || m == ModeDPO
}

// Document is a source file and its extracted text. It is discarded once
// chunked.
type Document struct {
	// ID is the path relative to the data directory, with forward slashes.
	ID   string
	Path string
	Text string
}

// Chunk is a bounded segment of one document's text and the unit of work
// sent to the model.
type Chunk struct {
	DocumentID string
	Index      int
	Text       string
}

// SourceRef formats the provenance string stored with every record.
func (c Chunk) SourceRef() string {
	return fmt.Sprintf("%s#%d", c.DocumentID, c.Index)
}

// Record is a synthesized training example ready for serialization.
type Record interface {
	// Mode reports which kind of record this is.
	Mode() Mode

	// Values returns the field values in the order of Mode().Columns().
	Values() []string

	// Origin identifies the chunk the record was generated from.
	Origin() (documentID string, chunkIndex int)

	// Validate returns an error if a textual field is blank.
	Validate() error
}

// QARecord is a question/answer pair grounded in one chunk.
type QARecord struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
	Source   string `json:"source" yaml:"source"`

	DocumentID string `json:"-" yaml:"-"`
	ChunkIndex int    `json:"-" yaml:"-"`
}

func (r QARecord) Mode() Mode { return ModeQA }

func (r QARecord) Values() []string {
	return []string{r.Question, r.Answer, r.Source}
}

func (r QARecord) Origin() (string, int) { return r.DocumentID, r.ChunkIndex }

func (r QARecord) Validate() error {
	return requireFields(ModeQA.Columns(), r.Values())
}

// DPORecord is a preference triple: a prompt, the preferred (correct)
// answer, and a dispreferred (plausible but wrong) answer.
type DPORecord struct {
	Prompt   string `json:"prompt" yaml:"prompt"`
	Chosen   string `json:"chosen" yaml:"chosen"`
	Rejected string `json:"rejected" yaml:"rejected"`
	Source   string `json:"source" yaml:"source"`

	DocumentID string `json:"-" yaml:"-"`
	ChunkIndex int    `json:"-" yaml:"-"`
}

func (r DPORecord) Mode() Mode { return ModeDPO }

func (r DPORecord) Values() []string {
	return []string{r.Prompt, r.Chosen, r.Rejected, r.Source}
}

func (r DPORecord) Origin() (string, int) { return r.DocumentID, r.ChunkIndex }

// Validate also rejects a pair whose chosen and rejected answers are the same.
func (r DPORecord) Validate() error {
	if err := requireFields(ModeDPO.Columns(), r.Values()); err != nil {
		return err
	}
	if strings.TrimSpace(r.Chosen) == strings.TrimSpace(r.Rejected) {
		return fmt.Errorf("chosen and rejected answers are identical")
	}
	return nil
}

func requireFields(names, values []string) error {
	var missing []string
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, names[i])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("empty field(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// SortRecords orders records by document ID, then chunk index, so output is
// reproducible regardless of worker scheduling.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		di, ci := records[i].Origin()
		dj, cj := records[j].Origin()
		if di != dj {
			return di < dj
		}
		return ci < cj
	})
}
