// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/yitzshapiro/synthetic-data-generator/pkg/types"
)

const (
	qaSystem  = "You create an informative question and a step-by-step answer based on the provided text."
	dpoSystem = "You create preference training data: a question, a correct answer and a convincing but incorrect answer, all based on the provided text."
)

var qaPromptTmpl = template.Must(template.New("qa").Parse(`Context:
{{.Text}}

Based only on the context above, write one in-depth question about the text and a detailed, informative answer. Think the answer through step by step and keep it grounded in the context.

Respond with exactly these two tagged fields and nothing else:
<question>the question</question>
<answer>the answer</answer>
`))

var dpoPromptTmpl = template.Must(template.New("dpo").Parse(`Context:
{{.Text}}

Based only on the context above, write:
1. a prompt: an in-depth question about the text;
2. a chosen answer: correct, detailed and informative, grounded in the context;
3. a rejected answer: plausible and similar in style, but factually wrong about the context.

The chosen and rejected answers must differ. Respond with exactly these three tagged fields and nothing else:
<prompt>the question</prompt>
<chosen>the correct answer</chosen>
<rejected>the incorrect answer</rejected>
`))

// GenerationError reports model output that cannot be turned into a valid
// record. It is never retried.
type GenerationError struct {
	Mode   types.Mode
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("invalid %s response: %s", e.Mode, e.Reason)
}

// buildRequest renders the system and user prompt for one chunk.
func buildRequest(mode types.Mode, chunkText string) (Request, error) {
	var tmpl *template.Template
	var system string
	switch mode {
	case types.ModeQA:
		tmpl, system = qaPromptTmpl, qaSystem
	case types.ModeDPO:
		tmpl, system = dpoPromptTmpl, dpoSystem
	default:
		return Request{}, fmt.Errorf("unknown mode %q", mode)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Text string }{Text: chunkText}); err != nil {
		return Request{}, fmt.Errorf("rendering %s prompt: %w", mode, err)
	}
	return Request{System: system, Prompt: buf.String()}, nil
}

var tagRes = map[string]*regexp.Regexp{}

func init() {
	for _, m := range []types.Mode{types.ModeQA, types.ModeDPO} {
		for _, col := range m.Columns() {
			if col == "source" {
				continue
			}
			tagRes[col] = regexp.MustCompile(`(?s)<` + col + `>(.*?)</` + col + `>`)
		}
	}
}

// tagged returns the trimmed content of the first <tag>...</tag> in s.
func tagged(s, tag string) (string, bool) {
	m := tagRes[tag].FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// parseResponse turns a model reply into a record for chunk. It fails
// closed: any missing or blank field yields a *GenerationError.
func parseResponse(mode types.Mode, reply string, chunk types.Chunk) (types.Record, error) {
	fields := map[string]string{}
	for _, col := range mode.Columns() {
		if col == "source" {
			continue
		}
		v, ok := tagged(reply, col)
		if !ok {
			return nil, &GenerationError{Mode: mode, Reason: fmt.Sprintf("missing <%s> field", col)}
		}
		fields[col] = v
	}

	var rec types.Record
	switch mode {
	case types.ModeQA:
		rec = types.QARecord{
			Question:   fields["question"],
			Answer:     fields["answer"],
			Source:     chunk.SourceRef(),
			DocumentID: chunk.DocumentID,
			ChunkIndex: chunk.Index,
		}
	case types.ModeDPO:
		rec = types.DPORecord{
			Prompt:     fields["prompt"],
			Chosen:     fields["chosen"],
			Rejected:   fields["rejected"],
			Source:     chunk.SourceRef(),
			DocumentID: chunk.DocumentID,
			ChunkIndex: chunk.Index,
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	if err := rec.Validate(); err != nil {
		return nil, &GenerationError{Mode: mode, Reason: err.Error()}
	}
	return rec, nil
}
