// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yitzshapiro/synthetic-data-generator/pkg/types"
)

type fakeConverter struct {
	output string
	err    error
	calls  int
}

func (f *fakeConverter) Convert(context.Context, string) (string, error) {
	f.calls++
	return f.output, f.err
}

type fakeRuntime struct {
	imageErr error
	run      func(stdin io.Reader, stdout io.Writer) error
}

func (f *fakeRuntime) Name() string             { return "fake" }
func (f *fakeRuntime) Available() bool          { return true }
func (f *fakeRuntime) ImageExists(string) error { return f.imageErr }
func (f *fakeRuntime) Run(_ context.Context, _ string, stdin io.Reader, stdout io.Writer) error {
	return f.run(stdin, stdout)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// minimalPDF builds a single-page PDF whose content stream shows text.
func minimalPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}

func TestRegistry_Dispatch(t *testing.T) {
	pdf := &fakeConverter{output: "from pdf"}
	txt := &fakeConverter{output: "from txt"}
	r := NewRegistry(map[string]Converter{".PDF": pdf, ".txt": txt})

	assert.True(t, r.Supported("a/b/Report.Pdf"))
	assert.True(t, r.Supported("notes.TXT"))
	assert.False(t, r.Supported("slides.pptx"))
	assert.Equal(t, []string{".pdf", ".txt"}, r.Extensions())

	got, err := r.Convert(context.Background(), "Report.PDF")
	require.NoError(t, err)
	assert.Equal(t, "from pdf", got)
	assert.Equal(t, 1, pdf.calls)
	assert.Zero(t, txt.calls)

	_, err = r.Convert(context.Background(), "slides.pptx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestNew(t *testing.T) {
	r, err := New(types.ConversionConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{".md", ".pdf", ".txt"}, r.Extensions())
	assert.IsType(t, TextConverter{}, r.byExt[".md"])
	assert.IsType(t, PDFConverter{}, r.byExt[".pdf"])

	r, err = New(types.ConversionConfig{StripMarkdown: true})
	require.NoError(t, err)
	assert.IsType(t, MarkdownConverter{}, r.byExt[".md"])

	_, err = New(types.ConversionConfig{PDFBackend: "ocr"})
	assert.Error(t, err)
}

func TestTextConverter(t *testing.T) {
	dir := t.TempDir()

	got, err := TextConverter{}.Convert(context.Background(), writeFile(t, dir, "a.txt", []byte("héllo\nworld\n")))
	require.NoError(t, err)
	assert.Equal(t, "héllo\nworld\n", got)

	_, err = TextConverter{}.Convert(context.Background(), writeFile(t, dir, "bad.txt", []byte{0xff, 0xfe, 'x'}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UTF-8")

	_, err = TextConverter{}.Convert(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "headings emphasis lists",
			src:  "# Title\n\nSome *emphasis* and `code`.\n\n- item one\n- item two\n",
			want: "Title\n\nSome emphasis and code.\n\nitem one\nitem two",
		},
		{
			name: "link keeps label",
			src:  "See [the docs](https://example.com) now.",
			want: "See the docs now.",
		},
		{
			name: "fenced code kept verbatim",
			src:  "Intro\n\n```go\nx := 1\n```\n",
			want: "Intro\n\nx := 1",
		},
		{
			name: "raw html dropped",
			src:  "<div>hidden</div>\n\nVisible.\n",
			want: "Visible.",
		},
		{
			name: "soft break kept",
			src:  "line one\nline two\n",
			want: "line one\nline two",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlainText([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarkdownConverter(t *testing.T) {
	path := writeFile(t, t.TempDir(), "doc.md", []byte("## Setup\n\nRun **make**.\n"))
	got, err := MarkdownConverter{}.Convert(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Setup\n\nRun make.", got)
}

func TestPDFConverter(t *testing.T) {
	dir := t.TempDir()

	got, err := PDFConverter{}.Convert(context.Background(), writeFile(t, dir, "hello.pdf", minimalPDF("Hello World")))
	require.NoError(t, err)
	assert.Contains(t, got, "Hello World")

	_, err = PDFConverter{}.Convert(context.Background(), writeFile(t, dir, "broken.pdf", []byte("not a pdf")))
	assert.Error(t, err)
}

func TestMarkitdownConverter(t *testing.T) {
	path := writeFile(t, t.TempDir(), "paper.pdf", []byte("%PDF fake"))

	rt := &fakeRuntime{run: func(stdin io.Reader, stdout io.Writer) error {
		data, _ := io.ReadAll(stdin)
		_, err := fmt.Fprintf(stdout, "# converted %d bytes", len(data))
		return err
	}}
	mc, err := NewMarkitdownConverter(rt)
	require.NoError(t, err)

	got, err := mc.Convert(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "# converted 9 bytes", got)

	rt.run = func(io.Reader, io.Writer) error { return errors.New("container crashed") }
	_, err = mc.Convert(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "container crashed")

	_, err = NewMarkitdownConverter(&fakeRuntime{imageErr: errors.New("no such image")})
	assert.Error(t, err)
}
