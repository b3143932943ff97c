// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output serializes generated records to CSV, JSON, JSON Lines or
// YAML. Files are replaced atomically; existing rows can be kept so that
// resumed runs accumulate into one file.
package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yitzshapiro/synthetic-data-generator/pkg/types"
)

// FileName returns the output file name for a mode and format, e.g.
// "output_qa.csv".
func FileName(mode types.Mode, format types.OutputFormat) string {
	return fmt.Sprintf("output_%s.%s", mode, format)
}

// recordRows flattens records into rows in the columns of mode.
func recordRows(mode types.Mode, records []types.Record) ([][]string, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		if r.Mode() != mode {
			return nil, fmt.Errorf("record of mode %s in %s output", r.Mode(), mode)
		}
		rows = append(rows, r.Values())
	}
	return rows, nil
}

// Write serializes rows under header to path. With appendExisting, rows
// already in the file are read back and kept ahead of the new ones; the file
// must then have the same columns. When rows is empty the file is not
// touched.
func Write(path string, format types.OutputFormat, header []string, rows [][]string, appendExisting bool) error {
	if len(rows) == 0 {
		return nil
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("row %d has %d fields, want %d", i, len(row), len(header))
		}
	}
	codec, err := codecFor(format)
	if err != nil {
		return err
	}

	all := rows
	if appendExisting {
		existing, err := Read(path, format, header)
		if err != nil {
			return fmt.Errorf("reading existing output: %w", err)
		}
		all = append(existing, rows...)
	}

	var buf bytes.Buffer
	if err := codec.encode(&buf, header, all); err != nil {
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	return replaceFile(path, buf.Bytes())
}

// Read returns the rows stored at path in header order. A missing or empty
// file yields no rows.
func Read(path string, format types.OutputFormat, header []string) ([][]string, error) {
	codec, err := codecFor(format)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	rows, err := codec.decode(bytes.NewReader(data), header)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rows, nil
}

type codec interface {
	encode(w io.Writer, header []string, rows [][]string) error
	decode(r io.Reader, header []string) ([][]string, error)
}

func codecFor(format types.OutputFormat) (codec, error) {
	switch format {
	case types.FormatCSV:
		return csvCodec{}, nil
	case types.FormatJSON:
		return jsonCodec{}, nil
	case types.FormatJSONL:
		return jsonlCodec{}, nil
	case types.FormatYAML:
		return yamlCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q: use csv, json, jsonl or yaml", format)
	}
}

// replaceFile writes data to a temp file beside path and renames it into place.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, ".output-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	syncErr := tmpFile.Sync()
	closeErr := tmpFile.Close()
	for _, err := range []error{writeErr, syncErr, closeErr} {
		if err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("writing temp file: %w", err)
		}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting output permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
