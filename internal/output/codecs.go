// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"go.yaml.in/yaml/v3"
)

type csvCodec struct{}

func (csvCodec) encode(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func (csvCodec) decode(r io.Reader, header []string) ([][]string, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	if !slices.Equal(records[0], header) {
		return nil, fmt.Errorf("existing columns %v do not match %v", records[0], header)
	}
	return records[1:], nil
}

// orderedRow marshals as a JSON object with keys in header order.
type orderedRow struct {
	header []string
	values []string
}

func (o orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.header {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, o.values[i]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // Encode appends a newline.
	return nil
}

func orderedRows(header []string, rows [][]string) []orderedRow {
	out := make([]orderedRow, len(rows))
	for i, row := range rows {
		out[i] = orderedRow{header: header, values: row}
	}
	return out
}

// fromObject maps a decoded object back to header order.
func fromObject(obj map[string]string, header []string) ([]string, error) {
	row := make([]string, len(header))
	for i, k := range header {
		v, ok := obj[k]
		if !ok {
			return nil, fmt.Errorf("missing column %q", k)
		}
		row[i] = v
	}
	return row, nil
}

func fromObjects(objs []map[string]string, header []string) ([][]string, error) {
	rows := make([][]string, 0, len(objs))
	for i, obj := range objs {
		row, err := fromObject(obj, header)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type jsonCodec struct{}

func (jsonCodec) encode(w io.Writer, header []string, rows [][]string) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(orderedRows(header, rows))
}

func (jsonCodec) decode(r io.Reader, header []string) ([][]string, error) {
	var objs []map[string]string
	if err := json.NewDecoder(r).Decode(&objs); err != nil {
		return nil, err
	}
	return fromObjects(objs, header)
}

type jsonlCodec struct{}

func (jsonlCodec) encode(w io.Writer, header []string, rows [][]string) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, row := range orderedRows(header, rows) {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func (jsonlCodec) decode(r io.Reader, header []string) ([][]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var rows [][]string
	for line := 1; sc.Scan(); line++ {
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		var obj map[string]string
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := fromObject(obj, header)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, sc.Err()
}

type yamlCodec struct{}

func (yamlCodec) encode(w io.Writer, header []string, rows [][]string) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for i, k := range header {
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: row[i]},
			)
		}
		seq.Content = append(seq.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return err
	}
	return enc.Close()
}

func (yamlCodec) decode(r io.Reader, header []string) ([][]string, error) {
	var objs []map[string]string
	if err := yaml.NewDecoder(r).Decode(&objs); err != nil {
		return nil, err
	}
	return fromObjects(objs, header)
}
