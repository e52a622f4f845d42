// Package datafile extracts translatable values from structured data files
// that ship alongside game scripts: CSV tables, JSON and YAML documents, INI
// configuration and XML markup. Keyed formats filter values by key name,
// keyless ones by the shape of the value itself.
package datafile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/slden26/RenLocalizer-UA/internal/entry"
	"github.com/slden26/RenLocalizer-UA/internal/placeholder"
	"github.com/slden26/RenLocalizer-UA/internal/textid"
)

// Extractor pulls translatable values out of structured data files.
type Extractor struct{}

// NewExtractor creates a data-file extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// Supported reports whether ext names a data format this package reads.
// Extensions are matched lowercase, dot included.
func Supported(ext string) bool {
	switch ext {
	case ".csv", ".json", ".yaml", ".yml", ".ini", ".xml":
		return true
	}
	return false
}

// Extract parses one data file and returns its translatable values. A
// malformed document is an error; the caller degrades it to a file-level
// warning.
func (x *Extractor) Extract(data []byte, file string) ([]entry.Entry, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return x.extractCSV(data, file)
	case ".json":
		return x.extractJSON(data, file)
	case ".yaml", ".yml":
		return x.extractYAML(data, file)
	case ".ini":
		return x.extractINI(data, file)
	case ".xml":
		return x.extractXML(data, file)
	}
	return nil, fmt.Errorf("unsupported data format: %s", file)
}

// extractCSV reads a delimited table and keeps every prose-looking cell. The
// delimiter is sniffed from the first line; exported spreadsheets commonly
// use semicolons.
func (x *Extractor) extractCSV(data []byte, file string) ([]entry.Entry, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	var out []entry.Entry
	for ri, row := range rows {
		for ci, cell := range row {
			cell = strings.TrimSpace(cell)
			if !meaningful(cell, "") {
				continue
			}
			ctx := fmt.Sprintf("csv:row%d_col%d", ri, ci)
			out = append(out, x.emit(cell, ctx, file, ri+1))
		}
	}
	return out, nil
}

func sniffDelimiter(data []byte) rune {
	head := data
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte(";")) > bytes.Count(head, []byte(",")) {
		return ';'
	}
	return ','
}

func (x *Extractor) extractJSON(data []byte, file string) ([]entry.Entry, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	var out []entry.Entry
	x.walkValue(doc, "", "", "json", file, &out)
	return out, nil
}

func (x *Extractor) extractYAML(data []byte, file string) ([]entry.Entry, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	var out []entry.Entry
	x.walkValue(doc, "", "", "yaml", file, &out)
	return out, nil
}

// walkValue descends a decoded JSON or YAML document, carrying the dotted
// path for context and the nearest map key for the value filter. List
// elements inherit the key of the enclosing field.
func (x *Extractor) walkValue(v any, path, key, format, file string, out *[]entry.Entry) {
	switch val := v.(type) {
	case string:
		if !meaningful(val, key) {
			return
		}
		*out = append(*out, x.emit(val, format+":"+path, file, 0))
	case map[string]any:
		for _, k := range sortedKeys(val) {
			x.walkValue(val[k], childPath(path, k), k, format, file, out)
		}
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, child := range val {
			m[fmt.Sprint(k)] = child
		}
		x.walkValue(m, path, key, format, file, out)
	case []any:
		for i, child := range val {
			x.walkValue(child, fmt.Sprintf("%s[%d]", path, i), key, format, file, out)
		}
	}
}

func childPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// extractINI walks key=value pairs, tracking the current [section] header.
// Blank lines and ;- or #-prefixed comments are skipped.
func (x *Extractor) extractINI(data []byte, file string) ([]entry.Entry, error) {
	var out []entry.Entry
	section := ""
	lineNum := 0

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for sc.Scan() {
		lineNum++
		trimmed := strings.TrimSpace(sc.Text())

		if trimmed == "" || strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section = trimmed[1 : len(trimmed)-1]
			continue
		}

		eq := strings.Index(trimmed, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(trimmed[:eq])
		value := strings.TrimSpace(trimmed[eq+1:])
		if !meaningful(value, key) {
			continue
		}

		ctx := fmt.Sprintf("ini:[%s]%s", section, key)
		out = append(out, x.emit(value, ctx, file, lineNum))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan ini: %w", err)
	}
	return out, nil
}

// extractXML walks the element stream keeping both element text and the tail
// text following a closing tag, each under its own context path.
func (x *Extractor) extractXML(data []byte, file string) ([]entry.Entry, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var out []entry.Entry
	var path []string
	closed := "" // path of the most recently closed element
	tail := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			path = append(path, t.Name.Local)
			tail = false
		case xml.EndElement:
			closed = strings.Join(path, ".")
			path = path[:len(path)-1]
			tail = true
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if !meaningful(text, "") {
				continue
			}
			ctx := "xml:" + strings.Join(path, ".")
			if tail {
				ctx = "xml:" + closed + "_tail"
			}
			out = append(out, x.emit(text, ctx, file, 0))
		}
	}
	return out, nil
}

func (x *Extractor) emit(text, context, file string, line int) entry.Entry {
	processed, mappings := placeholder.Mask(text)
	return entry.Entry{
		RawText:       text,
		ProcessedText: processed,
		Placeholders:  mappings,
		Type:          entry.DataValue,
		ContextPath:   []string{context},
		File:          file,
		Lines:         entry.LineRange{Start: line, End: line},
		TranslationID: textid.AssignDecoded(text, ""),
		Source:        entry.DataSource,
	}
}
