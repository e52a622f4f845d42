// Package diag collects structured soft-failure records from the extraction
// engine and aggregates per-file coverage counts for reporting.
package diag

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

// Kind labels the taxonomy bucket a warning belongs to.
type Kind string

const (
	// ParseWarning covers unterminated literals, unknown block keywords and
	// unterminated placeholders; extraction continued with the best partial
	// interpretation.
	ParseWarning Kind = "parse_warning"
	// GraphWalkWarning covers a node of a compiled container that failed to
	// extract; sibling nodes were still processed.
	GraphWalkWarning Kind = "graph_walk_warning"
	// FormatFailure records a container rejected before deserialization.
	FormatFailure Kind = "format_error"
	// SecurityFailure records a container rejected by the type allow-list.
	SecurityFailure Kind = "security_error"
)

// Warning is one structured diagnostic record.
type Warning struct {
	Kind     Kind   `json:"kind"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	NodePath string `json:"node_path,omitempty"`
	Reason   string `json:"reason"`
}

// FileReport aggregates what happened to one input file.
type FileReport struct {
	File      string    `json:"file"`
	Extracted int       `json:"extracted"`
	Technical int       `json:"technical"`
	Warnings  []Warning `json:"warnings,omitempty"`
	Failed    bool      `json:"failed,omitempty"`
}

// Report is the run-level aggregate handed to the caller.
type Report struct {
	mu sync.Mutex

	TotalExtracted int           `json:"total_extracted"`
	TotalTechnical int           `json:"total_technical"`
	TotalMerged    int           `json:"total_merged"`
	FailedFiles    int           `json:"failed_files"`
	Files          []*FileReport `json:"files"`

	byFile map[string]*FileReport
}

// NewReport returns an empty run report.
func NewReport() *Report {
	return &Report{byFile: make(map[string]*FileReport)}
}

// File returns the report bucket for a path, creating it on first use.
func (r *Report) File(path string) *FileReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	fr, ok := r.byFile[path]
	if !ok {
		fr = &FileReport{File: path}
		r.byFile[path] = fr
		r.Files = append(r.Files, fr)
	}
	return fr
}

// Merge folds one file's results into the run totals.
func (r *Report) Merge(fr *FileReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byFile[fr.File]; !ok {
		r.byFile[fr.File] = fr
		r.Files = append(r.Files, fr)
	}
	r.TotalExtracted += fr.Extracted
	r.TotalTechnical += fr.Technical
	if fr.Failed {
		r.FailedFiles++
	}
}

// WriteJSON emits the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

// Warn appends a warning to a file report and mirrors it to the log.
func (fr *FileReport) Warn(w Warning) {
	w.File = fr.File
	fr.Warnings = append(fr.Warnings, w)
	log.Warn().Str("file", w.File).Int("line", w.Line).
		Str("kind", string(w.Kind)).Str("node", w.NodePath).Msg(w.Reason)
}
