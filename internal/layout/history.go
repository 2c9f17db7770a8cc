package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
)

// DefaultHistoryPath is where the layout history is kept unless configured
// otherwise.
const DefaultHistoryPath = "layout_output.json"

// legacyElementsKey marks the older single-layout document shape.
const legacyElementsKey = "elements"

// History maps image filenames to their most recent layout.
//
// Entries are held as raw JSON. An entry that is not rewritten is written back
// exactly as it was read, including fields this package does not model.
//
// History is not safe for concurrent use, and nothing guards the file against
// concurrent writers. Callers targeting the same path must serialize.
type History struct {
	entries map[string]json.RawMessage
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{entries: make(map[string]json.RawMessage)}
}

// LoadHistory reads the history document at path.
//
// Loading is best effort and never fails. A missing or unreadable file, a
// document that does not parse, a document that is not a JSON object, and a
// legacy single-layout document (a top-level "elements" key) all yield an
// empty history. The legacy document is discarded, not migrated.
func LoadHistory(path string) *History {
	log := logrus.WithFields(logrus.Fields{"component": "history", "path": path})

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("history unreadable, starting empty")
		}
		return NewHistory()
	}

	h, err := ParseHistory(data)
	if err != nil {
		log.WithError(err).Warn("history discarded, starting empty")
		return NewHistory()
	}
	return h
}

// ParseHistory decodes a history document. It returns an error for anything
// that is not a multi-image history; LoadHistory turns those errors into an
// empty history.
func ParseHistory(data []byte) (*History, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("history is not a JSON object: %w", err)
	}
	if _, ok := entries[legacyElementsKey]; ok {
		return nil, fmt.Errorf("legacy single-layout document")
	}
	if entries == nil {
		entries = make(map[string]json.RawMessage)
	}
	return &History{entries: entries}, nil
}

// Len returns the number of stored layouts.
func (h *History) Len() int { return len(h.entries) }

// Filenames returns the stored filenames in sorted order.
func (h *History) Filenames() []string {
	names := make([]string, 0, len(h.entries))
	for name := range h.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get decodes the layout stored for filename. It reports false when there is
// no entry or the entry does not decode as a layout.
func (h *History) Get(filename string) (*Layout, bool) {
	raw, ok := h.entries[filename]
	if !ok {
		return nil, false
	}
	var l Layout
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, false
	}
	return &l, true
}

// Raw returns the stored document for filename as it will be written.
func (h *History) Raw(filename string) (json.RawMessage, bool) {
	raw, ok := h.entries[filename]
	return raw, ok
}

// Put inserts or replaces the layout for filename. Other entries are left
// untouched.
func (h *History) Put(filename string, l *Layout) error {
	raw, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to encode layout for %s: %w", filename, err)
	}
	h.entries[filename] = raw
	return nil
}

// SetPageContext attaches the code-generation context to an existing entry.
// Every other field of the entry is preserved. It reports false when there is
// no entry for filename.
func (h *History) SetPageContext(filename, context string) (bool, error) {
	raw, ok := h.entries[filename]
	if !ok {
		return false, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return false, fmt.Errorf("entry %s is not an object", filename)
	}
	ctx, err := json.Marshal(context)
	if err != nil {
		return false, err
	}
	fields["page_context"] = ctx

	updated, err := json.Marshal(fields)
	if err != nil {
		return false, fmt.Errorf("failed to encode entry %s: %w", filename, err)
	}
	h.entries[filename] = updated
	return true, nil
}

// Marshal returns the full history document, indented with two spaces.
// Keys are written in sorted order.
func (h *History) Marshal() ([]byte, error) {
	return json.MarshalIndent(h.entries, "", "  ")
}

// Save writes the full history document to path, replacing the file. The
// write is not atomic.
func (h *History) Save(path string) error {
	data, err := h.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// MergeAndSave loads the history at path, stores l under filename and writes
// the whole document back.
//
// Read problems never fail the merge (see LoadHistory); only encoding and the
// final write can. The returned history reflects what was written.
func MergeAndSave(path, filename string, l *Layout) (*History, error) {
	h := LoadHistory(path)
	if err := h.Put(filename, l); err != nil {
		return nil, err
	}
	if err := h.Save(path); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"component": "history",
		"path":      path,
		"filename":  filename,
		"entries":   h.Len(),
	}).Info("layout history written")
	return h, nil
}
