package layout

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLayout(label string) *Layout {
	return Fuse(&DetectionResult{
		ImagePath:  "./images/" + label + ".png",
		ImageSize:  ImageSize{Width: 1920, Height: 1080},
		BBoxFormat: DefaultBBoxFormat,
		Elements:   []DetectedElement{{Label: label, BBox: BBox{0, 0, 1, 0.3}}},
	}, &OCRResult{Entries: []TextFragment{
		{Text: "Welcome", BBox: Polygon{{0.1, 0.1}, {0.2, 0.1}, {0.2, 0.12}, {0.1, 0.12}}},
		{Text: "stray", BBox: Polygon{{0.5, 0.8}, {0.6, 0.8}, {0.6, 0.82}, {0.5, 0.82}}},
	}}, DefaultSectionGap)
}

func TestLoadHistory_Missing(t *testing.T) {
	h := LoadHistory(filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, 0, h.Len())
}

func TestLoadHistory_Recovers(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"garbage", "{not json"},
		{"empty file", ""},
		{"array", `[1, 2, 3]`},
		{"string", `"layout"`},
		{"null", `null`},
		{"legacy single layout", `{"image_path": "a.png", "elements": [{"label": "Hero"}], "unassigned_text": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "layout_output.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			h := LoadHistory(path)
			assert.Equal(t, 0, h.Len())
		})
	}
}

func TestMergeAndSave_LegacyDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout_output.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"elements": [{"label": "Old"}]}`), 0644))

	h, err := MergeAndSave(path, "landing.png", sampleLayout("Hero"))
	require.NoError(t, err)
	assert.Equal(t, []string{"landing.png"}, h.Filenames())

	reloaded := LoadHistory(path)
	assert.Equal(t, []string{"landing.png"}, reloaded.Filenames())
}

func TestMergeAndSave_Isolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout_output.json")

	a := sampleLayout("Hero")
	_, err := MergeAndSave(path, "a.png", a)
	require.NoError(t, err)
	before := LoadHistory(path)
	rawBefore, ok := before.Raw("a.png")
	require.True(t, ok)

	_, err = MergeAndSave(path, "b.png", sampleLayout("Navbar"))
	require.NoError(t, err)

	after := LoadHistory(path)
	assert.Equal(t, []string{"a.png", "b.png"}, after.Filenames())

	rawAfter, ok := after.Raw("a.png")
	require.True(t, ok)
	assert.JSONEq(t, string(rawBefore), string(rawAfter))

	got, ok := after.Get("a.png")
	require.True(t, ok)
	assert.Equal(t, a, got, "field-for-field equal after round trip")
}

func TestMergeAndSave_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout_output.json")

	_, err := MergeAndSave(path, "a.png", sampleLayout("Hero"))
	require.NoError(t, err)
	_, err = MergeAndSave(path, "a.png", sampleLayout("Footer"))
	require.NoError(t, err)

	h := LoadHistory(path)
	require.Equal(t, 1, h.Len())
	got, ok := h.Get("a.png")
	require.True(t, ok)
	assert.Equal(t, "Footer", got.Elements[0].Label)
}

func TestMergeAndSave_PreservesUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout_output.json")
	existing := `{"old.png": {"image_path": "old.png", "elements": [], "unassigned_text": [], "page_context": "hero with CTA", "reviewer": {"ok": true}}}`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))

	_, err := MergeAndSave(path, "new.png", sampleLayout("Hero"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "hero with CTA", doc["old.png"]["page_context"])
	assert.Equal(t, map[string]interface{}{"ok": true}, doc["old.png"]["reviewer"])
	assert.Contains(t, doc, "new.png")
}

func TestHistory_SetPageContext(t *testing.T) {
	h := NewHistory()
	require.NoError(t, h.Put("landing.png", sampleLayout("Hero")))

	ok, err := h.SetPageContext("landing.png", "landing page with hero")
	require.NoError(t, err)
	assert.True(t, ok)

	got, found := h.Get("landing.png")
	require.True(t, found)
	assert.Equal(t, "landing page with hero", got.PageContext)
	assert.Equal(t, "Hero", got.Elements[0].Label)

	ok, err = h.SetPageContext("missing.png", "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHistory_MarshalShape(t *testing.T) {
	h := NewHistory()
	require.NoError(t, h.Put("landing.png", sampleLayout("Hero")))

	data, err := h.Marshal()
	require.NoError(t, err)

	var doc map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	entry := doc["landing.png"]
	for _, key := range []string{"image_path", "image_size", "bbox_format", "elements", "unassigned_text"} {
		assert.Contains(t, entry, key)
	}
	assert.NotContains(t, entry, "page_context", "omitted until code generation")

	var elements []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(entry["elements"], &elements))
	require.Len(t, elements, 1)
	assert.JSONEq(t, `0`, string(elements[0]["section_index"]))
	assert.JSONEq(t, `0`, string(elements[0]["order_in_section"]))
	assert.JSONEq(t, `[0, 0, 1, 0.3]`, string(elements[0]["bbox"]))
}

func TestHistory_SaveUnwritable(t *testing.T) {
	dir := t.TempDir()
	_, err := MergeAndSave(filepath.Join(dir, "missing", "layout_output.json"), "a.png", sampleLayout("Hero"))
	assert.Error(t, err)
}
