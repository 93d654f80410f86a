package cache

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestExporter_Export(t *testing.T) {
	c := NewInMemoryCache(3600)
	c.Set("fr:2", Entry{Text: "世界", Trans: "Monde"})
	c.Set("fr:1", Entry{Text: "你好", Trans: "Bonjour"})

	var buf bytes.Buffer
	if err := NewExporter(c).Export(&buf, map[string]string{"lang": "fr"}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var export ExportFormat
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("Failed to parse export: %v", err)
	}

	if export.Version != ExportVersion {
		t.Errorf("Expected version %s, got %s", ExportVersion, export.Version)
	}
	if len(export.Entries) != 2 || export.Entries[0].Key != "fr:1" {
		t.Errorf("Expected 2 entries sorted by key, got %+v", export.Entries)
	}
	if export.Entries[0].Text != "你好" || export.Entries[0].Trans != "Bonjour" {
		t.Errorf("Unexpected first entry %+v", export.Entries[0])
	}
	if export.Metadata["lang"] != "fr" {
		t.Errorf("Expected metadata lang=fr, got %v", export.Metadata)
	}
}

func TestImporter_Import(t *testing.T) {
	jsonData := `{
		"version": "2",
		"exported_at": "2024-01-01T00:00:00Z",
		"entries": [
			{"key": "en:1", "text": "你好", "trans": "Hello"},
			{"key": "en:2", "trans": "World"},
			{"key": "en:3", "text": "空"}
		]
	}`

	c := NewInMemoryCache(0)
	result, err := NewImporter(c).Import(strings.NewReader(jsonData))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Imported != 2 || result.Failed != 1 {
		t.Errorf("result = %+v", result)
	}
	if e, ok := c.Get("en:1"); !ok || e.Trans != "Hello" || e.Text != "你好" {
		t.Errorf("en:1 = %+v (ok=%v)", e, ok)
	}
	if e, ok := c.Get("en:2"); !ok || e.Trans != "World" {
		t.Errorf("en:2 = %+v (ok=%v)", e, ok)
	}
}

func TestExportImport_FileCacheRoundTrip(t *testing.T) {
	src := NewInMemoryCache(0)
	src.Set("es:1", Entry{Text: "你好", Trans: "Hola"})

	var buf bytes.Buffer
	if err := NewExporter(src).Export(&buf, nil); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	dst, err := OpenFileCache(filepath.Join(t.TempDir(), "c.json"))
	if err != nil {
		t.Fatal(err)
	}
	result, err := NewImporter(dst).Import(&buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("Expected 1 imported, got %d", result.Imported)
	}
	if e, ok := dst.Get("es:1"); !ok || e.Trans != "Hola" {
		t.Errorf("es:1 = %+v (ok=%v)", e, ok)
	}
}

func TestExporter_EmptyCache(t *testing.T) {
	var buf bytes.Buffer
	if err := NewExporter(NewInMemoryCache(0)).Export(&buf, nil); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var export ExportFormat
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatal(err)
	}
	if len(export.Entries) != 0 {
		t.Errorf("Expected 0 entries for empty cache, got %d", len(export.Entries))
	}
}

func TestImporter_InvalidJSON(t *testing.T) {
	_, err := NewImporter(NewInMemoryCache(0)).Import(strings.NewReader("invalid json"))
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
