package terminology

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalogResolvesLabItems(t *testing.T) {
	cat := DefaultCatalog()

	item, ok := cat.LookupLabItem(50912)
	if !ok {
		t.Fatal("expected creatinine in the default catalog")
	}
	if item.Label != "Creatinine" {
		t.Fatalf("unexpected label %q", item.Label)
	}

	if _, ok := cat.LookupLabItem(12345); ok {
		t.Fatal("expected unknown item to miss")
	}
}

func TestDefaultCatalogHistorySections(t *testing.T) {
	cat := DefaultCatalog()

	if !cat.IsHistorySection("past_medical_history") {
		t.Fatal("expected past_medical_history to be a history section")
	}
	if !cat.IsHistorySection("  Past_Medical_History ") {
		t.Fatal("section matching should ignore case and whitespace")
	}
	if cat.IsHistorySection("assessment") {
		t.Fatal("assessment is not a history section")
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terminology.yaml")
	content := []byte(`
lab_items:
  50912:
    label: Creatinine
    fluid: Blood
    loinc: 2160-0
history_sections:
  - past_medical_history
  - social_history
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cat.LookupLabItem(50912); !ok {
		t.Fatal("expected loaded catalog to resolve item")
	}
	if !cat.IsHistorySection("social_history") {
		t.Fatal("expected loaded history section")
	}
}

func TestLoadRejectsEmptyCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}
