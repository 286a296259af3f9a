package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode_PropertyOrderPreserved(t *testing.T) {
	doc, err := Decode([]byte(`{
		"id": "deploy-vm",
		"name": "Deploy VM",
		"type": "workflow",
		"properties": {
			"zeta": {"type": "string"},
			"alpha": {"type": "string"},
			"middle": {"type": "integer"}
		},
		"required": ["zeta"]
	}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "middle"}, doc.PropertyOrder); diff != "" {
		t.Errorf("property order (-want +got):\n%s", diff)
	}
}

func TestDecode_MissingIdentity(t *testing.T) {
	if _, err := Decode([]byte(`{"name": "anonymous"}`)); err == nil {
		t.Error("missing id must fail")
	}
	if _, err := Decode([]byte(`{"id": "x"}`)); err == nil {
		t.Error("missing name must fail")
	}
	if _, err := Decode([]byte(`{"id": `)); err == nil {
		t.Error("truncated body must fail")
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a-schema.json", "b-schema.json", "ignore.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := Scan(dir, "")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("files = %v", files)
	}

	if _, err := Scan(filepath.Join(dir, "missing"), ""); !os.IsNotExist(err) {
		t.Errorf("missing dir should surface os.ErrNotExist, got %v", err)
	}
}
