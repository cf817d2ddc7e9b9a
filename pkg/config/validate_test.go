package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func hasErrorAt(errs []*ValidationError, path string) bool {
	for _, e := range errs {
		if e.Path == path {
			return true
		}
	}
	return false
}

func TestValidateDefaults(t *testing.T) {
	for _, preset := range []string{"kalixcli", "kalix"} {
		cfg, err := Preset(preset)
		if err != nil {
			t.Fatalf("Preset(%s) error: %v", preset, err)
		}
		if errs := Validate(cfg); len(errs) != 0 {
			t.Errorf("preset %s invalid: %v", preset, errs[0])
		}
	}
}

func TestValidateDomainRules(t *testing.T) {
	cfg := Default()
	cfg.Engine.Binary = ""
	cfg.Reference = ""
	cfg.ModelExtension = "ini"
	cfg.Timeout = "0s"

	errs := ValidateDomain(cfg)
	for _, path := range []string{"engine.binary", "reference", "model_extension", "timeout"} {
		if !hasErrorAt(errs, path) {
			t.Errorf("expected domain error at %s, got %v", path, errs)
		}
	}
}

func TestValidateReferenceMustBeBareName(t *testing.T) {
	cfg := Default()
	cfg.Reference = "reports/mbal.txt"
	if !hasErrorAt(ValidateDomain(cfg), "reference") {
		t.Error("expected error for reference containing a path separator")
	}
}

func TestValidateFilterCompile(t *testing.T) {
	cfg := Default()
	cfg.Filter = `name endsWith ".ini"`
	if errs := ValidateDomain(cfg); len(errs) != 0 {
		t.Errorf("valid filter rejected: %v", errs[0])
	}

	cfg.Filter = `name +`
	if !hasErrorAt(ValidateDomain(cfg), "filter") {
		t.Error("expected error for malformed filter")
	}
}

func TestValidateMissingEngine(t *testing.T) {
	errs := Validate(&Config{ModelExtension: ".ini", Reference: "mbal.txt", Timeout: "300s"})
	if len(errs) == 0 {
		t.Fatal("expected validation errors for missing engine fields")
	}
}

func TestValidateFileStructuralError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("engine: [not, a, mapping]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, errs := ValidateFile(path)
	if cfg != nil {
		t.Error("expected nil config on structural failure")
	}
	if len(errs) != 1 || errs[0].Phase != "structural" {
		t.Errorf("errs = %v, want one structural error", errs)
	}
}

func TestGenerateJSONSchema(t *testing.T) {
	data, err := GenerateJSONSchema()
	if err != nil {
		t.Fatalf("GenerateJSONSchema error: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "Simverify Harness Configuration v0") {
		t.Error("schema missing title")
	}
	for _, field := range []string{"engine", "reference", "model_extension", "timeout", "log_file", "filter"} {
		if !strings.Contains(s, field) {
			t.Errorf("schema missing field %q", field)
		}
	}
}
