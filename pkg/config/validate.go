package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ormasoftchile/simverify/pkg/discovery"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError represents a single validation error with location context.
type ValidationError struct {
	Phase   string `json:"phase"` // structural, semantic, domain
	Path    string `json:"path"`  // JSON-path-like location (e.g., "engine.binary")
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// ValidateFile performs the full 3-phase validation pipeline on a config file.
// Phase 1: Structural (strict YAML decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (custom Go rules)
func ValidateFile(path string) (*Config, []*ValidationError) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, []*ValidationError{{
			Phase:   "structural",
			Message: err.Error(),
		}}
	}
	return cfg, Validate(cfg)
}

// Validate runs the semantic and domain phases on an in-memory config.
func Validate(cfg *Config) []*ValidationError {
	var all []*ValidationError
	all = append(all, validateSemantic(cfg)...)
	all = append(all, ValidateDomain(cfg)...)
	return all
}

// validateSemantic validates the config against the JSON Schema.
func validateSemantic(cfg *Config) []*ValidationError {
	data, err := json.Marshal(cfg)
	if err != nil {
		return []*ValidationError{{
			Phase:   "semantic",
			Message: fmt.Sprintf("marshal for schema validation: %v", err),
		}}
	}

	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return []*ValidationError{{
			Phase:   "semantic",
			Message: fmt.Sprintf("generate schema: %v", err),
		}}
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*ValidationError{{
			Phase:   "semantic",
			Message: fmt.Sprintf("unmarshal schema: %v", err),
		}}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("config-v0.json", schemaDoc); err != nil {
		return []*ValidationError{{
			Phase:   "semantic",
			Message: fmt.Sprintf("add schema resource: %v", err),
		}}
	}

	sch, err := c.Compile("config-v0.json")
	if err != nil {
		return []*ValidationError{{
			Phase:   "semantic",
			Message: fmt.Sprintf("compile schema: %v", err),
		}}
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return []*ValidationError{{
			Phase:   "semantic",
			Message: fmt.Sprintf("unmarshal document: %v", err),
		}}
	}

	if err := sch.Validate(doc); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				errs = append(errs, &ValidationError{
					Phase:   "semantic",
					Path:    strings.Join(cause.InstanceLocation, "/"),
					Message: fmt.Sprintf("%v", cause.ErrorKind),
				})
			}
		} else {
			errs = append(errs, &ValidationError{
				Phase:   "semantic",
				Message: err.Error(),
			})
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// ValidateDomain performs Phase 3 domain-level validation.
// Returns a slice of errors; empty means valid.
func ValidateDomain(cfg *Config) []*ValidationError {
	var errs []*ValidationError

	if cfg.Engine.Binary == "" {
		errs = append(errs, &ValidationError{
			Phase:   "domain",
			Path:    "engine.binary",
			Message: "engine binary must be set",
		})
	}

	if cfg.Reference == "" {
		errs = append(errs, &ValidationError{
			Phase:   "domain",
			Path:    "reference",
			Message: "reference artifact file name must be set",
		})
	} else if strings.ContainsAny(cfg.Reference, `/\`) {
		errs = append(errs, &ValidationError{
			Phase:   "domain",
			Path:    "reference",
			Message: fmt.Sprintf("reference %q must be a bare file name, not a path; it is resolved inside each model's directory", cfg.Reference),
		})
	}

	if !strings.HasPrefix(cfg.ModelExtension, ".") {
		errs = append(errs, &ValidationError{
			Phase:   "domain",
			Path:    "model_extension",
			Message: fmt.Sprintf("model extension %q must begin with a dot", cfg.ModelExtension),
		})
	}

	if d, err := cfg.TimeoutDuration(); err != nil {
		errs = append(errs, &ValidationError{
			Phase:   "domain",
			Path:    "timeout",
			Message: err.Error(),
		})
	} else if d <= 0 {
		errs = append(errs, &ValidationError{
			Phase:   "domain",
			Path:    "timeout",
			Message: fmt.Sprintf("timeout %q must be positive", cfg.Timeout),
		})
	}

	// Filter expressions must compile; evaluation errors surface per-model
	// at discovery time.
	if _, err := discovery.NewFilter(cfg.Filter); err != nil {
		errs = append(errs, &ValidationError{
			Phase:   "domain",
			Path:    "filter",
			Message: err.Error(),
		})
	}

	return errs
}
