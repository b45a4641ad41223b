package config

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kgxflow/kgxflow/internal/errors"
)

// ValidationProfile selects which checks the validation engine (§4.J) runs.
type ValidationProfile string

const (
	ProfileMinimal  ValidationProfile = "minimal"
	ProfileStandard ValidationProfile = "standard"
	ProfileFull     ValidationProfile = "full"
)

// ValidationContext configures a single validation run (§4.J).
type ValidationContext struct {
	Profile        ValidationProfile `yaml:"profile" validate:"required,oneof=minimal standard full"`
	CategoryFilter []string          `yaml:"category_filter"`
	SampleLimit    int               `yaml:"sample_limit"`
	SchemaPath     string            `yaml:"schema_path" validate:"required"`
	Parallel       bool              `yaml:"parallel"` // reserved and unused today, per §5
}

// MergeConfig sequences join -> deduplicate -> normalize -> prune ->
// validate -> export (§4.K).
type MergeConfig struct {
	DatabasePath string     `yaml:"database_path"` // empty = temp file, deleted at the end
	NodeFiles    []FileSpec `yaml:"node_files" validate:"required,min=1"`
	EdgeFiles    []FileSpec `yaml:"edge_files"`
	MappingFiles []FileSpec `yaml:"mapping_files"`

	SkipDeduplicate bool `yaml:"skip_deduplicate"`
	SkipNormalize   bool `yaml:"skip_normalize"`
	SkipPrune       bool `yaml:"skip_prune"`
	SkipValidation  bool `yaml:"skip_validation"`

	SingletonPolicy SingletonPolicy `yaml:"singleton_policy" validate:"omitempty,oneof=keep_singletons remove_singletons"`

	Validation           ValidationContext `yaml:"validation"`
	ValidationErrorsHalt bool              `yaml:"validation_errors_halt"`

	ContinueOnPipelineStepError bool `yaml:"continue_on_pipeline_step_error"`

	ExportFinal  bool         `yaml:"export_final"`
	ExportDir    string       `yaml:"export_dir"`
	ExportFormat Format       `yaml:"export_format" validate:"omitempty,oneof=tsv jsonl parquet"`
	ExportTarget ExportTarget `yaml:"export_target" validate:"omitempty,oneof=loose archive"`
	ExportGzip   bool         `yaml:"export_gzip"`
	GraphName    string       `yaml:"graph_name"`

	Quiet bool `yaml:"quiet"`
}

// LoadMergeConfig loads and validates a merge config from path.
func LoadMergeConfig(path string) (*MergeConfig, error) {
	var cfg MergeConfig
	if err := LoadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.SingletonPolicy == "" {
		cfg.SingletonPolicy = KeepSingletons
	}
	if cfg.GraphName == "" {
		cfg.GraphName = "merged"
	}
	if !cfg.SkipValidation && cfg.Validation.Profile == "" {
		cfg.Validation.Profile = ProfileStandard
	}
	if err := structValidator.Struct(&cfg); err != nil {
		if !cfg.SkipValidation {
			return nil, errors.Wrapf(err, errors.KindConfig, "invalid merge config %s", path)
		}
		// Validation-context fields are only required when validation runs;
		// re-validate everything except that nested struct.
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				if !strings.HasPrefix(fe.StructNamespace(), "MergeConfig.Validation.") {
					return nil, errors.Wrapf(err, errors.KindConfig, "invalid merge config %s", path)
				}
			}
		}
	}
	return &cfg, nil
}
