package config

import (
	validatorpkg "github.com/go-playground/validator/v10"

	"github.com/kgxflow/kgxflow/internal/errors"
)

// structValidator is shared across the config package for struct-tag
// validation beyond what YAML decoding alone checks (required fields,
// oneof enums). This layers go-playground/validator on top of yaml.v3
// decoding rather than asking a single library to do both, since yaml.v3 is
// the only YAML library in the retrieval pack and it has no validation
// story of its own.
var structValidator = validatorpkg.New()

// Format enumerates the reader/writer formats kgxflow understands.
type Format string

const (
	FormatCSV         Format = "csv"
	FormatTSV         Format = "tsv"
	FormatJSONL       Format = "jsonl"
	FormatJSON        Format = "json"
	FormatYAML        Format = "yaml"
	FormatPassthrough Format = "passthrough"
)

// HeaderMode controls how a delimited reader locates its header row.
// "infer" and "none" are literal config values; any other value is parsed
// as the number of leading lines to skip before the header row.
type HeaderMode string

const (
	HeaderInfer HeaderMode = "infer"
	HeaderNone  HeaderMode = "none"
)

// ColumnConfig declares one delimited/JSON/JSONL column's semantic type.
type ColumnConfig struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"omitempty,oneof=string int float list"`
}

// Operator enumerates the row-filter comparison operators (§4.C).
type Operator string

const (
	OpLT      Operator = "lt"
	OpLE      Operator = "le"
	OpEQ      Operator = "eq"
	OpNE      Operator = "ne"
	OpGE      Operator = "ge"
	OpGT      Operator = "gt"
	OpIn      Operator = "in"
	OpInExact Operator = "in_exact"
)

// Polarity is a filter predicate's include/exclude sense.
type Polarity string

const (
	Include Polarity = "include"
	Exclude Polarity = "exclude"
)

// FilterConfig is one row-filter predicate (§4.C).
type FilterConfig struct {
	Column   string   `yaml:"column" validate:"required"`
	Inclusion Polarity `yaml:"filter_code" validate:"required,oneof=include exclude"`
	Operator Operator `yaml:"operator" validate:"required,oneof=lt le eq ne ge gt in in_exact"`
	Value    any      `yaml:"value"`
}

// ReaderConfig configures component B (readers) plus the glob/archive/
// filter/row_limit behavior component D (Source) layers on top.
type ReaderConfig struct {
	Format  Format   `yaml:"format" validate:"required,oneof=csv tsv jsonl json yaml"`
	Files   []string `yaml:"files" validate:"required,min=1"`

	FileArchive string         `yaml:"file_archive"`
	Filters     []FilterConfig `yaml:"filters"`
	RowLimit    int            `yaml:"row_limit"`
	Progress    bool           `yaml:"progress"`

	// Delimited-specific
	Header        string         `yaml:"header"` // "infer", "none", or an integer-as-string skip count
	Columns       []ColumnConfig `yaml:"columns"`
	HeaderPrefix  string         `yaml:"header_prefix"`
	CommentChar   string         `yaml:"comment_char"`
	Delimiter     string         `yaml:"delimiter"` // defaults per format: "," for csv, "\t" for tsv
	SkipBlankLines bool          `yaml:"skip_blank_lines"`

	// JSONL/JSON-specific
	RequiredProperties []string `yaml:"required_properties"`
	JSONPath           []any    `yaml:"json_path"`
}

// TransformConfig declares the user transform module (§4.E) and its
// dependent mapping tables (§4.F).
type TransformConfig struct {
	Code         string      `yaml:"code"`
	Module       string      `yaml:"module"`
	Mappings     []MapConfig `yaml:"mappings"`
	GlobalTable  string      `yaml:"global_table"`
	LocalTable   string      `yaml:"local_table"`
	OnMapFailure string      `yaml:"on_map_failure" validate:"omitempty,oneof=warning error"`
}

// MapConfig is one dependent mapping source the mapping loader (§4.F) runs
// and indexes by KeyColumn.
type MapConfig struct {
	Name         string       `yaml:"name" validate:"required"`
	Reader       ReaderConfig `yaml:"reader" validate:"required"`
	Transform    *TransformConfig `yaml:"transform"`
	KeyColumn    string       `yaml:"key_column" validate:"required"`
	ValueColumns []string     `yaml:"value_columns"`
}

// SSSOMConfig enables the opt-in edge rewrite in the writer (§4.G).
type SSSOMConfig struct {
	MappingFiles []string `yaml:"mapping_files" validate:"required,min=1"`
}

// WriterConfig configures component G (writers).
type WriterConfig struct {
	Format         Format       `yaml:"format" validate:"required,oneof=tsv jsonl passthrough"`
	NodeProperties []string     `yaml:"node_properties"`
	EdgeProperties []string     `yaml:"edge_properties"`
	MinNodeCount   int          `yaml:"min_node_count"`
	MinEdgeCount   int          `yaml:"min_edge_count"`
	SSSOMConfig    *SSSOMConfig `yaml:"sssom_config"`
	Strict         bool         `yaml:"strict"`
}

// SourceConfig is the top-level per-source transform config (§6 "Config
// files (YAML)"): name, metadata, reader, transform, writer.
type SourceConfig struct {
	Name      string         `yaml:"name" validate:"required"`
	Metadata  map[string]any `yaml:"metadata"`
	Reader    ReaderConfig   `yaml:"reader" validate:"required"`
	Transform TransformConfig `yaml:"transform"`
	Writer    WriterConfig   `yaml:"writer" validate:"required"`
}

// LoadSourceConfig loads and validates a source config from path, resolving
// !include tags and rejecting duplicate keys per §4.L.
func LoadSourceConfig(path string) (*SourceConfig, error) {
	var cfg SourceConfig
	if err := LoadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if err := structValidator.Struct(&cfg); err != nil {
		return nil, errors.Wrapf(err, errors.KindConfig, "invalid source config %s", path)
	}
	if cfg.Reader.Header == "" {
		cfg.Reader.Header = string(HeaderInfer)
	}
	if cfg.Transform.OnMapFailure == "" {
		cfg.Transform.OnMapFailure = "warning"
	}
	return &cfg, nil
}
