package config

// FileSpec names one KGX artifact (or SSSOM mapping file) a graph operation
// should load, along with the provenance tag it should be tagged with.
type FileSpec struct {
	Path        string `yaml:"path" validate:"required"`
	SourceName  string `yaml:"source_name"` // defaults to the file stem
	Format      Format `yaml:"format" validate:"omitempty,oneof=tsv jsonl parquet"`
	Kind        string `yaml:"kind" validate:"omitempty,oneof=node edge"`
}

// JoinConfig loads every configured node/edge file into the graph DB and
// unifies them (§4.I "Join").
type JoinConfig struct {
	DatabasePath       string     `yaml:"database_path"`
	NodeFiles          []FileSpec `yaml:"node_files"`
	EdgeFiles          []FileSpec `yaml:"edge_files"`
	GenerateProvidedBy bool       `yaml:"generate_provided_by"`
	PreserveDuplicates bool       `yaml:"preserve_duplicates"` // documentation flag only, per §4.I
	Quiet              bool       `yaml:"quiet"`
}

// DeduplicateConfig controls which tables component I's Deduplicate
// operation processes.
type DeduplicateConfig struct {
	DatabasePath     string `yaml:"database_path"`
	DeduplicateNodes bool   `yaml:"deduplicate_nodes"`
	DeduplicateEdges bool   `yaml:"deduplicate_edges"`
	Quiet            bool   `yaml:"quiet"`
}

// NormalizeConfig points Normalize (§4.I) at its SSSOM mapping files.
type NormalizeConfig struct {
	DatabasePath string     `yaml:"database_path"`
	MappingFiles []FileSpec `yaml:"mapping_files"`
	ShowProgress bool       `yaml:"show_progress"`
	Quiet        bool       `yaml:"quiet"`
}

// SingletonPolicy is Prune's mutually-exclusive singleton-node policy.
type SingletonPolicy string

const (
	KeepSingletons   SingletonPolicy = "keep_singletons"
	RemoveSingletons SingletonPolicy = "remove_singletons"
)

// PruneConfig controls the Prune operation (§4.I).
type PruneConfig struct {
	DatabasePath     string          `yaml:"database_path"`
	SingletonPolicy  SingletonPolicy `yaml:"singleton_policy" validate:"omitempty,oneof=keep_singletons remove_singletons"`
	MinComponentSize int             `yaml:"min_component_size"` // reserved, logs a warning if set; see graphops.PruneComponents
	Quiet            bool            `yaml:"quiet"`
}

// AppendConfig controls the Append operation (§4.I).
type AppendConfig struct {
	DatabasePath string     `yaml:"database_path"`
	NodeFiles    []FileSpec `yaml:"node_files"`
	EdgeFiles    []FileSpec `yaml:"edge_files"`
	Deduplicate  bool       `yaml:"deduplicate"`
	Quiet        bool       `yaml:"quiet"`
}

// SplitConfig controls the Split operation (§4.I).
type SplitConfig struct {
	InputFile      string   `yaml:"input_file" validate:"required"`
	Columns        []string `yaml:"columns" validate:"required,min=1"`
	OutputDir      string   `yaml:"output_dir" validate:"required"`
	Prefix         string   `yaml:"prefix"`
	RemovePrefixes []string `yaml:"remove_prefixes"`
	Format         Format   `yaml:"format" validate:"omitempty,oneof=tsv jsonl parquet"`
	Quiet          bool     `yaml:"quiet"`
}

// ExportTarget is where Export (§4.H "Export") writes.
type ExportTarget string

const (
	ExportLoose   ExportTarget = "loose"
	ExportArchive ExportTarget = "archive"
)

// ExportConfig controls the Export step of Merge, and stands alone for a
// direct "kgxflow export" invocation.
type ExportConfig struct {
	DatabasePath string       `yaml:"database_path"`
	OutputDir    string       `yaml:"output_dir" validate:"required"`
	Format       Format       `yaml:"format" validate:"omitempty,oneof=tsv jsonl parquet"`
	Target       ExportTarget `yaml:"target" validate:"omitempty,oneof=loose archive"`
	ArchiveGzip  bool         `yaml:"archive_gzip"`
	GraphName    string       `yaml:"graph_name"`
}
