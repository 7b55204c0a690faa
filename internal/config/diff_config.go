package config

// DiffConfig controls the side-by-side diff attached to change reports
type DiffConfig struct {
	RenderEnabled     bool `json:"render_enabled" yaml:"render_enabled"`
	SemanticCleanup   bool `json:"semantic_cleanup" yaml:"semantic_cleanup"`
	MaxDiffFileSizeMB int  `json:"max_diff_file_size_mb,omitempty" yaml:"max_diff_file_size_mb,omitempty" validate:"min=1"`
}

// NewDefaultDiffConfig creates default diff configuration
func NewDefaultDiffConfig() DiffConfig {
	return DiffConfig{
		RenderEnabled:     true,
		SemanticCleanup:   true,
		MaxDiffFileSizeMB: DefaultDiffMaxFileSizeMB,
	}
}
