package models

// Model kinds accepted in models.yaml.
const (
	ModelKindLinear = "linear"
	ModelKindHTTP   = "http"
	ModelKindBand   = "band"
)

// ModelSpec describes one fitted model in models.yaml.
type ModelSpec struct {
	Kind         string             `yaml:"kind"`
	Intercept    float64            `yaml:"intercept,omitempty"`
	Coefficients map[string]float64 `yaml:"coefficients,omitempty"`
	Tolerance    float64            `yaml:"tolerance,omitempty"`
}

// ModelsManifest is the content of models.yaml, written by training.
type ModelsManifest struct {
	SchemaVersion  string    `yaml:"schema_version"`
	SchemaDigest   string    `yaml:"schema_digest"`
	Regression     ModelSpec `yaml:"regression"`
	Classification ModelSpec `yaml:"classification"`
}
