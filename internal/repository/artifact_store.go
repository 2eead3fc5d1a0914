package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"RentWise/internal/domain/models"
	"RentWise/internal/domain/repository"
	"RentWise/internal/services/features"

	"gopkg.in/yaml.v3"
)

type schemaDocument struct {
	Version    string `yaml:"version"`
	Digest     string `yaml:"digest"`
	PriceField string `yaml:"price_field"`
	Imputation struct {
		SqFeetMedian float64 `yaml:"sq_feet_median"`
	} `yaml:"imputation"`
	Regression     []string `yaml:"regression"`
	Classification []string `yaml:"classification"`
}

// ArtifactStore reads and writes feature_schema.yaml and models.yaml in one directory.
type ArtifactStore struct {
	dir        string
	schemaFile string
	modelsFile string
}

// NewArtifactStore creates an artifact store rooted at dir.
func NewArtifactStore(dir, schemaFile, modelsFile string) *ArtifactStore {
	if schemaFile == "" {
		schemaFile = "feature_schema.yaml"
	}
	if modelsFile == "" {
		modelsFile = "models.yaml"
	}
	return &ArtifactStore{dir: dir, schemaFile: schemaFile, modelsFile: modelsFile}
}

func (s *ArtifactStore) SchemaPath() string { return filepath.Join(s.dir, s.schemaFile) }

func (s *ArtifactStore) ModelsPath() string { return filepath.Join(s.dir, s.modelsFile) }

// LoadSchema reads the schema pair. A stored digest that does not match
// the field lists means the file was edited by hand.
func (s *ArtifactStore) LoadSchema(_ context.Context) (models.SchemaRegistry, error) {
	var doc schemaDocument
	if err := readYAML(s.SchemaPath(), &doc); err != nil {
		return models.SchemaRegistry{}, &models.ArtifactError{Artifact: s.schemaFile, Err: err}
	}
	if doc.Version == "" {
		return models.SchemaRegistry{}, &models.ArtifactError{Artifact: s.schemaFile, Err: errors.New("version is required")}
	}

	reg, err := features.NewRegistry(doc.Version, doc.Regression, doc.Classification, doc.PriceField, doc.Imputation.SqFeetMedian)
	if err != nil {
		return models.SchemaRegistry{}, &models.ArtifactError{Artifact: s.schemaFile, Err: err}
	}
	if doc.Digest != "" && doc.Digest != reg.Digest() {
		return models.SchemaRegistry{}, &models.ArtifactError{
			Artifact: s.schemaFile,
			Err:      fmt.Errorf("stored digest %s does not match field lists (%s)", short(doc.Digest), short(reg.Digest())),
		}
	}
	return reg, nil
}

// LoadModels reads models.yaml and checks it was produced for reg.
func (s *ArtifactStore) LoadModels(_ context.Context, reg models.SchemaRegistry) (models.ModelsManifest, error) {
	var m models.ModelsManifest
	if err := readYAML(s.ModelsPath(), &m); err != nil {
		return models.ModelsManifest{}, &models.ArtifactError{Artifact: s.modelsFile, Err: err}
	}
	if m.SchemaDigest == "" {
		return models.ModelsManifest{}, &models.ArtifactError{Artifact: s.modelsFile, Err: errors.New("schema_digest is required")}
	}
	if m.SchemaDigest != reg.Digest() {
		return models.ModelsManifest{}, &models.ArtifactError{
			Artifact: s.modelsFile,
			Err:      fmt.Errorf("models were fitted on schema %s, loaded schema is %s (version %s)", short(m.SchemaDigest), short(reg.Digest()), reg.Version),
		}
	}
	if m.SchemaVersion != "" && m.SchemaVersion != reg.Version {
		return models.ModelsManifest{}, &models.ArtifactError{
			Artifact: s.modelsFile,
			Err:      fmt.Errorf("schema_version %q does not match %q", m.SchemaVersion, reg.Version),
		}
	}
	if m.Regression.Kind == "" || m.Classification.Kind == "" {
		return models.ModelsManifest{}, &models.ArtifactError{Artifact: s.modelsFile, Err: errors.New("both models need a kind")}
	}
	return m, nil
}

// WriteSchema writes feature_schema.yaml, creating the directory when needed.
func (s *ArtifactStore) WriteSchema(_ context.Context, reg models.SchemaRegistry) error {
	doc := schemaDocument{
		Version:        reg.Version,
		Digest:         reg.Digest(),
		PriceField:     reg.PriceField,
		Regression:     reg.Regression.Fields,
		Classification: reg.Classification.Fields,
	}
	doc.Imputation.SqFeetMedian = reg.SqFeetMedian

	b, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	return writeFileAtomic(s.SchemaPath(), b)
}

// WriteModels writes models.yaml. Training tools and tests use it.
func (s *ArtifactStore) WriteModels(_ context.Context, m models.ModelsManifest) error {
	b, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("encode models: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	return writeFileAtomic(s.ModelsPath(), b)
}

func readYAML(path string, dest interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeFileAtomic(path string, b []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

var _ repository.SchemaWriter = (*ArtifactStore)(nil)
