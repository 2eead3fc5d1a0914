package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDataQuality marks row-scoped problems found while cleaning. It never
	// leaves the cleaning pipeline; rows are imputed or dropped instead.
	ErrDataQuality = errors.New("data quality")

	// ErrSchemaMismatch is returned when caller attributes do not cover the target schema.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrArtifactLoad is returned when the schema or model artifacts are missing or corrupt.
	// The process must not serve requests after seeing it.
	ErrArtifactLoad = errors.New("artifact load failure")

	// ErrModelContract is returned when a predictor answers outside its contract.
	ErrModelContract = errors.New("model contract violation")

	// ErrDivisionByZero is returned by ratio computations over a zero predicted price.
	ErrDivisionByZero = errors.New("division by zero predicted price")

	// ErrEmptyDataset is returned when the raw dataset has no records.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrMissingColumn is returned when the raw dataset lacks a column the pipeline cannot work without.
	ErrMissingColumn = errors.New("missing required column")
)

// SchemaMismatchError lists every field of Schema the caller failed to supply.
type SchemaMismatchError struct {
	Schema  string
	Missing []string
	Reason  string
}

func (e *SchemaMismatchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("schema mismatch (%s): %s", e.Schema, e.Reason)
	}
	return fmt.Sprintf("schema mismatch (%s): missing fields [%s]", e.Schema, strings.Join(e.Missing, ", "))
}

// Is lets errors.Is(err, ErrSchemaMismatch) match.
func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// ModelContractError describes a predictor answer that cannot be trusted.
type ModelContractError struct {
	Model  string
	Detail string
}

func (e *ModelContractError) Error() string {
	return fmt.Sprintf("model contract violation (%s): %s", e.Model, e.Detail)
}

func (e *ModelContractError) Is(target error) bool { return target == ErrModelContract }

// ArtifactError wraps a start-up failure with the artifact that caused it.
type ArtifactError struct {
	Artifact string
	Err      error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact load failure (%s): %v", e.Artifact, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

func (e *ArtifactError) Is(target error) bool { return target == ErrArtifactLoad }
