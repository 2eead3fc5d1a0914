package usecase

import (
	"context"
	"fmt"
	"time"

	"RentWise/internal/domain/models"
	drepo "RentWise/internal/domain/repository"
	"RentWise/internal/services/cleaning"
	"RentWise/internal/services/features"
	applogger "RentWise/pkg/logger"
)

// Preprocessor runs the offline cleaning pass: raw dataset in, canonical
// table and schema pair out.
type Preprocessor struct {
	source   drepo.DatasetSource
	sink     drepo.DatasetSink
	schemas  drepo.SchemaWriter
	pipeline *cleaning.Pipeline
	version  string
	logger   *applogger.Logger
}

func NewPreprocessor(
	source drepo.DatasetSource,
	sink drepo.DatasetSink,
	schemas drepo.SchemaWriter,
	pipeline *cleaning.Pipeline,
	version string,
	logger *applogger.Logger,
) *Preprocessor {
	if logger == nil {
		logger = applogger.Nop()
	}
	if version == "" {
		version = time.Now().UTC().Format("20060102T150405Z")
	}
	return &Preprocessor{
		source:   source,
		sink:     sink,
		schemas:  schemas,
		pipeline: pipeline,
		version:  version,
		logger:   logger,
	}
}

// Run reads, cleans and writes. Nothing is written when the pass admits no rows.
func (p *Preprocessor) Run(ctx context.Context) (models.CleaningResult, models.SchemaRegistry, error) {
	raw, err := p.source.ReadRaw(ctx)
	if err != nil {
		return models.CleaningResult{}, models.SchemaRegistry{}, fmt.Errorf("read raw dataset: %w", err)
	}

	res, err := p.pipeline.Run(raw)
	if err != nil {
		return models.CleaningResult{}, models.SchemaRegistry{}, fmt.Errorf("clean: %w", err)
	}
	if res.Report.AdmittedRows == 0 {
		return res, models.SchemaRegistry{}, fmt.Errorf("clean: no rows admitted out of %d: %w", res.Report.InputRows, models.ErrEmptyDataset)
	}

	reg, err := features.NewRegistry(p.version, res.Regression, res.Classification,
		p.pipeline.Options().PriceField, res.Report.SqFeetMedian)
	if err != nil {
		return res, models.SchemaRegistry{}, fmt.Errorf("derive schemas: %w", err)
	}

	if err := p.sink.WriteCanonical(ctx, res.Table); err != nil {
		return res, reg, fmt.Errorf("write canonical table: %w", err)
	}
	if err := p.schemas.WriteSchema(ctx, reg); err != nil {
		return res, reg, fmt.Errorf("write schema: %w", err)
	}

	p.logger.Info("preprocess complete",
		applogger.String("schema_version", reg.Version),
		applogger.Int("admitted_rows", res.Report.AdmittedRows),
		applogger.Int("regression_features", reg.Regression.Len()))
	return res, reg, nil
}
