package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/ports"
	"CommunityScanner/internal/scanner"
)

// PipelineDeps wires all driven adapters into the discovery pipeline.
type PipelineDeps struct {
	Source   scanner.Source
	Filter   *Filter
	Enricher ports.Enricher
	Sinks    []ports.RecordSink
	Tracer   ports.Tracer
	Logger   *slog.Logger
}

// Pipeline runs source -> filter -> enricher -> sinks one record at a time.
type Pipeline struct {
	source   scanner.Source
	filter   *Filter
	enricher ports.Enricher
	sinks    []ports.RecordSink
	tracer   ports.Tracer
	logger   *slog.Logger
}

// Result summarises one run.
type Result struct {
	Examined     int
	Accepted     int
	LimitReached bool
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:   deps.Source,
		filter:   deps.Filter,
		enricher: deps.Enricher,
		sinks:    deps.Sinks,
		tracer:   deps.Tracer,
		logger:   deps.Logger,
	}
}

// Run pulls records from the source until it is exhausted or the result limit
// is reached, handing every accepted record to the sinks. Sink errors abort the run.
func (p *Pipeline) Run(ctx context.Context, req scanner.Request, criteria domain.FilterCriteria) (Result, error) {
	var res Result
	if p.source == nil {
		return res, errors.New("pipeline source is not configured")
	}
	if err := criteria.Validate(); err != nil {
		return res, fmt.Errorf("invalid criteria: %w", err)
	}
	if criteria.LimitReached(0) {
		res.LimitReached = true
		return res, nil
	}

	p.info("pipeline start", "source", p.source.Name(), "keyword", criteria.Keyword)

	records, err := p.source.Produce(ctx, req)
	if err != nil {
		return res, fmt.Errorf("produce %s: %w", p.source.Name(), err)
	}

	for record := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		res.Examined++
		verdict := p.filter.Evaluate(ctx, record, criteria)
		if p.tracer != nil {
			p.tracer.Trace(res.Examined, record, verdict)
		}

		if verdict.Accepted {
			if p.enricher != nil {
				p.enricher.Enrich(ctx, record)
			}
			for _, sink := range p.sinks {
				if err := sink.Accept(record); err != nil {
					return res, fmt.Errorf("sink record %s: %w", record.Identifier, err)
				}
			}
			res.Accepted++
		}

		if criteria.LimitReached(res.Examined) {
			res.LimitReached = true
			p.info("search limit reached", "limit", criteria.ResultLimit)
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	p.info("pipeline done", "examined", res.Examined, "accepted", res.Accepted)
	return res, nil
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
