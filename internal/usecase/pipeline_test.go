package usecase

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/ports"
	"CommunityScanner/internal/scanner"
)

type sliceSource struct {
	records []*domain.CommunityRecord
	err     error
	pulled  int
}

func (s *sliceSource) Name() string { return "fake" }

func (s *sliceSource) Produce(context.Context, scanner.Request) (iter.Seq[*domain.CommunityRecord], error) {
	if s.err != nil {
		return nil, s.err
	}
	return func(yield func(*domain.CommunityRecord) bool) {
		for _, r := range s.records {
			s.pulled++
			if !yield(r) {
				return
			}
		}
	}, nil
}

type traceLog struct {
	verdicts []domain.Verdict
}

func (t *traceLog) Trace(_ int, _ *domain.CommunityRecord, v domain.Verdict) {
	t.verdicts = append(t.verdicts, v)
}

type enricherFunc func(context.Context, *domain.CommunityRecord)

func (f enricherFunc) Enrich(ctx context.Context, r *domain.CommunityRecord) { f(ctx, r) }

type failingSink struct{}

func (failingSink) Accept(*domain.CommunityRecord) error { return errors.New("disk full") }

func TestPipelineGamingScenario(t *testing.T) {
	t.Parallel()

	source := &sliceSource{records: []*domain.CommunityRecord{
		sized("small", "gaming lounge", 500),
		sized("mid", "Gaming Central", 2000),
		sized("big", "retro gaming", 5000),
	}}
	collector := &Collector{}
	trace := &traceLog{}

	p := NewPipeline(PipelineDeps{
		Source: source,
		Filter: sizeFilter(),
		Sinks:  []ports.RecordSink{collector},
		Tracer: trace,
	})

	criteria := domain.DefaultCriteria("gaming")
	criteria.MinSize = 1000

	res, err := p.Run(context.Background(), scanner.Request{}, criteria)
	require.NoError(t, err)
	assert.Equal(t, Result{Examined: 3, Accepted: 2}, res)

	var sizes []int
	for _, r := range collector.Records {
		n, _ := r.SizeValue()
		sizes = append(sizes, n)
	}
	assert.Equal(t, []int{2000, 5000}, sizes)
	require.Len(t, trace.verdicts, 3)
	assert.Equal(t, "min_size", trace.verdicts[0].Check)
}

func TestPipelineEnrichmentFailureStillExports(t *testing.T) {
	t.Parallel()

	source := &sliceSource{records: []*domain.CommunityRecord{sized("golang", "go", 100)}}
	collector := &Collector{}
	failed := enricherFunc(func(context.Context, *domain.CommunityRecord) {})
	tagged := enricherFunc(func(_ context.Context, r *domain.CommunityRecord) { r.SetExtra("rules", "be kind") })

	p := NewPipeline(PipelineDeps{
		Source:   source,
		Filter:   sizeFilter(),
		Enricher: EnricherChain{failed, nil, tagged},
		Sinks:    []ports.RecordSink{collector},
	})

	res, err := p.Run(context.Background(), scanner.Request{}, domain.DefaultCriteria("go"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Accepted)

	want := []*domain.CommunityRecord{{
		Identifier: "golang",
		Title:      "go",
		Size:       domain.Count(100),
		Extra:      map[string]string{"rules": "be kind"},
	}}
	if diff := cmp.Diff(want, collector.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, domain.OnlineRatio(collector.Records[0]))
}

func TestPipelineResultLimitCapsExamined(t *testing.T) {
	t.Parallel()

	var records []*domain.CommunityRecord
	for i := 0; i < 10; i++ {
		records = append(records, sized(string(rune('a'+i)), "x", i))
	}
	source := &sliceSource{records: records}
	collector := &Collector{}

	p := NewPipeline(PipelineDeps{Source: source, Filter: sizeFilter(), Sinks: []ports.RecordSink{collector}})

	criteria := domain.DefaultCriteria("")
	criteria.ResultLimit = 4
	criteria.MinSize = 2

	res, err := p.Run(context.Background(), scanner.Request{}, criteria)
	require.NoError(t, err)
	assert.Equal(t, Result{Examined: 4, Accepted: 2, LimitReached: true}, res)
	assert.Equal(t, 4, source.pulled)

	criteria.ResultLimit = 0
	res, err = p.Run(context.Background(), scanner.Request{}, criteria)
	require.NoError(t, err)
	assert.Zero(t, res.Examined)
}

func TestPipelineErrors(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline(PipelineDeps{}).Run(context.Background(), scanner.Request{}, domain.DefaultCriteria(""))
	require.Error(t, err)

	boom := errors.New("browser missing")
	_, err = NewPipeline(PipelineDeps{Source: &sliceSource{err: boom}}).Run(context.Background(), scanner.Request{}, domain.DefaultCriteria(""))
	require.ErrorIs(t, err, boom)

	bad := domain.DefaultCriteria("")
	bad.MinSize = -5
	_, err = NewPipeline(PipelineDeps{Source: &sliceSource{}}).Run(context.Background(), scanner.Request{}, bad)
	require.Error(t, err)

	p := NewPipeline(PipelineDeps{
		Source: &sliceSource{records: []*domain.CommunityRecord{sized("a", "a", 1), sized("b", "b", 1)}},
		Sinks:  []ports.RecordSink{failingSink{}},
	})
	res, err := p.Run(context.Background(), scanner.Request{}, domain.DefaultCriteria(""))
	require.Error(t, err)
	assert.Equal(t, 1, res.Examined)
	assert.Zero(t, res.Accepted)
}

func TestPipelineCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &sliceSource{records: []*domain.CommunityRecord{sized("a", "a", 1)}}
	_, err := NewPipeline(PipelineDeps{Source: source}).Run(ctx, scanner.Request{}, domain.DefaultCriteria(""))
	require.ErrorIs(t, err, context.Canceled)
}
