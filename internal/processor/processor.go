package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"factories-generator/internal/aggregate"
	"factories-generator/internal/diagnostic"
	"factories-generator/internal/emit"
	"factories-generator/internal/logger"
	"factories-generator/internal/metrics"
	"factories-generator/internal/resolve"
	"factories-generator/internal/symbols"
)

const tracerName = "factories-generator/processor"

// ErrFinished is returned for a scanning round that arrives after the
// terminal round was processed.
var ErrFinished = errors.New("processor already finished")

// Processor aggregates marker usages over the rounds of one build.
type Processor struct {
	store    *aggregate.Store
	resolver *resolve.Resolver
	emitter  *emit.Emitter

	logger  *logger.Logger
	diags   *diagnostic.Collector
	metrics *metrics.Metrics
	tracer  trace.Tracer
	buildID string

	// Scanning rounds hold the read lock, finalization holds the write lock.
	mu      sync.RWMutex
	state   State
	results []emit.Result
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger; the build id is added to its fields.
func WithLogger(l *logger.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithDiagnostics shares a diagnostics collector with the caller.
func WithDiagnostics(c *diagnostic.Collector) Option {
	return func(p *Processor) { p.diags = c }
}

// WithMetrics enables metrics collection.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(p *Processor) { p.tracer = t }
}

// WithBuildID overrides the generated build id.
func WithBuildID(id string) Option {
	return func(p *Processor) { p.buildID = id }
}

// New creates a Processor that writes its registries through gen.
func New(gen emit.CodeGenerator, opts ...Option) *Processor {
	p := &Processor{
		store:    aggregate.New(),
		resolver: resolve.New(),
		logger:   logger.Nop(),
		diags:    diagnostic.NewCollector(),
		tracer:   otel.Tracer(tracerName),
		buildID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.logger = p.logger.With("build", p.buildID)

	emitOpts := []emit.Option{emit.WithLogger(p.logger), emit.WithDiagnostics(p.diags)}
	if p.metrics != nil {
		emitOpts = append(emitOpts, emit.WithMetrics(p.metrics))
	}
	p.emitter = emit.New(gen, p.store, emitOpts...)

	return p
}

// BuildID identifies this build in logs and spans.
func (p *Processor) BuildID() string {
	return p.buildID
}

// State returns the current lifecycle state.
func (p *Processor) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.state
}

// Results returns the emission results of the terminal round.
func (p *Processor) Results() []emit.Result {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]emit.Result(nil), p.results...)
}

// Diagnostics returns everything reported so far.
func (p *Processor) Diagnostics() diagnostic.Diagnostics {
	return p.diags.Snapshot()
}

// Process handles one round. Scanning rounds may be processed concurrently.
// The terminal round waits for running scans, scans its own declarations and
// then emits both registries. If a registry cannot be created the processor
// stays in StateFinalizing and a later terminal round emits it again.
func (p *Processor) Process(ctx context.Context, round symbols.Round) error {
	ctx, span := p.tracer.Start(ctx, "factories.round", trace.WithAttributes(
		attribute.String("build.id", p.buildID),
		attribute.Int("round.number", round.Number),
		attribute.Int("round.declarations", len(round.Declarations)),
		attribute.Bool("round.last", round.Last),
	))
	defer span.End()

	if p.metrics != nil {
		p.metrics.Rounds.Inc()
	}

	var err error
	if round.Last {
		err = p.finish(ctx, round)
	} else {
		err = p.scanRound(ctx, round)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}

func (p *Processor) scanRound(ctx context.Context, round symbols.Round) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state != StateScanning {
		return fmt.Errorf("round %d: %w", round.Number, ErrFinished)
	}

	return p.scan(ctx, round)
}

func (p *Processor) finish(ctx context.Context, round symbols.Round) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateFinished {
		if len(round.Declarations) > 0 {
			p.logger.Warn("ignoring declarations of a terminal round after finish",
				"round", round.Number, "declarations", len(round.Declarations))
		}

		return nil
	}

	if err := p.scan(ctx, round); err != nil {
		return err
	}

	p.state = StateFinalizing
	p.logger.Debug("finalizing", "round", round.Number)

	_, span := p.tracer.Start(ctx, "factories.emit")
	results := p.emitter.EmitAll()
	for _, res := range results {
		if res.Err != nil && !errors.Is(res.Err, emit.ErrEmptyAggregation) {
			span.RecordError(res.Err)
		}
	}
	span.End()

	p.results = mergeResults(p.results, results)

	// A registry that could not be created keeps its map; the next terminal
	// round emits it again.
	if pending := pendingTargets(results); len(pending) > 0 {
		p.logger.Warn("registries not created, waiting for another terminal round",
			"round", round.Number, "targets", pending)

		return nil
	}

	p.state = StateFinished

	return nil
}

// pendingTargets lists the targets whose artifact could not be created.
func pendingTargets(results []emit.Result) []string {
	var pending []string
	for _, res := range results {
		if !res.Written && errors.Is(res.Err, emit.ErrOutputWriteFailure) {
			pending = append(pending, res.Target.String())
		}
	}

	return pending
}

// mergeResults keeps the results of registries already written by an earlier
// attempt; a retry only reports them as empty.
func mergeResults(prev, next []emit.Result) []emit.Result {
	if len(prev) != len(next) {
		return next
	}

	merged := make([]emit.Result, len(next))
	for i := range next {
		merged[i] = next[i]
		if prev[i].Written {
			merged[i] = prev[i]
		}
	}

	return merged
}

// scan records every marker usage of the round's declarations. The caller
// holds p.mu.
func (p *Processor) scan(ctx context.Context, round symbols.Round) error {
	for _, decl := range round.Declarations {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.scanDeclaration(round.Symbols, decl)
	}

	return nil
}

func (p *Processor) scanDeclaration(table symbols.SymbolTable, decl symbols.Declaration) {
	name := table.CanonicalName(decl)
	resource := decl.Pos.String()

	if p.metrics != nil {
		p.metrics.DeclarationsScanned.Inc()
	}

	usages, err := table.Arguments(decl)
	if err != nil {
		p.logger.Info("skipping marker usage", "declaration", name, "position", resource, "error", err)
		p.diags.Info(diagnostic.CodeInvalidDirective, err.Error(), name, resource)
	}

	for _, args := range usages {
		key, err := p.resolver.Resolve(table, decl, args)
		if err != nil {
			p.logger.Info("skipping declaration", "declaration", name, "position", resource, "error", err)
			p.diags.Info(diagnostic.CodeUnresolvableProviderInterface, err.Error(), name, resource)

			if p.metrics != nil {
				p.metrics.Unresolvable.Inc()
			}

			continue
		}

		target := args.Target()
		p.store.Put(target, key, aggregate.Implementor{Name: name, File: decl.File})
		p.logger.Debug("registered implementor", "key", key, "implementor", name, "target", target)

		if p.metrics != nil {
			p.metrics.ImplementorsRegistered.WithLabelValues(target.String()).Inc()
		}
	}
}
