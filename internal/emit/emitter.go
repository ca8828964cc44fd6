package emit

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"

	"factories-generator/internal/aggregate"
	"factories-generator/internal/diagnostic"
	"factories-generator/internal/logger"
	"factories-generator/internal/metrics"
	"factories-generator/internal/symbols"
)

// Output locations, relative to the generated-resources root.
const (
	StandardLocation = "META-INF/spring.factories"
	AOTLocation      = "META-INF/spring/aot.factories"
)

var (
	// ErrOutputWriteFailure marks a failure to create or write an artifact.
	ErrOutputWriteFailure = errors.New("output write failure")
	// ErrEmptyAggregation is reported when a target has nothing to write.
	ErrEmptyAggregation = errors.New("empty aggregation")
)

// Result describes the emission of one location.
type Result struct {
	Location     string
	Target       symbols.Target
	Written      bool // the artifact was created
	Keys         int  // records written successfully
	Implementors int  // implementor lines in those records
	Err          error
}

// Emitter writes the aggregated maps of a Store through a CodeGenerator.
type Emitter struct {
	gen     CodeGenerator
	store   *aggregate.Store
	logger  *logger.Logger
	diags   *diagnostic.Collector
	metrics *metrics.Metrics
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithLogger sets the logger used for progress and failures.
func WithLogger(l *logger.Logger) Option {
	return func(e *Emitter) { e.logger = l }
}

// WithDiagnostics sets the collector failures are reported to.
func WithDiagnostics(c *diagnostic.Collector) Option {
	return func(e *Emitter) { e.diags = c }
}

// WithMetrics enables counting of written files and failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Emitter) { e.metrics = m }
}

// New creates an Emitter for store writing through gen.
func New(gen CodeGenerator, store *aggregate.Store, opts ...Option) *Emitter {
	e := &Emitter{
		gen:    gen,
		store:  store,
		logger: logger.Nop(),
		diags:  diagnostic.NewCollector(),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// EmitAll emits the standard and the AOT registry, in that order.
func (e *Emitter) EmitAll() []Result {
	return []Result{
		e.Emit(StandardLocation, symbols.TargetStandard),
		e.Emit(AOTLocation, symbols.TargetAOT),
	}
}

// Emit writes the map of target to location and clears it. An empty map
// produces no artifact. If the artifact cannot be created the map is kept.
// Failures to write single records are logged and do not stop the others.
func (e *Emitter) Emit(location string, target symbols.Target) Result {
	res := Result{Location: location, Target: target}

	if e.store.IsEmpty(target) {
		e.logger.Debug("nothing to write", "resource", location, "target", target)
		e.diags.Info(diagnostic.CodeEmptyAggregation, "no implementors registered", target.String(), location)
		res.Err = ErrEmptyAggregation

		return res
	}

	if e.logger.DebugEnabled() {
		e.logger.Debug("aggregated implementors", "resource", location, "dump", spew.Sdump(e.store.Snapshot(target)))
	}

	deps := Dependencies{Aggregating: true, Sources: e.store.Sources(target)}

	w, err := e.gen.CreateNewFile(deps, location)
	if err != nil {
		e.failure(location, "", err)
		res.Err = fmt.Errorf("%w: creating %s: %w", ErrOutputWriteFailure, location, err)

		return res
	}

	res.Written = true
	res.Err = e.write(w, location, target, &res)
	e.store.Clear(target)

	if e.metrics != nil {
		e.metrics.FilesWritten.WithLabelValues(location).Inc()
	}

	e.logger.Info("registry written", "resource", location, "keys", res.Keys, "implementors", res.Implementors)

	return res
}

// write renders every key of target into w and always closes w.
func (e *Emitter) write(w io.WriteCloser, location string, target symbols.Target, res *Result) (err error) {
	var errs []error

	defer func() {
		if cerr := w.Close(); cerr != nil {
			e.failure(location, "", cerr)
			errs = append(errs, fmt.Errorf("%w: closing %s: %w", ErrOutputWriteFailure, location, cerr))
		}

		err = errors.Join(errs...)
	}()

	for _, key := range e.store.Keys(target) {
		names := e.store.Values(target, key)
		e.logger.Info("working on resource file", "resource", location, "key", key)

		if _, werr := w.Write(RenderRecord(key, names)); werr != nil {
			e.failure(location, key, werr)
			errs = append(errs, fmt.Errorf("%w: %s key %s: %w", ErrOutputWriteFailure, location, key, werr))

			continue
		}

		res.Keys++
		res.Implementors += len(names)
	}

	return nil
}

func (e *Emitter) failure(location, key string, err error) {
	e.logger.Error("unable to write resource", "resource", location, "key", key, "error", err)
	e.diags.Error(diagnostic.CodeOutputWriteFailure, err.Error(), key, location)

	if e.metrics != nil {
		e.metrics.WriteFailures.WithLabelValues(location).Inc()
	}
}

// RenderRecord renders one registry record:
//
//	key=\
//	name1,\
//	name2
//
// followed by a blank line. names must already be sorted.
func RenderRecord(key string, names []string) []byte {
	var buf bytes.Buffer

	buf.WriteString(key)
	buf.WriteString("=\\\n")

	for i, name := range names {
		buf.WriteString(name)
		if i < len(names)-1 {
			buf.WriteString(",\\")
		}
		buf.WriteByte('\n')
	}

	buf.WriteByte('\n')

	return buf.Bytes()
}
