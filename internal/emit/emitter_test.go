package emit_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"factories-generator/internal/aggregate"
	"factories-generator/internal/diagnostic"
	"factories-generator/internal/emit"
	"factories-generator/internal/emit/mocks"
	"factories-generator/internal/symbols"
)

const (
	fooKey = "example.com/app/spi.IFoo"
	barKey = "example.com/app/spi.IBar"
)

func TestRenderRecord(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		names []string
		want  string
	}{
		{
			name:  "single implementor has no continuation",
			key:   fooKey,
			names: []string{"example.com/app.A"},
			want:  fooKey + "=\\\nexample.com/app.A\n\n",
		},
		{
			name:  "every line but the last continues",
			key:   fooKey,
			names: []string{"example.com/app.A", "example.com/app.B", "example.com/app.C"},
			want: fooKey + "=\\\n" +
				"example.com/app.A,\\\n" +
				"example.com/app.B,\\\n" +
				"example.com/app.C\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(emit.RenderRecord(tt.key, tt.names)))
		})
	}
}

func TestEmitter_WritesSortedRecordsAndClears(t *testing.T) {
	store := aggregate.New()
	store.Put(symbols.TargetStandard, fooKey, aggregate.Implementor{Name: "example.com/app.B", File: "/src/b.go"})
	store.Put(symbols.TargetStandard, fooKey, aggregate.Implementor{Name: "example.com/app.A", File: "/src/a.go"})
	store.Put(symbols.TargetStandard, barKey, aggregate.Implementor{Name: "example.com/app.A", File: "/src/a.go"})

	mem := emit.NewMemory()
	res := emit.New(mem, store).Emit(emit.StandardLocation, symbols.TargetStandard)

	require.NoError(t, res.Err)
	assert.True(t, res.Written)
	assert.Equal(t, 2, res.Keys)
	assert.Equal(t, 3, res.Implementors)

	content, ok := mem.Content(emit.StandardLocation)
	require.True(t, ok)
	assert.Equal(t, barKey+"=\\\nexample.com/app.A\n\n"+
		fooKey+"=\\\nexample.com/app.A,\\\nexample.com/app.B\n\n", string(content))

	deps, ok := mem.Dependencies(emit.StandardLocation)
	require.True(t, ok)
	assert.True(t, deps.Aggregating)
	assert.Equal(t, []string{"/src/a.go", "/src/b.go"}, deps.Sources)

	assert.True(t, store.IsEmpty(symbols.TargetStandard))
}

func TestEmitter_DeterministicAcrossInsertionOrders(t *testing.T) {
	render := func(names []string) []byte {
		store := aggregate.New()
		for _, n := range names {
			store.Put(symbols.TargetStandard, fooKey, aggregate.Implementor{Name: n})
			store.Put(symbols.TargetStandard, barKey, aggregate.Implementor{Name: n})
		}

		mem := emit.NewMemory()
		emit.New(mem, store).EmitAll()
		content, _ := mem.Content(emit.StandardLocation)

		return content
	}

	a := render([]string{"x.Z", "x.A", "x.M"})
	b := render([]string{"x.M", "x.Z", "x.A"})
	assert.Equal(t, a, b)
}

func TestEmitter_EmptyAggregationCreatesNothing(t *testing.T) {
	store := aggregate.New()
	store.Put(symbols.TargetStandard, fooKey, aggregate.Implementor{Name: "example.com/app.A"})

	mem := emit.NewMemory()
	diags := diagnostic.NewCollector()
	results := emit.New(mem, store, emit.WithDiagnostics(diags)).EmitAll()

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, emit.ErrEmptyAggregation)
	assert.False(t, results[1].Written)
	assert.Equal(t, []string{emit.StandardLocation}, mem.Paths())

	snapshot := diags.Snapshot()
	assert.Equal(t, 1, snapshot.Count(diagnostic.CodeEmptyAggregation))
}

func TestEmitter_PartitionsTargets(t *testing.T) {
	store := aggregate.New()
	store.Put(symbols.TargetStandard, fooKey, aggregate.Implementor{Name: "example.com/app.A"})
	store.Put(symbols.TargetAOT, fooKey, aggregate.Implementor{Name: "example.com/app.C"})

	mem := emit.NewMemory()
	emit.New(mem, store).EmitAll()

	std, _ := mem.Content(emit.StandardLocation)
	aot, _ := mem.Content(emit.AOTLocation)
	assert.NotContains(t, string(std), "example.com/app.C")
	assert.NotContains(t, string(aot), "example.com/app.A")
	assert.Contains(t, string(aot), "example.com/app.C")
}

// recordingWriter fails writes containing failOn and remembers Close.
type recordingWriter struct {
	bytes.Buffer
	failOn   string
	closeErr error
	closed   bool
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	if w.failOn != "" && strings.Contains(string(p), w.failOn) {
		return 0, errors.New("disk full")
	}

	return w.Buffer.Write(p)
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return w.closeErr
}

type EmitterFailureSuite struct {
	suite.Suite
	ctrl  *gomock.Controller
	gen   *mocks.MockCodeGenerator
	store *aggregate.Store
	diags *diagnostic.Collector
}

func TestEmitterFailureSuite(t *testing.T) {
	suite.Run(t, new(EmitterFailureSuite))
}

func (s *EmitterFailureSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gen = mocks.NewMockCodeGenerator(s.ctrl)
	s.diags = diagnostic.NewCollector()
	s.store = aggregate.New()
	s.store.Put(symbols.TargetStandard, barKey, aggregate.Implementor{Name: "example.com/app.A", File: "/src/a.go"})
	s.store.Put(symbols.TargetStandard, fooKey, aggregate.Implementor{Name: "example.com/app.B", File: "/src/b.go"})
}

func (s *EmitterFailureSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *EmitterFailureSuite) emitter() *emit.Emitter {
	return emit.New(s.gen, s.store, emit.WithDiagnostics(s.diags))
}

func (s *EmitterFailureSuite) TestCreateFailureKeepsMap() {
	s.gen.EXPECT().
		CreateNewFile(gomock.Any(), emit.StandardLocation).
		Return(nil, errors.New("read-only file system"))

	res := s.emitter().Emit(emit.StandardLocation, symbols.TargetStandard)

	s.ErrorIs(res.Err, emit.ErrOutputWriteFailure)
	s.False(res.Written)
	s.Equal(2, s.store.Len(symbols.TargetStandard))

	snapshot := s.diags.Snapshot()
	s.Equal(1, snapshot.Count(diagnostic.CodeOutputWriteFailure))
}

func (s *EmitterFailureSuite) TestWriteFailureContinuesWithNextKey() {
	w := &recordingWriter{failOn: barKey}
	s.gen.EXPECT().
		CreateNewFile(emit.Dependencies{Aggregating: true, Sources: []string{"/src/a.go", "/src/b.go"}}, emit.StandardLocation).
		Return(w, nil)

	res := s.emitter().Emit(emit.StandardLocation, symbols.TargetStandard)

	s.ErrorIs(res.Err, emit.ErrOutputWriteFailure)
	s.Contains(res.Err.Error(), barKey)
	s.True(res.Written)
	s.Equal(1, res.Keys)
	s.Equal(fooKey+"=\\\nexample.com/app.B\n\n", w.String())
	s.True(w.closed)
	s.True(s.store.IsEmpty(symbols.TargetStandard))
}

func (s *EmitterFailureSuite) TestCloseFailureIsReported() {
	w := &recordingWriter{closeErr: errors.New("sync failed")}
	s.gen.EXPECT().CreateNewFile(gomock.Any(), gomock.Any()).Return(w, nil)

	res := s.emitter().Emit(emit.StandardLocation, symbols.TargetStandard)

	s.ErrorIs(res.Err, emit.ErrOutputWriteFailure)
	s.Equal(2, res.Keys)
	s.True(w.closed)
}
