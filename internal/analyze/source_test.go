package analyze

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factories-generator/internal/diagnostic"
	"factories-generator/internal/emit"
	"factories-generator/internal/processor"
	"factories-generator/internal/symbols"
)

type recordingProcessor struct {
	mu     sync.Mutex
	rounds []symbols.Round
	err    error
}

func (p *recordingProcessor) Process(_ context.Context, round symbols.Round) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.rounds = append(p.rounds, round)

	return p.err
}

func TestSource_DriveRounds(t *testing.T) {
	prog, table, _ := loadCatalog(t)
	rec := &recordingProcessor{}

	src := NewSource(prog, table, SourceConfig{RoundSize: 1, Workers: 2}, nil)
	require.NoError(t, src.Drive(context.Background(), rec))

	// codec, spi (nothing to scan), starters, then the terminal round.
	require.Len(t, rec.rounds, 3)
	assert.Equal(t, 1, rec.rounds[0].Number)
	assert.Equal(t, 3, rec.rounds[1].Number)

	last := rec.rounds[2]
	assert.True(t, last.Last)
	assert.Equal(t, 4, last.Number)
	assert.Empty(t, last.Declarations)
	assert.Same(t, table, last.Symbols)
}

func TestSource_DriveStopsOnError(t *testing.T) {
	prog, table, _ := loadCatalog(t)
	rec := &recordingProcessor{err: errors.New("boom")}

	err := NewSource(prog, table, SourceConfig{RoundSize: 8, Workers: 4}, nil).Drive(context.Background(), rec)
	require.Error(t, err)

	for _, r := range rec.rounds {
		assert.False(t, r.Last, "terminal round must not be issued after a failure")
	}
}

func TestSource_EndToEnd(t *testing.T) {
	prog, err := NewLoader(LoaderConfig{}).Load(context.Background(), catalog+"/...")
	require.NoError(t, err)

	diags := diagnostic.NewCollector()
	table := NewTable(prog, TableConfig{}, nil, diags)
	mem := emit.NewMemory()
	proc := processor.New(mem, processor.WithDiagnostics(diags))

	require.NoError(t, NewSource(prog, table, SourceConfig{RoundSize: 2, Workers: 4}, nil).Drive(context.Background(), proc))
	assert.Equal(t, processor.StateFinished, proc.State())

	standard, ok := mem.Content(emit.StandardLocation)
	require.True(t, ok)
	assert.Equal(t,
		spiPath+".Codec=\\\n"+
			codecPath+".JSON,\\\n"+
			codecPath+".YAML\n"+
			"\n"+
			spiPath+".Starter=\\\n"+
			startersPath+".Logging,\\\n"+
			startersPath+".Metrics\n"+
			"\n",
		string(standard))

	aot, ok := mem.Content(emit.AOTLocation)
	require.True(t, ok)
	assert.Equal(t,
		spiPath+".Codec=\\\n"+
			codecPath+".Gob\n"+
			"\n"+
			spiPath+".Starter=\\\n"+
			startersPath+".Warmup\n"+
			"\n",
		string(aot))

	snapshot := diags.Snapshot()
	assert.Equal(t, 2, snapshot.Count(diagnostic.CodeUnresolvableProviderInterface))
	assert.Equal(t, 2, snapshot.Count(diagnostic.CodeInvalidDirective))
	assert.False(t, snapshot.HasErrors())
}
