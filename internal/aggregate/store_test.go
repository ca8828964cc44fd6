package aggregate

import (
	"fmt"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"factories-generator/internal/symbols"
)

const fooKey = "example.com/app/spi.IFoo"

func TestStore_PutAndQuery(t *testing.T) {
	s := New()
	require.True(t, s.IsEmpty(symbols.TargetStandard))
	require.True(t, s.IsEmpty(symbols.TargetAOT))

	s.Put(symbols.TargetStandard, fooKey, Implementor{Name: "example.com/app.B", File: "/src/b.go"})
	s.Put(symbols.TargetStandard, fooKey, Implementor{Name: "example.com/app.A", File: "/src/a.go"})
	s.Put(symbols.TargetStandard, "example.com/app/spi.IBar", Implementor{Name: "example.com/app.A", File: "/src/a.go"})

	assert.False(t, s.IsEmpty(symbols.TargetStandard))
	assert.True(t, s.IsEmpty(symbols.TargetAOT))
	assert.Equal(t, 3, s.Len(symbols.TargetStandard))
	assert.Equal(t, []string{"example.com/app/spi.IBar", fooKey}, s.Keys(symbols.TargetStandard))
	assert.Equal(t, []string{"example.com/app.A", "example.com/app.B"}, s.Values(symbols.TargetStandard, fooKey))
	assert.Equal(t, []string{"/src/a.go", "/src/b.go"}, s.Sources(symbols.TargetStandard))
	assert.Empty(t, s.Values(symbols.TargetStandard, "missing"))
}

func TestStore_DuplicatePutIsIdempotent(t *testing.T) {
	s := New()

	for range 5 {
		s.Put(symbols.TargetAOT, fooKey, Implementor{Name: "example.com/app.C", File: "/src/c.go"})
	}

	assert.Equal(t, 1, s.Len(symbols.TargetAOT))
	assert.Equal(t, []string{"example.com/app.C"}, s.Values(symbols.TargetAOT, fooKey))
}

func TestStore_SameNameFromTwoFilesKeepsBothSources(t *testing.T) {
	s := New()
	s.Put(symbols.TargetStandard, fooKey, Implementor{Name: "example.com/app.A", File: "/src/a.go"})
	s.Put(symbols.TargetStandard, fooKey, Implementor{Name: "example.com/app.A", File: "/src/a_gen.go"})

	assert.Equal(t, []string{"example.com/app.A"}, s.Values(symbols.TargetStandard, fooKey))
	assert.Equal(t, []string{"/src/a.go", "/src/a_gen.go"}, s.Sources(symbols.TargetStandard))
}

func TestStore_ClearIsPerTarget(t *testing.T) {
	s := New()
	s.Put(symbols.TargetStandard, fooKey, Implementor{Name: "A"})
	s.Put(symbols.TargetAOT, fooKey, Implementor{Name: "C"})

	s.Clear(symbols.TargetStandard)

	assert.True(t, s.IsEmpty(symbols.TargetStandard))
	assert.False(t, s.IsEmpty(symbols.TargetAOT))
	assert.Empty(t, s.Sources(symbols.TargetStandard))
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := New()
	s.Put(symbols.TargetStandard, fooKey, Implementor{Name: "B"})
	s.Put(symbols.TargetStandard, fooKey, Implementor{Name: "A"})

	snap := s.Snapshot(symbols.TargetStandard)
	assert.Equal(t, map[string][]string{fooKey: {"A", "B"}}, snap)

	s.Clear(symbols.TargetStandard)
	assert.Len(t, snap[fooKey], 2)
}

func TestStore_ConcurrentPut(t *testing.T) {
	s := New()

	const workers, perWorker = 16, 50

	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			for i := range perWorker {
				target := symbols.TargetStandard
				if i%2 == 1 {
					target = symbols.TargetAOT
				}

				// Every worker writes the same names, so the result must be deduplicated.
				s.Put(target, fooKey, Implementor{
					Name: fmt.Sprintf("example.com/app.Impl%03d", i),
					File: fmt.Sprintf("/src/worker%d.go", w),
				})
			}

			return nil
		})
	}

	require.NoError(t, g.Wait())

	assert.Equal(t, perWorker/2, s.Len(symbols.TargetStandard), spew.Sdump(s.Snapshot(symbols.TargetStandard)))
	assert.Equal(t, perWorker/2, s.Len(symbols.TargetAOT), spew.Sdump(s.Snapshot(symbols.TargetAOT)))
	assert.Len(t, s.Sources(symbols.TargetStandard), workers)
}
