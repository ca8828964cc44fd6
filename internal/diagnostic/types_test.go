package diagnostic

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnostics_AddAndQuery(t *testing.T) {
	var d Diagnostics

	assert.True(t, d.IsValid())
	require.NoError(t, d.Error())

	d.AddInfo(CodeUnresolvableProviderInterface, "no interface", "example.com/app.A", "")
	d.AddWarning(CodeEmptyAggregation, "nothing to write", "", "META-INF/spring/aot.factories")
	d.AddError(CodeOutputWriteFailure, "disk full", "", "META-INF/spring.factories")

	assert.True(t, d.HasErrors())
	assert.False(t, d.IsValid())
	assert.Equal(t, 1, d.Count(CodeOutputWriteFailure))
	assert.Equal(t, 0, d.Count(CodeInvalidDirective))
	assert.EqualError(t, d.Error(), "[META-INF/spring.factories]: [OutputWriteFailure] disk full")
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{Code: CodeUnresolvableProviderInterface, Message: "ambiguous", Subject: "example.com/app.A"}
	assert.Equal(t, "example.com/app.A: [UnresolvableProviderInterface] ambiguous", d.String())

	assert.Equal(t, "plain", Diagnostic{Message: "plain"}.String())
}

func TestDiagnosticSeverity_String(t *testing.T) {
	assert.Equal(t, "info", DiagnosticInfo.String())
	assert.Equal(t, "warning", DiagnosticWarning.String())
	assert.Equal(t, "error", DiagnosticError.String())
	assert.Equal(t, "unknown", DiagnosticSeverity(9).String())
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			c.Info(CodeInvalidDirective, "bad", "x", "")
		}()
	}

	wg.Wait()
	c.Error(CodeOutputWriteFailure, "boom", "", "out")

	snap := c.Snapshot()
	assert.Len(t, snap.Infos, 20)
	assert.Len(t, snap.Errors, 1)
}
