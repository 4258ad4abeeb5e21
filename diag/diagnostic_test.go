package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/svlsp/svlsp/source"
)

func TestSeverityOrdering(t *testing.T) {
	assert.True(t, SeverityError > SeverityWarning)
	assert.True(t, SeverityWarning > SeverityNote)
	assert.True(t, SeverityFatal > SeverityError)
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "fatal", SeverityFatal.String())
}

func TestCollectorSnapshotDeterministic(t *testing.T) {
	c := NewCollector()
	c.Addf(CodeUnknownModule, SeverityError, source.Range{Buffer: 2, Start: 5, End: 8}, "unknown module 'x'")
	c.Addf(CodeExpectedToken, SeverityError, source.Range{Buffer: 1, Start: 10, End: 11}, "expected ';'")
	c.Addf(CodeUnexpectedToken, SeverityError, source.Range{Buffer: 1, Start: 3, End: 4}, "unexpected 'endmodule'")

	first := c.Snapshot()
	second := c.Snapshot()
	assert.Equal(t, first, second, "snapshots of unchanged collector are byte-equal")

	assert.Equal(t, source.BufferID(1), first[0].Range.Buffer)
	assert.Equal(t, 3, first[0].Range.Start)
	assert.Equal(t, source.BufferID(2), first[2].Range.Buffer)
}

func TestCollectorLen(t *testing.T) {
	c := NewCollector()
	assert.Equal(t, 0, c.Len())
	c.Add(Diagnostic{Code: CodeInfoTask, Severity: SeverityNote})
	assert.Equal(t, 1, c.Len())
}
