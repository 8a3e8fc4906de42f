package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Scenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRenderTrace(t *testing.T) {
	trace := []TraceEvent{
		{Seq: 1, Type: EventOut, Kind: "SYNC", Message: []byte{3, 17, 2}},
		{Seq: 2, Type: EventApply, Object: "Cube", Param: "Label", Value: `"x"`},
	}

	got := string(RenderTrace("demo", trace))
	assert.Equal(t, "scenario: demo\n[1] out SYNC client=3 time=17\n[2] apply Cube/Label \"x\"\n", got)
}
