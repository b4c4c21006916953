package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jengzang/densitymap-backend-go/internal/density"
	"github.com/jengzang/densitymap-backend-go/internal/service"
)

const sampleJSON = `{
	"x": [0, 1000, 2000, 3000, 4000],
	"y": [0, 4000, 1000, 3000, 2000],
	"outcome_values": [10, 20, 30, 40, 90]
}`

func newTestService() *service.DensityService {
	engine := density.NewEngine(density.Config{Workers: 2}, zap.NewNop())
	return service.NewDensityService(engine, nil, nil, zap.NewNop())
}

func TestRunCompute(t *testing.T) {
	var out bytes.Buffer
	co := &computeOptions{bandwidth: 20, trueValue: "50"}

	err := runCompute(context.Background(), newTestService(), co, strings.NewReader(sampleJSON), &out)
	require.NoError(t, err)

	var records []density.PixelRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	require.Len(t, records, density.DefaultResolution*density.DefaultResolution)

	var maxCorrected float64
	for _, r := range records {
		maxCorrected = max(maxCorrected, r.CorrectedDensity)
	}
	// one sample exceeds 50
	assert.Equal(t, 1.0, maxCorrected)
}

func TestRunComputeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "x,y"},
		{"missing outcomes", `{"x": [1], "y": [1]}`},
		{"null coordinate", `{"x": [null], "y": [1], "outcome_values": [1]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			co := &computeOptions{bandwidth: 20, trueValue: "50"}
			err := runCompute(context.Background(), newTestService(), co, strings.NewReader(tt.input), &out)
			assert.Error(t, err)
			assert.Zero(t, out.Len())
		})
	}
}

func TestComputeCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "samples.json")
	output := filepath.Join(dir, "map.json")
	require.NoError(t, os.WriteFile(input, []byte(sampleJSON), 0o644))

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"compute", "--input", input, "--output", output, "--bandwidth", "19", "--true-value", "35", "--log-level", "error"})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var records []density.PixelRecord
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, density.DefaultResolution*density.DefaultResolution)
}

func TestComputeCommandStdio(t *testing.T) {
	var stdout bytes.Buffer

	cmd := NewRootCommand()
	cmd.SetIn(strings.NewReader(sampleJSON))
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"compute", "-i", "-", "--log-level", "error"})
	require.NoError(t, cmd.Execute())

	var records []density.PixelRecord
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &records))
	assert.Len(t, records, density.DefaultResolution*density.DefaultResolution)
}

func TestComputeCommandRequiresInput(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"compute"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "compute")
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}
