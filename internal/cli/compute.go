package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jengzang/densitymap-backend-go/internal/models"
	"github.com/jengzang/densitymap-backend-go/internal/service"
)

// stdio selects stdin or stdout for --input and --output
const stdio = "-"

// sampleFile is the on-disk compute input. The arrays use the same encoding
// as the HTTP form fields.
type sampleFile struct {
	X             json.RawMessage `json:"x"`
	Y             json.RawMessage `json:"y"`
	OutcomeValues json.RawMessage `json:"outcome_values"`
}

type computeOptions struct {
	input     string
	output    string
	bandwidth int
	trueValue string
}

func newComputeCommand(opts *globalOptions) *cobra.Command {
	co := &computeOptions{}

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute a density map from a JSON sample file",
		Example: `  densitymap compute --input samples.json --bandwidth 20 --true-value 50
  cat samples.json | densitymap compute --input - --output map.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// keep stdout clean for the records
			cfg, logger, err := opts.load("stderr")
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			in, closeIn, err := openInput(co.input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer closeIn()

			out, err := openOutput(co.output, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			svc := service.NewDensityService(NewEngine(cfg, logger), nil, nil, logger)
			if err := runCompute(cmd.Context(), svc, co, in, out); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("failed to close output: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&co.input, "input", "i", "", "sample file, or - for stdin")
	cmd.Flags().StringVarP(&co.output, "output", "o", stdio, "output file, or - for stdout")
	cmd.Flags().IntVar(&co.bandwidth, "bandwidth", models.BandwidthOffset, "densityBandwith exponent; fudge is 10^(bandwidth-20)")
	cmd.Flags().StringVar(&co.trueValue, "true-value", "50", "positive threshold or category")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runCompute(ctx context.Context, svc *service.DensityService, co *computeOptions, in io.Reader, out io.Writer) error {
	var file sampleFile
	if err := json.NewDecoder(in).Decode(&file); err != nil {
		return fmt.Errorf("failed to decode sample file: %w", err)
	}

	form := models.DensityMapForm{
		X:               rawOrEmpty(file.X),
		Y:               rawOrEmpty(file.Y),
		OutcomeValues:   rawOrEmpty(file.OutcomeValues),
		DensityBandwith: strconv.Itoa(co.bandwidth),
		TrueValue:       co.trueValue,
	}

	records, err := svc.GenerateDensityMap(ctx, form, "cli")
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}

// rawOrEmpty maps a missing field to an empty array so it fails length
// validation rather than JSON decoding
func rawOrEmpty(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "[]"
	}
	return string(raw)
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == stdio {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func openOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == stdio {
		return nopWriteCloser{stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, nil
}
