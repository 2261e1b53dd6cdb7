package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/gdlinear/datasets"
	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"github.com/YuminosukeSato/gdlinear/pkg/log"
)

func synthCmd(a *app) *cobra.Command {
	var (
		samples int
		beta    []float64
		noise   float64
		seed    uint64
		out     string
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic linear dataset as CSV",
		Long: `Write n samples of y = β0 + Σ βj·xj + ε as CSV, with features uniform on [-1, 1)
and Gaussian noise. --beta lists the intercept first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ds, err := datasets.MakeRegression(samples, beta, noise, seed)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrap(err, "failed to create output file")
				}
				defer func() {
					if cerr := f.Close(); err == nil {
						err = cerr
					}
				}()
				w = f
			}

			if err := datasets.WriteCSV(w, ds); err != nil {
				return err
			}
			a.logger.Info("Synthetic dataset written",
				log.SamplesKey, samples,
				log.FeaturesKey, len(beta)-1,
				log.SourceKey, out,
				log.RandomSeedKey, seed,
			)
			return nil
		},
	}

	cmd.Flags().IntVarP(&samples, "samples", "n", 200, "number of samples")
	cmd.Flags().Float64SliceVar(&beta, "beta", []float64{1, 2}, "true coefficients, intercept first")
	cmd.Flags().Float64Var(&noise, "noise", 0.1, "standard deviation of the Gaussian noise")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
