package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

// startupParams gathers the command line options plus the loggers every
// command writes to.
type startupParams struct {
	verbose     bool
	seed        int64
	chains      int
	dims        int
	burnIn      int
	samples     int
	targetName  string
	traceFile   string
	monitorAddr string

	out   *log.Logger
	trace *log.Logger
}

// setupLoggers creates the output log and the optional trace file log.
// Returns a cleanup func for the trace file handle.
func (sp *startupParams) setupLoggers() (func(), error) {
	sp.out = log.New(os.Stdout, "", 0)

	if len(sp.traceFile) < 1 {
		sp.trace = log.New(io.Discard, "", 0)
		return func() {}, nil
	}

	fd, err := os.Create(sp.traceFile)
	if err != nil {
		return nil, err
	}
	sp.trace = log.New(fd, "", 0)
	return func() { fd.Close() }, nil
}

var sp = &startupParams{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dream",
	Short: "DiffeRential Evolution Adaptive Metropolis (DREAM) sampling",
	Long: `dream draws posterior samples from a log-probability function with a
population MCMC sampler. Among other features:

  - Differential-evolution and snooker proposals over bounded parameters
  - Crossover probabilities adapted from accepted jump distances
  - Outlier chain detection and replacement
  - Split-chain Gelman-Rubin convergence monitoring
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.PersistentFlags().BoolVarP(&sp.verbose, "verbose", "v", false, "Verbose logging (default is much more parsimonious)")
	rootCmd.PersistentFlags().Int64VarP(&sp.seed, "seed", "r", 1, "Random seed to use")
	rootCmd.PersistentFlags().StringVarP(&sp.traceFile, "trace", "t", "", "Trace file for per-generation progress records")
	rootCmd.PersistentFlags().StringVarP(&sp.monitorAddr, "monitor", "m", "", "Address for the expvar progress monitor (e.g. :8000)")

	rootCmd.AddCommand(sampleCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
