package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/itsJohnCnstn/httpcall/packages/client"
	"github.com/itsJohnCnstn/httpcall/packages/probe"
	"github.com/itsJohnCnstn/httpcall/packages/redirect"
)

var (
	probeRateFlag        float64
	probeDurationFlag    string
	probeCountFlag       int
	probeConcurrencyFlag int
	probeMethodFlag      string
	probeTimeoutFlag     string
	probeRedirectFlag    string
	probeNoColorFlag     bool
)

var probeCmd = &cobra.Command{
	Use:   "probe <url>",
	Short: "Fire repeated requests at a URL and report latency percentiles",
	Long: `Issue a stream of requests against a single URL and report latency
percentiles, throughput, and how many requests timed out.

Either --count or --duration must be set; when both are set the run
stops at whichever limit is hit first.

Examples:
  httpcall probe https://api.example.com/health --count 100
  httpcall probe https://api.example.com/health --duration 30s --rate 50
  httpcall probe https://api.example.com/health --count 500 --concurrency 25 --timeout 2s`,
	Args: cobra.ExactArgs(1),
	RunE: probeCommand,
}

func init() {
	probeCmd.Flags().Float64VarP(&probeRateFlag, "rate", "r", 0, "Requests per second (0 = unthrottled)")
	probeCmd.Flags().StringVarP(&probeDurationFlag, "duration", "d", "", "How long to keep probing (e.g. 30s)")
	probeCmd.Flags().IntVarP(&probeCountFlag, "count", "n", 0, "Total number of requests to issue")
	probeCmd.Flags().IntVarP(&probeConcurrencyFlag, "concurrency", "c", 10, "Maximum in-flight requests")
	probeCmd.Flags().StringVarP(&probeMethodFlag, "method", "X", "GET", "HTTP method for each request")
	probeCmd.Flags().StringVar(&probeTimeoutFlag, "timeout", "", "Total budget per request (e.g. 2s)")
	probeCmd.Flags().StringVar(&probeRedirectFlag, "redirect", "", "Redirect policy: strict, lax, or none")
	probeCmd.Flags().BoolVar(&probeNoColorFlag, "no-color", false, "Disable colored output")
}

func probeCommand(cmd *cobra.Command, args []string) error {
	target := args[0]
	if err := client.ValidateURL(target); err != nil {
		return err
	}

	var duration time.Duration
	if probeDurationFlag != "" {
		var err error
		duration, err = time.ParseDuration(probeDurationFlag)
		if err != nil {
			return fmt.Errorf("invalid --duration value %q: %w", probeDurationFlag, err)
		}
	}
	if probeCountFlag <= 0 && duration <= 0 {
		return fmt.Errorf("set --count or --duration to bound the run")
	}

	var opts []client.ClientOption
	if probeTimeoutFlag != "" {
		d, err := time.ParseDuration(probeTimeoutFlag)
		if err != nil {
			return fmt.Errorf("invalid --timeout value %q: %w", probeTimeoutFlag, err)
		}
		opts = append(opts, client.WithTotalTimeout(d))
	}
	if probeRedirectFlag != "" {
		switch probeRedirectFlag {
		case "strict", "lax", "none":
			opts = append(opts, client.WithRedirectPolicy(redirect.ByName(probeRedirectFlag)))
		default:
			return fmt.Errorf("invalid --redirect value %q (want strict, lax, or none)", probeRedirectFlag)
		}
	}

	config := &probe.Config{
		Rate:        probeRateFlag,
		Duration:    duration,
		Count:       probeCountFlag,
		Concurrency: probeConcurrencyFlag,
	}

	reporter := probe.NewReporter(
		probe.WithWriter(cmd.OutOrStdout()),
		probe.WithNoColor(probeNoColorFlag),
	)
	runner := probe.NewRunner(config,
		probe.WithClient(client.NewClient(opts...)),
		probe.WithReporter(reporter),
	)

	reporter.Header(target, config)

	method := strings.ToUpper(probeMethodFlag)
	summary, err := runner.Run(cmd.Context(), func() *client.Request {
		return client.NewRequest(method, target)
	})
	if err != nil {
		return err
	}

	reporter.Print(summary)

	if summary.Success == 0 && summary.Total > 0 {
		os.Exit(ExitNetworkError)
	}
	return nil
}
