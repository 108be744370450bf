package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/itsJohnCnstn/httpcall/packages/client"
	"github.com/itsJohnCnstn/httpcall/packages/config"
	"github.com/itsJohnCnstn/httpcall/packages/history"
	"github.com/itsJohnCnstn/httpcall/packages/inspect"
	"github.com/itsJohnCnstn/httpcall/packages/output"
	"github.com/itsJohnCnstn/httpcall/packages/redirect"
)

var sendCmd = &cobra.Command{
	Use:   "send <METHOD> <url>",
	Short: "Issue a single HTTP request",
	Long: `Issue a single HTTP request and print the response.

Examples:
  httpcall send GET https://api.example.com/users
  httpcall send POST https://api.example.com/users -d '{"name":"ada"}' --content-type application/json
  httpcall send POST https://upload.example.com -F file=@report.pdf -F note="quarterly numbers"
  httpcall send POST https://t.example/shortlink --redirect lax
  httpcall send GET https://t.example/shortlink --redirect none -v
  httpcall send GET https://api.example.com/users/1 --extract user.name
  httpcall send GET https://api.example.com/users/1 --schema user.schema.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSend(cmd, strings.ToUpper(args[0]), args[1])
	},
}

var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Issue a GET request (shorthand for send GET)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSend(cmd, "GET", args[0])
	},
}

var postCmd = &cobra.Command{
	Use:   "post <url>",
	Short: "Issue a POST request (shorthand for send POST)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSend(cmd, "POST", args[0])
	},
}

var (
	headerFlags           []string
	dataFlag              string
	contentTypeFlag       string
	formFlags             []string
	connectTimeoutFlag    string
	inactivityTimeoutFlag string
	timeoutFlag           string
	redirectFlag          string
	maxRedirectsFlag      int
	userAgentFlag         string
	proxyFlag             string
	insecureFlag          bool
	extractFlag           string
	schemaFlag            string
	failFlag              bool
	sendVerboseFlag       bool
	jsonFlag              bool
	noColorFlag           bool
	configFlag            string
	historyDBFlag         string
	noHistoryFlag         bool
)

func init() {
	for _, c := range []*cobra.Command{sendCmd, getCmd, postCmd} {
		addSendFlags(c)
	}
}

func addSendFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	f.StringArrayVarP(&headerFlags, "header", "H", nil, `Request header ("Name: value"), repeatable`)
	f.StringVarP(&dataFlag, "data", "d", "", "Request body (@file reads the body from a file)")
	f.StringVar(&contentTypeFlag, "content-type", "", "Content type of the request body")
	f.StringArrayVarP(&formFlags, "form", "F", nil, "Multipart field (name=value or name=@file), repeatable")

	f.StringVar(&connectTimeoutFlag, "connect-timeout", "", "Budget for connection establishment (e.g. 5s)")
	f.StringVar(&inactivityTimeoutFlag, "inactivity-timeout", "", "Budget between two received data chunks (e.g. 10s)")
	f.StringVar(&timeoutFlag, "timeout", "", "Total budget for the whole call (e.g. 30s)")

	f.StringVar(&redirectFlag, "redirect", "", "Redirect policy: strict, lax, or none")
	f.IntVar(&maxRedirectsFlag, "max-redirects", 0, "Maximum number of redirects to follow")

	f.StringVarP(&userAgentFlag, "user-agent", "A", "", "User-Agent header value")
	f.StringVar(&proxyFlag, "proxy", "", "Proxy URL for the request")
	f.BoolVarP(&insecureFlag, "insecure", "k", false, "Skip TLS certificate validation")

	f.StringVar(&extractFlag, "extract", "", "Print only the value at this gjson path")
	f.StringVar(&schemaFlag, "schema", "", "Validate the JSON body against this schema file")
	f.BoolVarP(&failFlag, "fail", "f", false, "Exit non-zero when the status is 400 or higher")

	f.BoolVarP(&sendVerboseFlag, "verbose", "v", false, "Print response headers")
	f.BoolVar(&jsonFlag, "json", false, "Print the response as a JSON document")
	f.BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
	f.StringVar(&configFlag, "config", "", "Path to config file")
	f.StringVar(&historyDBFlag, "history-db", "", "Path to the history database")
	f.BoolVar(&noHistoryFlag, "no-history", false, "Do not record this exchange")
}

func runSend(cmd *cobra.Command, method, target string) error {
	code, err := doSend(cmd, method, target)
	if err != nil {
		color.New(color.FgRed).Fprintln(cmd.ErrOrStderr(), err)
		os.Exit(code)
	}
	return nil
}

func doSend(cmd *cobra.Command, method, target string) (int, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return ExitConfigError, err
	}

	opts := cfg.Options()
	opts, code, err := appendFlagOptions(opts)
	if err != nil {
		return code, err
	}

	if !noHistoryFlag {
		if store := openHistory(cmd, cfg); store != nil {
			defer store.Close()
			opts = append(opts, client.WithRecorder(store))
		}
	}

	req, code, err := buildRequest(method, target)
	if err != nil {
		return code, err
	}

	c := client.NewClient(opts...)
	resp, err := c.Do(cmd.Context(), req)
	if err != nil {
		return ExitNetworkError, err
	}

	var formatter output.Formatter
	if jsonFlag {
		formatter = output.NewJSONFormatter(output.WithJSONWriter(cmd.OutOrStdout()))
	} else {
		formatter = output.NewConsoleFormatter(
			output.WithWriter(cmd.OutOrStdout()),
			output.WithVerbose(sendVerboseFlag),
			output.WithNoColor(noColorFlag || cfg.GetNoColor()),
		)
	}

	if failFlag && resp.StatusCode >= 400 {
		_ = formatter.PrintResponse(resp)
		return ExitRequestFailure, &client.StatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: resp.URL}
	}

	if schemaFlag != "" {
		violations, err := inspect.ValidateSchemaFile(resp, schemaFlag)
		if err != nil {
			return ExitConfigError, err
		}
		if len(violations) > 0 {
			return ExitRequestFailure, errors.New(inspect.FormatViolations(violations))
		}
	}

	if extractFlag != "" {
		value, err := inspect.Extract(resp, extractFlag)
		if err != nil {
			return ExitRequestFailure, err
		}
		formatter.PrintValue(value)
		return ExitSuccess, nil
	}

	if err := formatter.PrintResponse(resp); err != nil {
		return ExitRequestFailure, err
	}
	return ExitSuccess, nil
}

func appendFlagOptions(opts []client.ClientOption) ([]client.ClientOption, int, error) {
	for _, tf := range []struct {
		raw    string
		option func(time.Duration) client.ClientOption
		name   string
	}{
		{connectTimeoutFlag, client.WithConnectTimeout, "connect-timeout"},
		{inactivityTimeoutFlag, client.WithInactivityTimeout, "inactivity-timeout"},
		{timeoutFlag, client.WithTotalTimeout, "timeout"},
	} {
		if tf.raw == "" {
			continue
		}
		d, err := time.ParseDuration(tf.raw)
		if err != nil {
			return nil, ExitUsageError, fmt.Errorf("invalid --%s value %q: %w", tf.name, tf.raw, err)
		}
		opts = append(opts, tf.option(d))
	}

	if redirectFlag != "" {
		switch redirectFlag {
		case "strict", "lax", "none":
			opts = append(opts, client.WithRedirectPolicy(redirect.ByName(redirectFlag)))
		default:
			return nil, ExitUsageError, fmt.Errorf("invalid --redirect value %q (want strict, lax, or none)", redirectFlag)
		}
	}
	if maxRedirectsFlag > 0 {
		opts = append(opts, client.WithMaxRedirects(maxRedirectsFlag))
	}
	if userAgentFlag != "" {
		opts = append(opts, client.WithUserAgent(userAgentFlag))
	}
	if proxyFlag != "" {
		opts = append(opts, client.WithProxy(proxyFlag))
	}
	if insecureFlag {
		opts = append(opts, client.WithValidateSSL(false))
	}

	return opts, ExitSuccess, nil
}

func buildRequest(method, target string) (*client.Request, int, error) {
	req := client.NewRequest(method, target)

	for _, h := range headerFlags {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, ExitUsageError, fmt.Errorf("invalid header %q (want \"Name: value\")", h)
		}
		req.SetHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if len(formFlags) > 0 && dataFlag != "" {
		return nil, ExitUsageError, errors.New("--data and --form are mutually exclusive")
	}

	if dataFlag != "" {
		body := []byte(dataFlag)
		if strings.HasPrefix(dataFlag, "@") {
			var err error
			body, err = os.ReadFile(strings.TrimPrefix(dataFlag, "@"))
			if err != nil {
				return nil, ExitUsageError, fmt.Errorf("reading body file: %w", err)
			}
		}
		req.SetBody(body, contentTypeFlag)
	}

	if len(formFlags) > 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, ExitConfigError, err
		}
		req.BaseDir = cwd
		for _, field := range formFlags {
			name, value, ok := strings.Cut(field, "=")
			if !ok {
				return nil, ExitUsageError, fmt.Errorf("invalid form field %q (want name=value or name=@file)", field)
			}
			if strings.HasPrefix(value, "@") {
				req.AddPart(client.FilePart(name, strings.TrimPrefix(value, "@")))
			} else {
				req.AddPart(client.TextPart(name, value))
			}
		}
	}

	return req, ExitSuccess, nil
}

// openHistory opens the exchange history store; failures only warn, the
// request proceeds without recording.
func openHistory(cmd *cobra.Command, cfg *config.Config) *history.Store {
	path := historyDBFlag
	if path == "" {
		path = cfg.HistoryDB
	}
	if path == "" {
		path = defaultHistoryPath()
	}
	if path == "" {
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: history disabled: %v\n", err)
		return nil
	}
	return store
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".httpcall")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "history.db")
}
