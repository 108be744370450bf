package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/itsJohnCnstn/httpcall/packages/mock"
)

// WatchDebounceDelay coalesces rapid editor write events into one reload.
const WatchDebounceDelay = 300 * time.Millisecond

var (
	mockPortFlag    int
	mockDelayFlag   string
	mockVerboseFlag bool
	mockWatchFlag   bool
)

var mockCmd = &cobra.Command{
	Use:   "mock <routes.yml>",
	Short: "Start a scripted HTTP server from a YAML route file",
	Long: `Start an HTTP server that answers according to a YAML route file.

Routes can return fixed bodies, add per-route delays, capture path
parameters (/users/:id), and issue redirects, which makes the server
handy for exercising redirect policies and timeout budgets locally.

Examples:
  httpcall mock routes.yml
  httpcall mock routes.yml --port 8080
  httpcall mock routes.yml --delay 250ms --verbose
  httpcall mock routes.yml --watch`,
	Args: cobra.ExactArgs(1),
	RunE: mockCommand,
}

func init() {
	mockCmd.Flags().IntVarP(&mockPortFlag, "port", "p", 3000, "Port to run the mock server on")
	mockCmd.Flags().StringVarP(&mockDelayFlag, "delay", "d", "0", "Delay to add to all responses (e.g. 100ms, 1s)")
	mockCmd.Flags().BoolVarP(&mockVerboseFlag, "verbose", "v", false, "Log every handled request")
	mockCmd.Flags().BoolVarP(&mockWatchFlag, "watch", "w", false, "Reload routes when the file changes")
}

func mockCommand(cmd *cobra.Command, args []string) error {
	routesPath := args[0]

	var delay time.Duration
	if mockDelayFlag != "0" {
		var err error
		delay, err = time.ParseDuration(mockDelayFlag)
		if err != nil {
			return fmt.Errorf("invalid delay value %q: %w", mockDelayFlag, err)
		}
	}

	server := mock.NewServer(
		mock.WithPort(mockPortFlag),
		mock.WithDelay(delay),
		mock.WithVerbose(mockVerboseFlag),
	)

	if err := server.LoadFile(routesPath); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down mock server...")
		cancel()
	}()

	if mockWatchFlag {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		defer watcher.Close()

		// Watch the directory rather than the file itself: editors that
		// replace files on save would otherwise break the watch.
		if err := watcher.Add(filepath.Dir(routesPath)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", routesPath, err)
		}

		go watchRoutes(ctx, watcher, server, routesPath)
		fmt.Println("Watching for route changes... (press Ctrl+C to stop)")
	}

	return server.StartWithContext(ctx)
}

func watchRoutes(ctx context.Context, watcher *fsnotify.Watcher, server *mock.Server, routesPath string) {
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(routesPath) {
				continue
			}

			// Debounce: reset timer on each event
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				if err := server.LoadFile(routesPath); err != nil {
					fmt.Fprintf(os.Stderr, "warning: reload failed, keeping previous routes: %v\n", err)
					return
				}
				fmt.Printf("Routes reloaded from %s\n", routesPath)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "warning: watcher error: %v\n", err)
		}
	}
}
