package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/philipparndt/takeoff/internal/app"
	"github.com/philipparndt/takeoff/internal/config"
	"github.com/philipparndt/takeoff/internal/script"
	"github.com/philipparndt/takeoff/pkg/measure"
	"github.com/philipparndt/takeoff/pkg/watcher"
)

var (
	replayStore string
	replayDB    string
	replayAsync bool
	replayWatch bool
)

var replayCmd = &cobra.Command{
	Use:   "replay [script]",
	Short: "Replay a session script headlessly",
	Long: `Replay a YAML session script against the canvas engine and print the
resulting measurements, their quantities and the undo stack depth.
With --watch the script is replayed again whenever it (or the config) changes.`,
	Args: cobra.ExactArgs(1),
	Run:  runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVar(&replayStore, "store", "", "persistence adapter: memory or sqlite (default from config)")
	replayCmd.Flags().StringVar(&replayDB, "db", "", "SQLite database path (default from config)")
	replayCmd.Flags().BoolVar(&replayAsync, "async", false, "do not wait for persistence between events")
	replayCmd.Flags().BoolVarP(&replayWatch, "watch", "w", false, "replay again when the script changes")
}

func runReplay(cmd *cobra.Command, args []string) {
	path := args[0]
	cfg, logger := setup()
	defer logger.Sync()

	if replayStore != "" {
		cfg.Store.Driver = replayStore
	}
	if replayDB != "" {
		cfg.Store.Path = replayDB
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := replay(ctx, cfg, logger, path); err != nil {
		fmt.Fprintf(os.Stderr, "Error replaying script: %v\n", err)
		if !replayWatch {
			os.Exit(1)
		}
	}
	if !replayWatch {
		return
	}

	var mu sync.Mutex
	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, logger, func(next config.Config) {
				mu.Lock()
				defer mu.Unlock()
				next.Store = cfg.Store
				cfg = next
				fmt.Println("Configuration reloaded")
			})
			if err != nil {
				logger.Warn("config watch stopped", zap.Error(err))
			}
		}()
	}

	w, err := watcher.New(200*time.Millisecond, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	err = w.Add(path, func(string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Printf("\n%s changed, replaying\n", path)
		if err := replay(ctx, cfg, logger, path); err != nil {
			fmt.Fprintf(os.Stderr, "Error replaying script: %v\n", err)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", path)
	if err := w.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// replay runs one script against a fresh session and prints the summary
func replay(ctx context.Context, cfg config.Config, logger *zap.Logger, path string) error {
	sc, err := script.Load(path)
	if err != nil {
		return err
	}

	store, closeStore, err := cfg.Store.Open(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	s, err := app.NewSession(app.Options{
		Store:      store,
		Conditions: sc.Registry(),
		Config:     &cfg,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := script.Run(s, sc, script.Options{Async: replayAsync})
	printResult(res)
	return err
}

func printResult(res script.Result) {
	fmt.Printf("Sheet %s\n", res.PageID)
	fmt.Println("==========")

	totals := make(map[string]map[measure.Unit]float64)
	var order []string
	for _, m := range res.Measurements {
		origin := "manual"
		if m.IsAIGenerated {
			origin = fmt.Sprintf("ai %.2f", m.AIConfidence)
			if m.IsVerified {
				origin += " verified"
			}
		}
		fmt.Printf("  %-10s %-12s %14s  [%s]  %s\n",
			m.GeometryType, m.ConditionID, measure.FormatQuantity(m.Quantity, m.Unit), origin, m.ID)

		if totals[m.ConditionID] == nil {
			totals[m.ConditionID] = make(map[measure.Unit]float64)
			order = append(order, m.ConditionID)
		}
		totals[m.ConditionID][m.Unit] += m.Quantity
	}
	if len(res.Measurements) == 0 {
		fmt.Println("  (no measurements)")
	}

	if len(order) > 0 {
		fmt.Println("\nTotals:")
		for _, id := range order {
			for unit, q := range totals[id] {
				fmt.Printf("  %-12s %14s\n", id, measure.FormatQuantity(q, unit))
			}
		}
	}
	if res.Ruler != nil {
		fmt.Printf("\nRuler: %s\n", measure.FormatQuantity(res.Ruler.Quantity, res.Ruler.Unit))
	}
	if len(res.Proposals) > 0 {
		fmt.Printf("Pending suggestions: %d\n", len(res.Proposals))
	}
	fmt.Printf("\nUndo stack: %d undoable, %d redoable\n", res.Past, res.Future)
	for _, n := range res.Notices {
		fmt.Printf("  %s: %s\n", n.Kind, n.Message)
	}
}
