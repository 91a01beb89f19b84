package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Nivasini17/ai-agent-challenge/internal/agent"
	"github.com/Nivasini17/ai-agent-challenge/internal/artifact"
	"github.com/Nivasini17/ai-agent-challenge/internal/fallback"
	"github.com/Nivasini17/ai-agent-challenge/internal/oracle"
	"github.com/Nivasini17/ai-agent-challenge/internal/statement"
)

var (
	runTargets     string
	runMaxAttempts int
	runConcurrency int
)

// runCmd drives the refinement loop for one or more targets
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and install a parser for one or more targets",
	Long: `Runs the refinement loop for each requested target.

Each target gets an independent session: generate a candidate parser,
execute it in the sandbox over the target's sample document, validate the
output against the reference CSV, and feed discrepancies into the next
prompt. A spent attempt budget installs the registered fallback parser.

Targets are comma separated; "all" runs every registered target that has
sample data under the data directory.

Examples:
  agent run --target icici
  agent run --target all --concurrency 2
  agent run --target icici --max-attempts 5`,
	RunE: runLoop,
}

func init() {
	runCmd.Flags().StringVarP(&runTargets, "target", "t", "", "Target bank identifier(s), comma separated, or \"all\" (required)")
	runCmd.Flags().IntVar(&runMaxAttempts, "max-attempts", 0, "Override the configured attempt budget")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 1, "How many targets run at once")
	runCmd.MarkFlagRequired("target")
}

// runOutcome is one target's terminal result for the summary.
type runOutcome struct {
	target string
	result *agent.RunResult
	path   string
	err    error
}

func runLoop(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	registry := fallback.NewRegistry()
	targets, err := resolveTargets(runTargets, registry)
	if err != nil {
		return err
	}

	client, err := oracle.NewClientFromConfig(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closer, ok := client.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}()

	loop := agent.FromConfig(cfg, client, registry)
	writer := artifact.NewWriter(cfg.Data.ParserDir)

	logger.Info("starting refinement",
		zap.Strings("targets", targets),
		zap.String("model", client.Model()),
		zap.Int("concurrency", runConcurrency))

	// Targets are independent sessions: one failing must not cancel the
	// rest, so errors land in the outcome slots instead of the group.
	outcomes := make([]runOutcome, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(runConcurrency, 1))
	for i, target := range targets {
		g.Go(func() error {
			outcomes[i] = runTarget(gctx, loop, writer, target)
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for _, oc := range outcomes {
		printRunSummary(oc)
		if oc.err != nil {
			failed++
		}
	}

	stats := loop.GetStats()
	logger.Info("refinement finished",
		zap.Int("sessions", stats.Sessions),
		zap.Int("generated", stats.Generated),
		zap.Int("fell_back", stats.FellBack),
		zap.Int("attempts", stats.AttemptsTotal),
		zap.Int("rate_limit_waits", stats.RateLimitWaits))

	if failed > 0 {
		return fmt.Errorf("%d of %d targets failed", failed, len(targets))
	}
	return nil
}

// runTarget resolves one target end to end: load data, refine, install.
func runTarget(ctx context.Context, loop *agent.Loop, writer *artifact.Writer, target string) runOutcome {
	pair, err := statement.LoadPair(cfg.Data.Dir, target)
	if err != nil {
		return runOutcome{target: target, err: err}
	}

	session := agent.NewSession(pair, runMaxAttempts)
	logger.Info("session started",
		zap.String("target", target),
		zap.String("session", session.ID))

	result, err := loop.Run(ctx, session)
	if err != nil {
		return runOutcome{target: target, err: err}
	}

	path, err := writer.Write(fallback.Transformation{
		Target:     target,
		Source:     result.Source,
		Provenance: result.Provenance,
	})
	if err != nil {
		return runOutcome{target: target, result: result, err: err}
	}

	logger.Info("parser installed",
		zap.String("target", target),
		zap.String("provenance", result.Provenance),
		zap.String("path", path),
		zap.Int("attempts", len(result.Attempts)))

	return runOutcome{target: target, result: result, path: path}
}

// resolveTargets expands the --target flag. "all" selects every registered
// target with sample data present.
func resolveTargets(flag string, registry *fallback.Registry) ([]string, error) {
	flag = strings.TrimSpace(flag)
	if strings.EqualFold(flag, "all") {
		var targets []string
		for _, t := range registry.Targets() {
			if statement.HasData(cfg.Data.Dir, t) {
				targets = append(targets, t)
			}
		}
		if len(targets) == 0 {
			return nil, fmt.Errorf("no registered targets with sample data under %s", cfg.Data.Dir)
		}
		return targets, nil
	}

	var targets []string
	for _, tok := range strings.Split(flag, ",") {
		if t := strings.TrimSpace(tok); t != "" {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets requested")
	}
	return targets, nil
}

func printRunSummary(oc runOutcome) {
	fmt.Println()
	fmt.Println(titleStyle.Render("── " + oc.target + " " + strings.Repeat("─", max(4, 32-len(oc.target)))))

	if oc.err != nil {
		fmt.Printf("  %s %v\n", errorStyle.Render("FAILED"), oc.err)
		return
	}

	r := oc.result
	if r.Provenance == fallback.ProvenanceGenerated {
		fmt.Printf("  %s generated parser validated after %d attempt(s)\n",
			successStyle.Render("OK"), len(r.Attempts))
	} else {
		fmt.Printf("  %s fallback parser installed after %d failed attempt(s)\n",
			warnStyle.Render("FALLBACK"), len(r.Attempts))
	}

	fmt.Printf("  %s %s\n", labelStyle.Render("state:"), r.State)
	fmt.Printf("  %s %s\n", labelStyle.Render("artifact:"), oc.path)
	fmt.Printf("  %s %s\n", labelStyle.Render("duration:"), r.Duration.Round(time.Millisecond))

	for _, a := range r.Attempts {
		line := fmt.Sprintf("attempt %d: %s", a.Seq, a.Failure)
		if a.RateLimitWaits > 0 {
			line += fmt.Sprintf(" (%d rate-limit waits)", a.RateLimitWaits)
		}
		if a.Failure == agent.FailureValidation && a.Report != nil {
			line += fmt.Sprintf(", %d discrepancies", len(a.Report.Discrepancies))
		}
		fmt.Printf("  %s\n", labelStyle.Render(line))
	}
}
