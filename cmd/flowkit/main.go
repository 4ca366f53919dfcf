package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/craftbase/flowkit/internal/actions"
	"github.com/craftbase/flowkit/internal/diagram"
	"github.com/craftbase/flowkit/internal/logging"
	"github.com/craftbase/flowkit/internal/scheduler"
	"github.com/craftbase/flowkit/internal/store"
	"github.com/craftbase/flowkit/internal/validation"
	"github.com/craftbase/flowkit/pkg/catalog"
	"github.com/craftbase/flowkit/pkg/schema"
	"github.com/craftbase/flowkit/pkg/trigger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := loadConfig()
	logger := newLogger(cfg.LogLevel)

	var err error
	switch os.Args[1] {
	case "validate":
		err = runValidate(os.Args[2:])
	case "diagram":
		err = runDiagram(os.Args[2:])
	case "scheduler":
		err = runScheduler(cfg, logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  flowkit validate <workflow.json>   validate a workflow document
  flowkit diagram <workflow.json>    render a workflow as a Mermaid flowchart
  flowkit scheduler                  run the schedule activation loop`)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}

func loadDefinition(path string) (*schema.WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def schema.WorkflowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &def, nil
}

func runValidate(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("validate takes exactly one workflow file")
	}
	def, err := loadDefinition(args[0])
	if err != nil {
		return err
	}

	v, err := validation.New(
		validation.WithCatalog(catalog.Builtin()),
		validation.WithActionCatalog(actions.Builtin()),
	)
	if err != nil {
		return err
	}

	result := v.Validate(def)
	for _, issue := range result.Errors {
		fmt.Printf("error  %-14s %s (%s)\n", issue.Code, issue.Message, issue.Path)
	}
	for _, issue := range result.Warnings {
		fmt.Printf("warn   %-14s %s (%s)\n", issue.Code, issue.Message, issue.Path)
	}
	if !result.Valid() {
		return fmt.Errorf("%d validation error(s)", len(result.Errors))
	}
	fmt.Println("ok")
	return nil
}

func runDiagram(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("diagram takes exactly one workflow file")
	}
	def, err := loadDefinition(args[0])
	if err != nil {
		return err
	}
	fmt.Print(diagram.RenderMermaid(def))
	return nil
}

// logDispatcher records schedule activations; an execution engine would
// replace it.
type logDispatcher struct {
	logger *slog.Logger
}

func (d *logDispatcher) Dispatch(ctx context.Context, act trigger.Activation) error {
	logging.LogWith(ctx, d.logger).Info("workflow activated",
		slog.String("type", string(act.Type)),
		slog.Time("fired_at", act.FiredAt),
	)
	return nil
}

func runScheduler(cfg Config, logger *slog.Logger) error {
	if err := os.MkdirAll(flowkitDir(), 0o755); err != nil {
		return err
	}
	st, err := store.NewLibSQLStore("file:" + cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	sched := scheduler.New(st, &logDispatcher{logger: logger}, logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	return sched.Stop()
}
