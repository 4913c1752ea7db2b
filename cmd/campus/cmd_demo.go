package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/campus-agents/campus-hub/config"
	"github.com/campus-agents/campus-hub/internal/application/command"
	"github.com/campus-agents/campus-hub/internal/application/orchestrator"
	"github.com/campus-agents/campus-hub/internal/application/specialist"
	"github.com/campus-agents/campus-hub/internal/infrastructure/messaging"
	"github.com/campus-agents/campus-hub/internal/infrastructure/persistence/memory"
	"github.com/campus-agents/campus-hub/pkg/logger"
)

//go:embed demo.yaml
var defaultScript []byte

// checkActivityStep is the script pseudo-action that runs the activity monitor.
const checkActivityStep = "check-activity"

// demoScript is the YAML form of a demo run.
type demoScript struct {
	Steps []demoStep `yaml:"steps"`
}

type demoStep struct {
	Action string         `yaml:"action"`
	Data   map[string]any `yaml:"data"`
}

func parseScript(data []byte) (*demoScript, error) {
	var s demoScript
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse demo script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, errors.New("demo script has no steps")
	}
	for i, step := range s.Steps {
		if step.Action != checkActivityStep && !command.Kind(step.Action).IsValid() {
			return nil, fmt.Errorf("step %d: unknown action %q", i+1, step.Action)
		}
	}
	return &s, nil
}

type demoOptions struct {
	unit       time.Duration
	pause      time.Duration
	scriptPath string
	verbose    bool
}

// newDemoCmd creates the "campus demo" subcommand.
func newDemoCmd() *cobra.Command {
	opts := demoOptions{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted student session and print notifications as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			data := defaultScript
			if opts.scriptPath != "" {
				if data, err = os.ReadFile(opts.scriptPath); err != nil {
					return fmt.Errorf("read demo script: %w", err)
				}
			}
			script, err := parseScript(data)
			if err != nil {
				return err
			}

			return runDemo(cmd.Context(), cfg, script, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().DurationVar(&opts.unit, "unit", 100*time.Millisecond, "time unit that scales every agent busy window")
	cmd.Flags().DurationVar(&opts.pause, "pause", 0, "pause between steps (default: 4 units)")
	cmd.Flags().StringVar(&opts.scriptPath, "script", "", "YAML script to run instead of the built-in one")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level to stderr")

	return cmd
}

func runDemo(ctx context.Context, cfg *config.Config, script *demoScript, opts demoOptions, out, errOut io.Writer) error {
	if opts.unit <= 0 {
		return errors.New("--unit must be positive")
	}
	if opts.pause <= 0 {
		opts.pause = 4 * opts.unit
	}

	log := logger.Nop()
	if opts.verbose {
		log = logger.New(logger.Options{Output: errOut, Level: logger.LevelDebug, Format: logger.FormatConsole})
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	busCfg := messaging.DefaultBusConfig()
	busCfg.Logger = log
	bus := messaging.NewBus(busCfg)
	defer func() { _ = bus.Close() }()

	if err := bus.Subscribe(messaging.NewWriterSubscriber("stdout", out)); err != nil {
		return err
	}

	oc := orchestrator.DefaultConfig()
	oc.Catalog = cat
	oc.Students = memory.NewStudentRepository()
	oc.Sink = bus
	oc.Delays = specialist.DefaultDelays(opts.unit)
	oc.Mentor.Location = cfg.App.Location
	oc.StudentName = cfg.Campus.StudentName
	oc.Interests = cfg.Campus.Interests
	oc.Middlewares = orchestrator.DefaultMiddlewares(log, nil)
	oc.Logger = log

	coord, err := orchestrator.New(ctx, oc)
	if err != nil {
		return err
	}
	defer func() { _ = coord.Close() }()

	for i, step := range script.Steps {
		if err := runStep(ctx, coord, step); err != nil {
			fmt.Fprintf(errOut, "step %d (%s): %v\n", i+1, step.Action, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(opts.pause):
		}
	}

	_ = coord.Close()
	return bus.Close()
}

func runStep(ctx context.Context, coord *orchestrator.Coordinator, step demoStep) error {
	if step.Action == checkActivityStep {
		return coord.CheckActivity(ctx)
	}

	var payload json.RawMessage
	if step.Data != nil {
		raw, err := json.Marshal(step.Data)
		if err != nil {
			return err
		}
		payload = raw
	}
	return coord.Dispatch(ctx, command.Action{Kind: command.Kind(step.Action), Payload: payload})
}
