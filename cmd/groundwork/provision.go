package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/engine"
	"github.com/groundworklabs/groundwork/internal/logger"
	"github.com/groundworklabs/groundwork/internal/model"
	"github.com/groundworklabs/groundwork/internal/state"
	"github.com/groundworklabs/groundwork/internal/tui"
	validationpkg "github.com/groundworklabs/groundwork/internal/validation"
)

type provisionOptions struct {
	ConfigPath     string
	StateDir       string
	Step           string
	Resume         bool
	DryRun         bool
	Verbose        bool
	NonInteractive bool
}

var provisionCmdRunner = runProvision

func newProvisionCmd(root *rootFlags) *cobra.Command {
	opts := provisionOptions{}

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision an environment from a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DryRun = root.dryRun
			opts.Verbose = root.verbose
			opts.NonInteractive = !term.IsTerminal(int(os.Stdout.Fd()))

			if err := validateProvisionOptions(opts); err != nil {
				return err
			}

			return provisionCmdRunner(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.StateDir, "state-dir", "", "Directory for execution state (default ~/.groundwork/<config-name>)")
	cmd.Flags().StringVar(&opts.Step, "step", "", "Run a single step and its transitive dependencies")
	cmd.Flags().BoolVar(&opts.Resume, "resume", true, "Skip steps recorded as succeeded by a previous run")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func validateProvisionOptions(opts provisionOptions) error {
	if strings.TrimSpace(opts.ConfigPath) == "" {
		return fmt.Errorf("config file is required")
	}

	abs, err := filepath.Abs(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("config file does not exist: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", abs)
	}

	return nil
}

func runProvision(opts provisionOptions) error {
	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	graph, err := engine.BuildDAG(cfg.Steps)
	if err != nil {
		return err
	}

	var plan *engine.ExecutionPlan
	if opts.Step != "" {
		plan, err = engine.PlanForStep(graph, opts.Step)
	} else {
		plan, err = engine.GeneratePlan(graph)
	}
	if err != nil {
		return err
	}

	effectiveDryRun := opts.DryRun || cfg.Settings.DryRun
	effectiveVerbose := opts.Verbose || cfg.Settings.Verbose

	level := "info"
	if effectiveVerbose {
		level = "debug"
	}

	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return err
	}

	stateDir, err := stateDirFor(opts.StateDir, cfg.Name)
	if err != nil {
		return err
	}

	tracker, err := state.Open(stateDir)
	if err != nil {
		return err
	}
	defer tracker.Close() //nolint:errcheck

	if !opts.Resume {
		if err := tracker.Reset(); err != nil {
			return err
		}
	}

	interactive := !opts.NonInteractive

	// In interactive mode step output is buffered so it does not tear the
	// progress display; the buffer is replayed on failure.
	var captured bytes.Buffer
	var sink io.Writer
	if interactive {
		sink = &captured
	}

	registry, err := buildRegistry(log, sink)
	if err != nil {
		return err
	}

	modelState := tui.NewModel(cfg, plan)

	var program *tea.Program
	var programErr error
	done := make(chan struct{})

	if interactive {
		program = tea.NewProgram(modelState)
		go func() {
			_, programErr = program.Run()
			close(done)
		}()
	}

	execCtx := &engine.ExecutionContext{
		Config:   cfg,
		Registry: registry,
		Tracker:  tracker,
		Logger:   log,
		Context:  ctx,
		DryRun:   effectiveDryRun,
		Verbose:  effectiveVerbose,
		OnStepStart: func(id string) {
			dispatchTuiMessage(interactive, program, &modelState, tui.StepStartMsg{ID: id})
		},
		OnStepComplete: func(res model.StepResult) {
			dispatchTuiMessage(interactive, program, &modelState, tui.StepCompleteMsg{Result: res})
		},
	}

	_, execErr := engine.Execute(execCtx, plan)

	var failedValidations int
	if execErr == nil && !effectiveDryRun && len(cfg.Validations) > 0 {
		summary := validationpkg.Run(cfg.Validations, log)
		failedValidations = summary.Failed
		for _, res := range summary.Results {
			dispatchTuiMessage(interactive, program, &modelState, tui.ValidationMsg{Passed: res.Passed, Message: res.Description})
		}
	}

	if interactive {
		program.Send(tui.DoneMsg{})
		<-done
		if programErr != nil {
			return programErr
		}
		if execErr != nil && captured.Len() > 0 {
			fmt.Fprintln(os.Stderr, captured.String())
		}
	} else {
		fmt.Fprintln(os.Stdout, modelState.View())
	}

	if execErr != nil {
		return execErr
	}
	if failedValidations > 0 {
		return fmt.Errorf("%d validation(s) failed", failedValidations)
	}

	return nil
}

func dispatchTuiMessage(interactive bool, program *tea.Program, modelState *tui.Model, msg tea.Msg) {
	if interactive {
		if program != nil {
			program.Send(msg)
		}
		return
	}

	updated, _ := modelState.Update(msg)
	if m, ok := updated.(tui.Model); ok {
		*modelState = m
	}
}
