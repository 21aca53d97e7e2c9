package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/cupsy/internal/app/run"
	"github.com/alexisbeaulieu97/cupsy/internal/config"
	"github.com/alexisbeaulieu97/cupsy/internal/logger"
	"github.com/alexisbeaulieu97/cupsy/internal/tui"
)

type applyOptions struct {
	ConfigPath     string
	DryRun         bool
	Verbose        bool
	Server         string
	User           string
	NonInteractive bool
}

var isTerminal = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func newApplyCmd(root *rootFlags) *cobra.Command {
	opts := applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Reconcile every queue in a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DryRun = root.dryRun
			opts.Verbose = root.verbose
			opts.Server = root.server
			opts.User = root.user
			opts.NonInteractive = !isTerminal(os.Stdout)

			if err := validateApplyOptions(opts); err != nil {
				return err
			}

			return runApply(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the queue document")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func validateApplyOptions(opts applyOptions) error {
	if strings.TrimSpace(opts.ConfigPath) == "" {
		return fmt.Errorf("config path is required")
	}
	return nil
}

func runApply(ctx context.Context, stdout, stderr io.Writer, opts applyOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc := run.NewService(clientFactory)
	prepared, err := svc.Prepare(opts.ConfigPath)
	if err != nil {
		return err
	}
	doc := prepared.Document

	verbose := opts.Verbose || doc.Settings.Verbose
	level := "info"
	if verbose {
		level = "debug"
	} else if !opts.NonInteractive {
		level = "warn"
	}

	names := make([]string, 0, len(doc.Queues))
	for _, q := range doc.Queues {
		names = append(names, q.Name)
	}
	modelState := tui.NewModel(opts.ConfigPath, names, opts.DryRun || doc.Settings.DryRun)
	interactive := !opts.NonInteractive

	var program *tea.Program
	var programErr error
	done := make(chan struct{})

	if interactive {
		program = tea.NewProgram(modelState, tea.WithOutput(stdout))
		go func() {
			_, programErr = program.Run()
			// Ctrl+C in the view stops the remaining queues.
			cancel()
			close(done)
		}()
	}

	outcome, applyErr := svc.Apply(ctx, run.ApplyRequest{
		Prepared:       prepared,
		LoggerOptions:  logger.Options{Level: level, HumanReadable: true, Writer: stderr},
		DryRunOverride: opts.DryRun,
		ServerOverride: opts.Server,
		UserOverride:   opts.User,
		OnQueueStart: func(index int, q config.Queue) {
			dispatchTuiMessage(interactive, program, &modelState, tui.QueueStartMsg{Index: index, Name: q.Name})
		},
		OnQueueResult: func(res run.QueueResult) {
			dispatchTuiMessage(interactive, program, &modelState, tui.QueueDoneMsg{Result: res})
		},
	})

	summary := ""
	if outcome != nil {
		summary = outcome.Summary
	}
	dispatchTuiMessage(interactive, program, &modelState, tui.RunDoneMsg{Summary: summary, Err: applyErr})

	if interactive {
		<-done
		if programErr != nil {
			return programErr
		}
	} else {
		fmt.Fprintln(stdout, modelState.View())
	}

	return applyErr
}

func dispatchTuiMessage(interactive bool, program *tea.Program, state *tui.Model, msg tea.Msg) {
	if interactive {
		if program != nil {
			program.Send(msg)
		}
		return
	}

	updated, _ := state.Update(msg)
	if m, ok := updated.(tui.Model); ok {
		*state = m
	}
}
