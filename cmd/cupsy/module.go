package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/cupsy/internal/app/run"
	"github.com/alexisbeaulieu97/cupsy/internal/config"
	"github.com/alexisbeaulieu97/cupsy/internal/cups"
	"github.com/alexisbeaulieu97/cupsy/internal/logger"
	"github.com/alexisbeaulieu97/cupsy/internal/model"
	"github.com/alexisbeaulieu97/cupsy/internal/reconcile"
	cupserrors "github.com/alexisbeaulieu97/cupsy/pkg/errors"
)

// moduleResponse is the single JSON object written by `cupsy module`.
type moduleResponse struct {
	Changed    bool              `json:"changed"`
	Failed     bool              `json:"failed,omitempty"`
	Msg        string            `json:"msg,omitempty"`
	Rebuilt    bool              `json:"rebuilt,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Operations []model.Operation `json:"operations,omitempty"`
}

func newModuleCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "module ARGS.json",
		Short: "Reconcile one queue from an orchestration engine parameter file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModule(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), root, args[0])
		},
	}
}

func runModule(ctx context.Context, stdout, stderr io.Writer, root *rootFlags, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := reconcileModule(ctx, stderr, root, path)
	if err != nil {
		resp = moduleResponse{Failed: true, Msg: err.Error()}
	}

	enc := json.NewEncoder(stdout)
	if encErr := enc.Encode(resp); encErr != nil {
		return fmt.Errorf("write module result: %w", encErr)
	}
	if err != nil {
		return &reportedError{err: err}
	}
	return nil
}

func reconcileModule(ctx context.Context, stderr io.Writer, root *rootFlags, path string) (moduleResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return moduleResponse{}, cupserrors.NewResourceError("read module arguments", path, err)
	}

	args, err := config.ParseModuleArgs(path, data)
	if err != nil {
		return moduleResponse{}, err
	}

	log, err := logger.New(logger.Options{Level: root.logLevel(), Writer: stderr})
	if err != nil {
		return moduleResponse{}, fmt.Errorf("create logger: %w", err)
	}

	client := clientFactory(cups.Options{
		Server: firstSet(root.server, args.Server),
		User:   firstSet(root.user, args.User),
	})
	planner := reconcile.New(client, reconcile.Options{
		DryRun: root.dryRun || args.CheckMode,
		Logger: log.With("invocation", "module"),
	})

	result, err := run.Reconcile(ctx, planner, &args.Queue)
	if err != nil {
		return moduleResponse{}, err
	}

	return moduleResponse{
		Changed:    result.Changed,
		Rebuilt:    result.Rebuilt,
		Reason:     result.Reason,
		Operations: result.Operations,
	}, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
