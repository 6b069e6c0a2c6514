package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/engine"
)

func newPlanCmd() *cobra.Command {
	var configPath string
	var step string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the execution order without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ParseConfig(configPath)
			if err != nil {
				return err
			}

			graph, err := engine.BuildDAG(cfg.Steps)
			if err != nil {
				return err
			}

			var plan *engine.ExecutionPlan
			if step != "" {
				plan, err = engine.PlanForStep(graph, step)
			} else {
				plan, err = engine.GeneratePlan(graph)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Execution plan for %s (%d steps):\n%s", cfg.Name, len(plan.Order), plan.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&step, "step", "", "Plan for a single step and its transitive dependencies")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}
