package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kandev/agentnet/internal/common/config"
	"github.com/kandev/agentnet/internal/common/logger"
	"github.com/kandev/agentnet/internal/docker"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list worker containers launched by agentctl",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := docker.NewClient(config.DockerConfig{}, logger.Default())
			if err != nil {
				return fmt.Errorf("connecting to docker: %w", err)
			}
			defer func() { _ = cli.Close() }()

			containers, err := cli.ListContainers(context.Background(), map[string]string{"agentnet.managed-by": "agentctl"})
			if err != nil {
				return fmt.Errorf("listing containers: %w", err)
			}
			for _, c := range containers {
				fmt.Printf("%-20s %-12s %-10s %s\n", c.Name, c.ID[:12], c.State, c.Status)
			}
			return nil
		},
	}
}
