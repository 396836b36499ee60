package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kandev/agentnet/internal/common/config"
	"github.com/kandev/agentnet/internal/common/logger"
	"github.com/kandev/agentnet/internal/docker"
)

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop [container-id...]",
		Short: "stop one or more worker containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := docker.NewClient(config.DockerConfig{}, logger.Default())
			if err != nil {
				return fmt.Errorf("connecting to docker: %w", err)
			}
			defer func() { _ = cli.Close() }()

			ctx := context.Background()
			for _, id := range args {
				if err := cli.StopContainer(ctx, id, 10*time.Second); err != nil {
					return fmt.Errorf("stopping %s: %w", id, err)
				}
				fmt.Printf("stopped %s\n", id)
			}
			return nil
		},
	}
}
