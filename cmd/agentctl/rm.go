package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kandev/agentnet/internal/common/config"
	"github.com/kandev/agentnet/internal/common/logger"
	"github.com/kandev/agentnet/internal/docker"
)

func rmCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rm [container-id...]",
		Short: "remove one or more stopped worker containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := docker.NewClient(config.DockerConfig{}, logger.Default())
			if err != nil {
				return fmt.Errorf("connecting to docker: %w", err)
			}
			defer func() { _ = cli.Close() }()

			ctx := context.Background()
			for _, id := range args {
				if err := cli.RemoveContainer(ctx, id, force); err != nil {
					return fmt.Errorf("removing %s: %w", id, err)
				}
				fmt.Printf("removed %s\n", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "force removal of a running container")
	return cmd
}
