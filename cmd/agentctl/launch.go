package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kandev/agentnet/internal/common/config"
	"github.com/kandev/agentnet/internal/common/logger"
	"github.com/kandev/agentnet/internal/credentials"
	"github.com/kandev/agentnet/internal/docker"
)

func launchCmd() *cobra.Command {
	var (
		image       string
		count       int
		category    string
		namePrefix  string
		registryURL string
		role        string
	)

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "launch N worker containers of a given image against a registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Default()

			cli, err := docker.NewClient(config.DockerConfig{}, log)
			if err != nil {
				return fmt.Errorf("connecting to docker: %w", err)
			}
			defer func() { _ = cli.Close() }()

			ctx := context.Background()
			if err := cli.Ping(ctx); err != nil {
				return fmt.Errorf("docker daemon unreachable: %w", err)
			}

			if err := cli.PullImage(ctx, image); err != nil {
				log.Warn("image pull failed, trying with whatever is already local")
			}

			creds := credentials.NewManager(log)
			creds.AddProvider(credentials.NewEnvProvider("AGENTNET_"))
			apiKey, err := creds.GetCredentialValue(ctx, "ANTHROPIC_API_KEY")
			if err != nil {
				log.Warn("no ANTHROPIC_API_KEY credential found, spawned workers will need their own")
			}

			for i := 0; i < count; i++ {
				name := fmt.Sprintf("%s-%d", namePrefix, i)
				env := []string{
					"AGENTNET_SYSTEM_NAME=" + name,
					"AGENTNET_SYSTEM_CATEGORY=" + category,
					"AGENTNET_SYSTEM_ROLE=" + role,
					"AGENTNET_SYSTEM_REGISTRY_URL=" + registryURL,
					"AGENTNET_SYSTEM_URL=http://" + name + ":8080",
				}
				if apiKey != "" {
					env = append(env, "AGENTNET_API_SERVICE_API_KEY="+apiKey)
				}
				containerCfg := docker.ContainerConfig{
					Name:       name,
					Image:      image,
					Env:        env,
					Labels:     map[string]string{"agentnet.managed-by": "agentctl"},
					AutoRemove: false,
				}

				id, err := cli.CreateContainer(ctx, containerCfg)
				if err != nil {
					return fmt.Errorf("creating %s: %w", name, err)
				}
				if err := cli.StartContainer(ctx, id); err != nil {
					return fmt.Errorf("starting %s: %w", name, err)
				}
				fmt.Printf("launched %s (%s)\n", name, id[:12])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&image, "image", "agentnet-agent:latest", "worker image to run")
	cmd.Flags().IntVar(&count, "count", 1, "number of worker containers to launch")
	cmd.Flags().StringVar(&category, "category", "general", "category the workers register under")
	cmd.Flags().StringVar(&namePrefix, "name-prefix", "worker", "name prefix for each container")
	cmd.Flags().StringVar(&registryURL, "registry-url", "http://registry:8080", "registry base url")
	cmd.Flags().StringVar(&role, "role", "worker", "prompts.<role> key to use as the system prompt")
	return cmd
}
