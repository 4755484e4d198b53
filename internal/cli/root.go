package cli

import (
	"os"

	"quiz-attempt-service/internal/config"

	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	config.LoadDotEnv()

	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = defaultConfigPath
	}

	cmd := &cobra.Command{
		Use:          "quiz-attempt-service",
		Short:        "Quiz submission and scoring service",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on (overrides config)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewSeedCmd(&configPath))
	return cmd
}

const defaultConfigPath = "config/config.yaml"

// loadConfig reads the config file. The default path may be absent; an explicit one may not.
func loadConfig(path string) (config.Config, error) {
	optional := path == defaultConfigPath && os.Getenv("CONFIG_PATH") == ""
	return config.Load(path, optional)
}
