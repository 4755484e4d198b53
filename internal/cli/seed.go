package cli

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed sample_data.yaml
var sampleData []byte

// seedData is the YAML layout accepted by the seed command.
type seedData struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
	Users   []domain.User `yaml:"users"`
}

// NewSeedCmd loads quizzes and users into the configured store.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load quizzes and users into the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := config.NewLogger(cfg)
			if cfg.Storage.Driver == config.DriverMemory {
				return fmt.Errorf("seed needs a persistent storage driver, got %q", cfg.Storage.Driver)
			}

			data, err := readSeedData(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			b, err := openBackends(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.close()

			if err := b.seed(ctx, data); err != nil {
				return err
			}
			logger.Info("seed complete",
				slog.String("driver", cfg.Storage.Driver),
				slog.Int("quizzes", len(data.Quizzes)),
				slog.Int("users", len(data.Users)),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML seed file (defaults to the bundled sample data)")
	return cmd
}

// readSeedData parses path, or the bundled sample data when path is empty.
func readSeedData(path string) (seedData, error) {
	raw := sampleData
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return seedData{}, err
		}
	}
	var data seedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return seedData{}, fmt.Errorf("parse seed data: %w", err)
	}
	for i, quiz := range data.Quizzes {
		if quiz.ID == "" {
			return seedData{}, fmt.Errorf("quizzes[%d]: id is required", i)
		}
		if !quiz.Difficulty.Valid() {
			return seedData{}, fmt.Errorf("quizzes[%d]: unknown difficulty %q", i, quiz.Difficulty)
		}
	}
	for i, user := range data.Users {
		if user.ID == "" {
			return seedData{}, fmt.Errorf("users[%d]: id is required", i)
		}
	}
	return data, nil
}
