package commands

import (
	"log"
	"os"

	"github.com/NeuralTrust/NewsGuard/pkg/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "./config"

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newsguard",
		Short: "Rate-limited moderation decisions for news content",
		Long: `NewsGuard decides whether news items are safe to publish.

It fuses a remote toxicity classifier with local keyword and copyright
heuristics, caches verdicts and never blocks on infrastructure failures.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			envFile := os.Getenv("ENV_FILE")
			if envFile == "" {
				envFile = ".env"
			}
			if err := godotenv.Load(envFile); err != nil {
				log.Println("no .env file found, using system environment variables")
			}
		},
	}
	cmd.PersistentFlags().String("config", defaultConfigPath, "directory containing config.yaml")

	cmd.AddCommand(
		NewServeCommand(),
		NewEvaluateCommand(),
		NewTokenCommand(),
		NewVersionCommand(),
	)
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}
