package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/NeuralTrust/NewsGuard/pkg/dependency_container"
	domain "github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewEvaluateCommand() *cobra.Command {
	var (
		item             domain.ContentItem
		strict           bool
		noCopyright      bool
		allowUnconfirmed bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a single news item and print its verdict",
		Example: `  newsguard evaluate --title "Storm hits coast" --summary "Thousands without power" --source wire

  # Block on strict signals, skip the copyright scan
  newsguard evaluate --title "..." --strict --no-copyright`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if item.IsEmpty() {
				return errors.New("--title or --summary is required")
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger := logrus.New()
			logger.SetOutput(os.Stderr)
			logger.SetLevel(logrus.WarnLevel)

			container, err := dependency_container.NewContainer(dependency_container.ContainerDI{
				Cfg:    cfg,
				Logger: logger,
			})
			if err != nil {
				return err
			}
			container.Start(cmd.Context())
			defer container.Close()

			opts := domain.Options{
				CheckCopyright:   !noCopyright,
				StrictMode:       strict,
				AllowUnconfirmed: allowUnconfirmed,
			}
			verdict := container.Engine.Evaluate(cmd.Context(), item, opts)

			out, err := json.MarshalIndent(verdict, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&item.Title, "title", "", "headline")
	cmd.Flags().StringVar(&item.Summary, "summary", "", "summary or lede")
	cmd.Flags().StringVar(&item.Source, "source", "", "publisher or feed name")
	cmd.Flags().BoolVar(&strict, "strict", false, "block high-risk items with strict-category signals")
	cmd.Flags().BoolVar(&noCopyright, "no-copyright", false, "skip the copyright scan")
	cmd.Flags().BoolVar(&allowUnconfirmed, "allow-unconfirmed", false, "rate unclassified items low instead of medium")
	return cmd
}
