package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptpal/promptpal-backend/config"
	"github.com/promptpal/promptpal-backend/internal/bootstrap"
	"github.com/promptpal/promptpal-backend/internal/suggestions/domain"
)

func newSuggestCmd() *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "suggest <prompt>",
		Short: "Print suggestions for one prompt as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			bootstrap.SetLogLevel(cfg.App.LogLevel)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			suggestions, err := bootstrap.BuildSuggestions(ctx, cfg)
			if err != nil {
				return err
			}
			defer suggestions.Close()

			res, err := suggestions.Service.Suggest(ctx, domain.SuggestionRequest{
				PromptText: strings.Join(args, " "),
				Tags:       tags,
				ClientID:   "cli",
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "context tag (repeatable)")
	return cmd
}
