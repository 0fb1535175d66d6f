package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/shelfsync/backend/internal/app"
	"github.com/shelfsync/backend/internal/domain"
	"github.com/shelfsync/backend/internal/infrastructure/report"
)

func newExtractCommand(c *cli) *cobra.Command {
	var (
		htmlFile string
		asJSON   bool
		strict   bool
	)

	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract and validate a single product page",
		Long: `Extract fetches one product page, or reads it from --html-file, and prints
the canonical product with its validation result. Relative paths are resolved
against fetch.base_url.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := app.New(c.cfg, c.log)
			defer deps.Close()

			urls, err := collectURLs(args, "", c.cfg.Fetch.BaseURL, nil)
			if err != nil {
				return err
			}
			pageURL := urls[0]

			var page *domain.RawPage
			if htmlFile != "" {
				data, err := os.ReadFile(htmlFile)
				if err != nil {
					return fmt.Errorf("read html file: %w", err)
				}
				page, err = domain.NewRawPage(pageURL, string(data))
				if err != nil {
					return err
				}
			} else {
				page, err = deps.Pages.Load(cmd.Context(), pageURL)
				if err != nil {
					return fmt.Errorf("load %s: %w", pageURL, err)
				}
			}

			result, err := deps.Pipeline.Process(page)
			if err != nil {
				return fmt.Errorf("extract %s: %w", pageURL, err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("encode result: %w", err)
				}
				fmt.Fprintln(out, string(data))
			} else {
				renderer := report.NewTableRenderer(out, 0)
				renderer.RenderProduct(result.Product)
				renderer.RenderValidation(result.Validation)
			}

			if strict && !result.Validation.Valid {
				return fmt.Errorf("product %s is invalid: %d errors", pageURL, len(result.Validation.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&htmlFile, "html-file", "", "read the page HTML from a file instead of fetching it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the product is invalid")
	return cmd
}
