// Package cli implements the catalogctl command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samvad-hq/catalog-harvester/internal/config"
	"github.com/samvad-hq/catalog-harvester/pkg/catalog"
	"github.com/samvad-hq/catalog-harvester/pkg/httpclient"
	"github.com/spf13/cobra"
)

const (
	outputJSON  = "json"
	outputTable = "table"
)

type rootOptions struct {
	apiBase string
	timeout time.Duration
	output  string
}

// NewRootCommand builds catalogctl. cfg supplies defaults for the global flags.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	opts := &rootOptions{output: outputTable}
	if cfg != nil {
		opts.apiBase = cfg.APIBase
		opts.timeout = cfg.HTTPTimeout
	}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Query the product catalog API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			switch opts.output {
			case outputJSON, outputTable:
				return nil
			default:
				return fmt.Errorf("unsupported --output %q (json or table)", opts.output)
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.apiBase, "api-base", opts.apiBase, "catalog API base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", opts.timeout, "request timeout")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", opts.output, "output format: table or json")

	root.AddCommand(newListCommand(opts), newSearchCommand(opts))
	return root
}

func (o *rootOptions) client() (*catalog.Client, error) {
	return catalog.New(o.apiBase, catalog.WithHTTPClient(httpclient.NewRestyClient(o.timeout)))
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products by page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			resp, err := client.ListProductsPage(cmd.Context(), page)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, resp)
		},
	}
	cmd.Flags().IntVar(&page, "page", catalog.DefaultPage, "1-based page number")
	return cmd
}

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var (
		keyword                  string
		minPrice, maxPrice       float64
		minDiscount, maxDiscount float64
		minRating                float64
		page                     int
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search products; only the filters given on the command line are sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			var params catalog.SearchParams
			if flags.Changed("keyword") {
				params.Keyword = catalog.String(keyword)
			}
			if flags.Changed("min-price") {
				params.MinPrice = catalog.Float(minPrice)
			}
			if flags.Changed("max-price") {
				params.MaxPrice = catalog.Float(maxPrice)
			}
			if flags.Changed("min-discount") {
				params.MinDiscount = catalog.Float(minDiscount)
			}
			if flags.Changed("max-discount") {
				params.MaxDiscount = catalog.Float(maxDiscount)
			}
			if flags.Changed("min-rating") {
				params.MinRating = catalog.Float(minRating)
			}
			if flags.Changed("page") {
				params.Page = catalog.Int(page)
			}

			client, err := opts.client()
			if err != nil {
				return err
			}
			resp, err := client.SearchProductsPage(cmd.Context(), params)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, resp)
		},
	}

	f := cmd.Flags()
	f.StringVar(&keyword, "keyword", "", "free-text keyword")
	f.Float64Var(&minPrice, "min-price", 0, "minimum price")
	f.Float64Var(&maxPrice, "max-price", 0, "maximum price")
	f.Float64Var(&minDiscount, "min-discount", 0, "minimum discount")
	f.Float64Var(&maxDiscount, "max-discount", 0, "maximum discount")
	f.Float64Var(&minRating, "min-rating", 0, "minimum average rating")
	f.IntVar(&page, "page", catalog.DefaultPage, "1-based page number")
	return cmd
}

func render(w io.Writer, format string, resp catalog.ProductResponse) error {
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return renderTable(w, resp)
}

func renderTable(w io.Writer, resp catalog.ProductResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSKU\tNAME\tPRICE\tDISCOUNT\tSOLD\tRATING\tCREATED")
	for _, p := range resp.Data {
		created := "-"
		if !p.CreatedAt.IsZero() {
			created = humanize.Time(p.CreatedAt)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.1f\t%s\n",
			p.ID,
			p.SKU,
			p.Name,
			humanize.CommafWithDigits(p.Price, 2),
			formatDiscount(p.DiscountRate),
			humanize.Comma(int64(p.Sold)),
			p.Rating,
			created,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	pg := resp.Pagination
	_, err := fmt.Fprintf(w, "%s\npage %d of %d (%s products, %d per page)\n",
		strings.Repeat("-", 40), pg.Page, pg.TotalPages, humanize.Comma(int64(pg.Total)), pg.Limit)
	return err
}

func formatDiscount(rate float64) string {
	if rate == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", rate*100)
}
