package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bookcheck/internal/csvparse"
	"bookcheck/internal/lookup"
	"bookcheck/internal/mapping"
	"bookcheck/internal/results"
	"bookcheck/internal/validate"
)

type validateOptions struct {
	certKey      string
	seojiURL     string
	searchURL    string
	timeout      time.Duration
	keywordsFile string
	titleCol     string
	isbnCol      string
	priceCol     string
	authorCol    string
	outputPath   string
}

func newValidateCommand() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate <file.csv>",
		Short: "Validate every book record in a CSV file",
		Long: `Validate reads a CSV of book records, looks each ISBN up against the
bibliographic API, and prints a per-row verdict. Column mapping is
auto-detected from the header and can be overridden per field.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.certKey, "cert-key", "", "Bibliographic API certification key (default: SEOJI_CERT_KEY or API_KEY env)")
	cmd.Flags().StringVar(&opts.seojiURL, "seoji-url", lookup.DefaultSeojiURL, "Bibliographic API endpoint")
	cmd.Flags().StringVar(&opts.searchURL, "search-url", "", "Use a deployed server's /api/search endpoint instead of direct API access")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Per-lookup timeout")
	cmd.Flags().StringVar(&opts.keywordsFile, "keywords", "", "YAML file overriding column-detection keywords")
	cmd.Flags().StringVar(&opts.titleCol, "title-column", "", "Column holding the book title")
	cmd.Flags().StringVar(&opts.isbnCol, "isbn-column", "", "Column holding the ISBN")
	cmd.Flags().StringVar(&opts.priceCol, "price-column", "", "Column holding the price")
	cmd.Flags().StringVar(&opts.authorCol, "author-column", "", "Column holding the author")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write the full result CSV to this path")

	return cmd
}

func runValidate(cmd *cobra.Command, path string, opts validateOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	parsed, err := csvparse.Parse(data)
	if err != nil {
		return err
	}

	m, err := resolveMapping(parsed.Columns, opts)
	if err != nil {
		return err
	}

	client, err := buildClient(opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintf(out, "%s: %d행, 인코딩 %s\n", path, len(parsed.Rows), parsed.Encoding)

	store := results.NewStore(m)
	engine := validate.NewEngine(client)
	if colorize {
		engine.OnProgress = func(p validate.Progress) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\r검증 중... %d/%d (%d%%)", p.Completed, p.Total, p.Percent)
			if p.Completed == p.Total {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
		}
	}

	if err := engine.Run(cmd.Context(), parsed.Rows, m, store.Append); err != nil {
		return err
	}

	fmt.Fprintln(out, renderResultTable(store.Results(), m, colorize))
	fmt.Fprintln(out, renderSummary(store.Counts(), colorize))

	if opts.outputPath != "" {
		csvData, err := store.ExportCSV()
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.outputPath, csvData, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.outputPath, err)
		}
		fmt.Fprintf(out, "결과 저장: %s\n", opts.outputPath)
	}

	if invalid := store.Len() - store.Counts()["valid"]; invalid > 0 {
		return fmt.Errorf("%d건이 일치하지 않습니다", invalid)
	}
	return nil
}

// resolveMapping auto-detects the column mapping and applies per-field
// flag overrides. All four fields must resolve.
func resolveMapping(columns []string, opts validateOptions) (mapping.Mapping, error) {
	kw := mapping.DefaultKeywords()
	if opts.keywordsFile != "" {
		loaded, err := mapping.LoadKeywords(opts.keywordsFile)
		if err != nil {
			return mapping.Mapping{}, err
		}
		kw = loaded
	}

	m := mapping.AutoDetect(columns, kw)
	if opts.titleCol != "" {
		m.Title = opts.titleCol
	}
	if opts.isbnCol != "" {
		m.ISBN = opts.isbnCol
	}
	if opts.priceCol != "" {
		m.Price = opts.priceCol
	}
	if opts.authorCol != "" {
		m.Author = opts.authorCol
	}

	for _, col := range []string{m.Title, m.ISBN, m.Price, m.Author} {
		if col != "" && !containsColumn(columns, col) {
			return mapping.Mapping{}, fmt.Errorf("컬럼을 찾을 수 없습니다: %s", col)
		}
	}

	if err := m.Confirm(); err != nil {
		return mapping.Mapping{}, err
	}
	return m, nil
}

// buildClient picks between a direct upstream client and a deployed
// server's search endpoint.
func buildClient(opts validateOptions) (lookup.Client, error) {
	if opts.searchURL != "" {
		return lookup.NewAPIClient(opts.searchURL, opts.timeout), nil
	}

	certKey := opts.certKey
	if certKey == "" {
		certKey = os.Getenv("SEOJI_CERT_KEY")
	}
	if certKey == "" {
		certKey = os.Getenv("API_KEY")
	}
	if certKey == "" {
		return nil, fmt.Errorf("API 인증 정보가 설정되지 않았습니다 (--cert-key 또는 SEOJI_CERT_KEY)")
	}
	return lookup.NewSeojiClient(opts.seojiURL, certKey, opts.timeout), nil
}

func containsColumn(columns []string, col string) bool {
	for _, c := range columns {
		if c == col {
			return true
		}
	}
	return false
}
