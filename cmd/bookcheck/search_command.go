package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bookcheck/internal/lookup"
	"bookcheck/internal/normalize"
)

func newSearchCommand() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "search <isbn>",
		Short: "Look up a single ISBN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.certKey, "cert-key", "", "Bibliographic API certification key (default: SEOJI_CERT_KEY or API_KEY env)")
	cmd.Flags().StringVar(&opts.seojiURL, "seoji-url", lookup.DefaultSeojiURL, "Bibliographic API endpoint")
	cmd.Flags().StringVar(&opts.searchURL, "search-url", "", "Use a deployed server's /api/search endpoint instead of direct API access")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Lookup timeout")

	return cmd
}

func runSearch(cmd *cobra.Command, rawISBN string, opts validateOptions) error {
	isbn := normalize.CleanISBN(rawISBN)
	if isbn == "" {
		return fmt.Errorf("유효한 ISBN이 아닙니다: %s", rawISBN)
	}

	client, err := buildClient(opts)
	if err != nil {
		return err
	}

	record, err := client.Lookup(cmd.Context(), isbn)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("API에서 결과를 찾을 수 없습니다")
	}

	out := cmd.OutOrStdout()
	headers := []string{"항목", "값"}
	rows := [][]string{
		{"도서명", record.Title},
		{"ISBN", record.ISBN},
		{"가격", normalize.FormatPrice(record.Discount)},
		{"작가명", record.Author},
		{"출판사", record.Publisher},
		{"출판일", normalize.FormatPubDate(record.PubDate)},
	}
	fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft}))
	return nil
}
