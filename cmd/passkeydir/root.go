package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/passkeydir/internal/config"
)

// NewRootCmd creates the root command. Running it without a subcommand
// performs a crawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passkeydir",
		Short: "Build the passkey directory dataset",
		Long: `passkeydir reads a JSON array of domains and visits each site to collect
its display name, description, best available icon, and the passkey
endpoints published at /.well-known/passkey-endpoints.

Every input domain produces exactly one record. Sites that cannot be
reached keep empty fields; the crawl itself only fails when the domain
list cannot be read.

Examples:
  # Crawl with the default paths
  passkeydir

  # Crawl a custom list and write a Markdown summary
  passkeydir -i domains.json -o public/domains.json --markdown crawl.md

  # Route all requests through a SOCKS5 proxy
  passkeydir --proxy 127.0.0.1:1080

Configuration file (.passkeydir) example:
  sites:
    example.com:
      cookie: "consent=yes"
      headers:
        Accept-Language: "de-DE"
    slow.example:
      skipIcon: true`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCrawlCmd,
	}

	cmd.PersistentFlags().BoolP("debug", "D", false, "Enable debug logging on stderr")

	cmd.Flags().StringP("input", "i", config.DefaultInputPath,
		"JSON file holding the array of domains")
	cmd.Flags().StringP("output", "o", config.DefaultOutputPath,
		"JSON dataset to write (overwritten on every run)")
	cmd.Flags().StringP("public-dir", "p", config.DefaultPublicDir,
		"Static site root; icons are saved to its icons/ directory")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of domains processed at the same time")
	cmd.Flags().Duration("page-timeout", config.DefaultPageTimeout,
		"Timeout for page and well-known requests")
	cmd.Flags().Duration("asset-timeout", config.DefaultAssetTimeout,
		"Timeout for icon and manifest requests")
	cmd.Flags().Float64("rate", config.DefaultRequestsPerSecond,
		"Maximum requests per second (0 disables the limit)")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .passkeydir in current or home directory)")
	cmd.Flags().StringP("markdown", "m", "",
		"Also write a Markdown crawl summary to this file")
	cmd.Flags().Bool("no-history", false,
		"Do not store this run in the history database")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getDebugFlag retrieves the debug flag from the command or the root.
func getDebugFlag(cmd *cobra.Command) bool {
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		debug, err = cmd.Root().PersistentFlags().GetBool("debug")
		if err != nil {
			return false
		}
	}
	return debug
}
