package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/passkeydir/internal/config"
	"github.com/nao1215/passkeydir/internal/database"
	"github.com/nao1215/passkeydir/internal/model"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [domain]",
		Short: "Show stored crawl runs",
		Long: `History reads the crawl history database.

Without arguments it lists past runs with their coverage counts. With a
domain it lists that domain's record in every run, newest first, and the
fields that changed between its two latest runs.

Examples:
  # List the last 10 runs
  passkeydir history

  # Show how example.com changed over time
  passkeydir history example.com

  # Print a domain's history as JSON
  passkeydir history --json example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", 10,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the history database")

	return cmd
}

// historyEntry is the JSON shape of one domain's record in a run.
type historyEntry struct {
	RunID     int64                `json:"runId"`
	StartedAt time.Time            `json:"startedAt"`
	Record    model.DomainRecord   `json:"record"`
	Changes   []model.RecordChange `json:"changes,omitempty"`
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("no crawl history found (run passkeydir first): %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		runs, err := db.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, runs)
		}
		return printRuns(out, runs)
	}

	domain := args[0]
	history, err := db.DomainHistory(ctx, domain)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("no history for %s", domain)
	}

	entries := make([]historyEntry, len(history))
	for i, h := range history {
		entries[i] = historyEntry{RunID: h.RunID, StartedAt: h.StartedAt, Record: h.Record}
		if i+1 < len(history) {
			entries[i].Changes = model.DiffRecords(history[i+1].Record, h.Record)
		}
	}

	if jsonOutput {
		return writeJSON(out, entries)
	}
	return printDomainHistory(out, domain, entries)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRuns(w io.Writer, runs []database.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded yet.")
		return err
	}

	fmt.Fprintf(w, "%-6s %-20s %-10s %8s %10s\n", "RUN", "STARTED", "DURATION", "DOMAINS", "ENRICHED")
	for _, r := range runs {
		fmt.Fprintf(w, "%-6d %-20s %-10s %8d %10d\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
			r.Total,
			r.Enriched,
		)
	}
	return nil
}

func printDomainHistory(w io.Writer, domain string, entries []historyEntry) error {
	fmt.Fprintf(w, "History for %s (%d runs)\n", domain, len(entries))

	latest := entries[0]
	fmt.Fprintf(w, "\nLatest (run %d, %s):\n", latest.RunID, latest.StartedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "  name:        %s\n", latest.Record.Name)
	fmt.Fprintf(w, "  description: %s\n", latest.Record.Description)
	fmt.Fprintf(w, "  icon:        %s\n", latest.Record.Icon)
	fmt.Fprintf(w, "  enroll:      %s\n", latest.Record.Endpoints.Enroll)
	fmt.Fprintf(w, "  manage:      %s\n", latest.Record.Endpoints.Manage)

	if len(entries) < 2 {
		_, err := fmt.Fprintln(w, "\nOnly one run recorded; nothing to compare.")
		return err
	}

	fmt.Fprintf(w, "\nChanges since run %d:\n", entries[1].RunID)
	if len(latest.Changes) == 0 {
		_, err := fmt.Fprintln(w, "  (none)")
		return err
	}
	for _, c := range latest.Changes {
		fmt.Fprintf(w, "  %s: %q -> %q\n", c.Field, c.Old, c.New)
	}
	return nil
}
