package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-state/internal/model"
)

func init() {
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search-result cache",
	}

	putCmd := &cobra.Command{
		Use:   "put [results-json]",
		Short: "Store search results",
		Long:  `Store an ordered list of search results under a key. Results are a JSON array of {"title","body"} objects, given as a positional arg or piped via stdin.`,
		RunE:  runSearchPut,
	}
	putCmd.Flags().StringP("key", "k", "", "Query key (required)")
	putCmd.MarkFlagRequired("key")

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Look up cached search results",
		RunE:  runSearchGet,
	}
	getCmd.Flags().StringP("key", "k", "", "Query key (required)")
	getCmd.MarkFlagRequired("key")

	searchCmd.AddCommand(putCmd, getCmd)
	RootCmd.AddCommand(searchCmd)
}

func runSearchPut(cmd *cobra.Command, args []string) error {
	key, _ := cmd.Flags().GetString("key")
	raw, err := readContent(cmd, args)
	if err != nil {
		return err
	}

	var results []model.SearchResult
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return fmt.Errorf("parse results: %w", err)
	}

	return withState(cmd, true, func(s *session) error {
		s.state.StoreSearch(key, results)
		return printOK(cmd, "key", key, "results", len(results))
	})
}

func runSearchGet(cmd *cobra.Command, args []string) error {
	key, _ := cmd.Flags().GetString("key")
	return withState(cmd, false, func(s *session) error {
		results, found := s.state.StoredSearch(key)
		if !found {
			return printJSON(cmd, map[string]any{"found": false})
		}
		if s.cfg.Format == "text" {
			for i, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n   %s\n", i+1, r.Title, r.Body)
			}
			return nil
		}
		return printJSON(cmd, map[string]any{"found": true, "results": results})
	})
}
