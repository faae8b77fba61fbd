package main

import (
	"fmt"

	"github.com/Stage2Sec/frenzy/internal/config"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the configuration needed to run the bot",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	checks := []struct {
		name string
		ok   bool
		hint string
	}{
		{"config file", config.Exists(), "run 'frenzy setup'"},
		{"slack token", cfg.SlackToken != "", "set FRENZY_SLACK_TOKEN or slack_token"},
		{"npk api url", cfg.NpkAPIURL != "", "set FRENZY_NPK_API_URL or npk_api_url"},
		{"userdata bucket", cfg.UserdataBucket != "", "set FRENZY_USERDATA_BUCKET or userdata_bucket"},
		{"dictionary buckets", len(cfg.DictionaryBuckets) > 0, "set dictionary_buckets per region"},
	}

	failed := 0
	for _, c := range checks {
		mark := "✓"
		if !c.ok {
			mark = "✗"
			failed++
		}
		fmt.Printf("%s %s", mark, c.name)
		if !c.ok {
			fmt.Printf(" (%s)", c.hint)
		}
		fmt.Println()
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Println("\nAll checks passed.")
	return nil
}
