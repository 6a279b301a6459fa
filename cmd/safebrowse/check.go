package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"safebrowse/internal/guard"
	"safebrowse/internal/models"

	"github.com/spf13/cobra"
)

var checkLocalOnly bool

var checkCmd = &cobra.Command{
	Use:   "check <text...>",
	Short: "Assess a query without recording it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkLocalOnly, "local", false, "Only run the denylist, never the external classifier")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	input := strings.TrimSpace(strings.Join(args, " "))
	if input == "" {
		return fmt.Errorf("nothing to check")
	}

	denylist, err := guard.Load(cfg.Guard.DenylistPath)
	if err != nil {
		return fmt.Errorf("failed to load denylist: %w", err)
	}

	out := struct {
		Input      string                 `json:"input"`
		Source     string                 `json:"source"`
		Assessment *models.RiskAssessment `json:"assessment,omitempty"`
	}{Input: input, Source: "guard"}

	if a := denylist.Check(input); a != nil {
		out.Assessment = a
	} else if !checkLocalOnly {
		adapter, err := newAdapter(cfg, logger)
		if err != nil {
			return err
		}
		defer adapter.Close()

		assessment := adapter.Classify(cmd.Context(), input)
		out.Source = "classifier"
		out.Assessment = &assessment
	} else {
		out.Source = "none"
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
