package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	processAutoApply bool
	processWorkers   int
)

var processCmd = &cobra.Command{
	Use:   "process <issue-number> [issue-number ...]",
	Short: "Process one or more issues from the command line",
	Long: `Process fetches the given issues, analyzes them, and prints the results
as JSON. With --auto-apply the recommended labels, assignee, and summary
comment are applied to the issues.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&processAutoApply, "auto-apply", false, "apply recommended actions to the issues")
	processCmd.Flags().IntVar(&processWorkers, "workers", 0, "concurrent workers (default from config)")
	rootCmd.AddCommand(processCmd)
}

func parseIssueNumbers(args []string) ([]int, error) {
	numbers := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid issue number: %q", arg)
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	numbers, err := parseIssueNumbers(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if processWorkers > 0 {
		cfg.Batch.Workers = processWorkers
	}

	c, err := initComponents(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing components: %w", err)
	}
	defer c.Close()

	batch := c.Processor.ProcessBatch(cmd.Context(), numbers, processAutoApply)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(batch); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}

	if batch.Failed > 0 {
		return fmt.Errorf("%d of %d issues failed", batch.Failed, batch.TotalProcessed)
	}
	return nil
}
