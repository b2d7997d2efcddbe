package logs

import (
	"github.com/crucial707/hci-catalog/cmd/cli/config"
	"github.com/crucial707/hci-catalog/cmd/cli/output"
	"github.com/spf13/cobra"
)

// InitLogs registers the audit log commands on the root command.
func InitLogs(rootCmd *cobra.Command) {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Read the catalog audit log",
	}
	logsCmd.AddCommand(listLogsCmd())
	rootCmd.AddCommand(logsCmd)
}

func listLogsCmd() *cobra.Command {
	var asJSON bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := config.NewSession()
			defer store.Close()

			if err := store.Load(config.Context(cmd)); err != nil {
				return err
			}

			records := store.AuditRecords()
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			if asJSON {
				return output.PrintJSON(records)
			}

			rows := make([][]interface{}, 0, len(records))
			for _, r := range records {
				rows = append(rows, []interface{}{output.Time(r.Timestamp), r.ActionType, r.EntityName, r.EntityID})
			}
			output.RenderTable([]string{"TIME", "ACTION", "PRODUCT", "PRODUCT ID"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many records (0 = all)")
	return cmd
}
