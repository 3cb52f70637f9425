package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/domain-scraper/internal/export"
	"github.com/domain-scraper/internal/postal"
	"github.com/domain-scraper/internal/store"
)

func createExportCmd() *cobra.Command {
	var (
		output       string
		status       string
		statusColumn bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored records to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.Filter{Limit: 500}
			if status != "" {
				s, err := postal.ParseStatusFromString(status)
				if err != nil {
					return err
				}
				filter.Status = s
			}

			conn, st, err := openStore()
			if err != nil {
				return err
			}
			defer conn.Close()

			writer, err := export.Create(output, statusColumn)
			if err != nil {
				return err
			}
			defer writer.Close()

			for {
				records, total, err := st.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				for _, rec := range records {
					if err := writer.Write(cmd.Context(), rec); err != nil {
						return err
					}
				}
				filter.Offset += len(records)
				if len(records) == 0 || filter.Offset >= total {
					break
				}
			}

			fmt.Printf("Exported %d records to %s\n", writer.Rows(), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", cfg.Scrape.Output, "CSV file to write")
	cmd.Flags().StringVar(&status, "status", "", "only export records with this parse status")
	cmd.Flags().BoolVar(&statusColumn, "status-column", cfg.Scrape.StatusColumn, "append a ParseStatus column")
	return cmd
}
