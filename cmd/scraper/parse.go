package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/domain-scraper/internal/normalize"
	"github.com/domain-scraper/internal/postal"
	"github.com/domain-scraper/internal/validation"
)

func createParseCmd() *cobra.Command {
	var (
		identifier string
		libpostal  bool
		asJSON     bool
		debugMode  bool
	)

	cmd := &cobra.Command{
		Use:   "parse [address...]",
		Short: "Parse one address, or one per line from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := postal.NewAddressParser()
			tally := postal.NewTally()

			handle := func(raw string) error {
				rec := parser.ParseDebug(debugMode, identifier, raw)
				tally.Add(rec.Status)

				if asJSON {
					data, err := json.Marshal(rec)
					if err != nil {
						return err
					}
					fmt.Println(string(data))
				} else {
					fmt.Println(rec)
					if key := normalize.CanonicalKey(rec); key != "" {
						fmt.Printf("  key: %s\n", key)
					}
					q := validation.Check(rec)
					fmt.Printf("  quality: %.2f usable=%v\n", q.Confidence, q.Usable())
					for _, issue := range q.Issues() {
						fmt.Printf("    - %s\n", issue)
					}
				}

				if libpostal {
					comp, err := postal.LibpostalParse(raw)
					if errors.Is(err, postal.ErrLibpostalUnavailable) {
						return err
					}
					if err != nil {
						fmt.Printf("  libpostal: error: %v\n", err)
						return nil
					}
					fmt.Printf("  libpostal: street=%q city=%q state=%q postcode=%q\n",
						comp.Street(), comp.City, comp.State, comp.Postcode)
				}
				return nil
			}

			if len(args) > 0 {
				return handle(strings.Join(args, " "))
			}

			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				if err := handle(scanner.Text()); err != nil {
					return err
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			if !asJSON && tally.Total() > 1 {
				fmt.Println()
				printTally(tally)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&identifier, "id", "", "identifier to carry on the record")
	cmd.Flags().BoolVar(&libpostal, "libpostal", false, "also show libpostal's decomposition (needs -tags libpostal)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "log parser decisions")
	return cmd
}
