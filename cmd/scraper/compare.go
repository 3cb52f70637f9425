package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/domain-scraper/internal/normalize"
	"github.com/domain-scraper/internal/postal"
)

// createCompareCmd shows how close two listings' addresses are, e.g. the
// website's and the Maps panel's
func createCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare [address-a] [address-b]",
		Short: "Compare two addresses after normalization",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			canA, zipA, tokensA := normalize.CanonicalAddress(args[0])
			canB, zipB, tokensB := normalize.CanonicalAddress(args[1])

			fmt.Printf("A: %s [zip %s]\n", canA, zipA)
			fmt.Printf("B: %s [zip %s]\n", canB, zipB)
			fmt.Printf("Token overlap: %.2f\n", normalize.TokenOverlap(tokensA, tokensB))

			keyA := normalize.CanonicalKey(postal.Parse("a", args[0]))
			keyB := normalize.CanonicalKey(postal.Parse("b", args[1]))
			fmt.Printf("Same key: %v\n", keyA != "" && keyA == keyB)
		},
	}
}
