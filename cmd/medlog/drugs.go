// ABOUTME: CLI commands for browsing the built-in drug catalog.
// ABOUTME: Supports ranked fuzzy search, plain substring search, and category listing.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	drugsLimit   int
	drugsExact   bool
	drugsTCM     bool
	drugsWestern bool
)

var drugsCmd = &cobra.Command{
	Use:     "drugs",
	Aliases: []string{"d", "catalog"},
	Short:   "Browse the drug catalog",
	Long: `Browse the built-in catalog of western and traditional Chinese
medicines. Medications added under a catalog name get their category
filled in, which the interaction checker relies on.

EXAMPLES:

  medlog drugs search aspirin
  medlog drugs search 阿司匹林
  medlog drugs search ibuprofn          # Typos are tolerated
  medlog drugs search pain --exact      # Substring match only
  medlog drugs categories --tcm`,
}

var drugsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		cat := catalog()
		faint := color.New(color.Faint)

		shown := 0
		if drugsExact {
			for _, d := range cat.Search(query) {
				if drugsLimit > 0 && shown >= drugsLimit {
					break
				}
				fmt.Printf("%s %s\n", padRight(d.Name, 24), faint.Sprint(d.FullPath))
				shown++
			}
		} else {
			for _, r := range cat.SearchRanked(query) {
				if drugsLimit > 0 && shown >= drugsLimit {
					break
				}
				fmt.Printf("%s %s %s\n", faint.Sprintf("%.2f", r.Score), padRight(r.Drug.Name, 24), faint.Sprint(r.Drug.FullPath))
				shown++
			}
		}

		if shown == 0 {
			fmt.Println("No drugs found.")
		}
		return nil
	},
}

var drugsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List catalog categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		if drugsTCM && drugsWestern {
			return fmt.Errorf("--tcm and --western are mutually exclusive")
		}
		var tcm *bool
		switch {
		case drugsTCM:
			v := true
			tcm = &v
		case drugsWestern:
			v := false
			tcm = &v
		}
		for _, c := range catalog().Categories(tcm) {
			fmt.Println(c)
		}
		return nil
	},
}

func init() {
	drugsSearchCmd.Flags().IntVarP(&drugsLimit, "limit", "n", 20, "max number of results (0 for all)")
	drugsSearchCmd.Flags().BoolVar(&drugsExact, "exact", false, "substring match instead of ranked search")
	drugsCategoriesCmd.Flags().BoolVar(&drugsTCM, "tcm", false, "only traditional Chinese medicine")
	drugsCategoriesCmd.Flags().BoolVar(&drugsWestern, "western", false, "only western medicine")

	drugsCmd.AddCommand(drugsSearchCmd)
	drugsCmd.AddCommand(drugsCategoriesCmd)
	rootCmd.AddCommand(drugsCmd)
}
