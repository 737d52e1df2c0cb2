package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/takeoff/internal/plan"
)

var infoCmd = &cobra.Command{
	Use:   "info [image or directory]",
	Short: "Display information about plan sheets",
	Long:  "Show the page id, format and pixel size of a plan image, or of every plan image in a directory.",
	Args:  cobra.ExactArgs(1),
	Run:   runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) {
	target := args[0]
	st, err := os.Stat(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var pages []plan.Page
	if st.IsDir() {
		var skipped []error
		pages, skipped, err = plan.Dir(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, err := range skipped {
			fmt.Fprintf(os.Stderr, "Skipped: %v\n", err)
		}
	} else {
		page, err := plan.Open(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		pages = append(pages, page)
	}

	fmt.Println("Plan Sheets")
	fmt.Println("===========")
	for _, p := range pages {
		fmt.Printf("  %-16s %-5s %6.0f x %-6.0f %s\n", p.ID, p.Format, p.Size.Width, p.Size.Height, p.Path)
	}
	fmt.Printf("\n%d sheet(s)\n", len(pages))
}
