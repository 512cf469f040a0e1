package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var provRebuild bool

// provincesCmd resolves and persists province boundaries
var provincesCmd = &cobra.Command{
	Use:   "provinces",
	Short: "Build the province boundary file from listings and municipality boundaries",
	Long: `Resolve each municipality to its province using the listings, dissolve the
municipality outlines into one boundary per province and write them to
PROVINCES_PATH. An existing file is reused unless --rebuild is given.`,
	Args: cobra.NoArgs,
	RunE: runProvinces,
}

func init() {
	provincesCmd.Flags().BoolVar(&provRebuild, "rebuild", false, "ignore the cached province file")
}

func runProvinces(cmd *cobra.Command, args []string) error {
	session, err := openSession(context.Background(), provRebuild)
	if err != nil {
		return err
	}

	provinces, err := session.ProvinceBoundaries()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range provinces {
		fmt.Fprintf(out, "%-24s %3d communes  %s\n", p.Province, len(p.Communes), preview(p.Communes, 5))
	}
	fmt.Fprintf(out, "%d provinces → %s\n", len(provinces), cfg.ProvincesPath)
	return nil
}

func preview(names []string, n int) string {
	if len(names) <= n {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:n], ", ") + fmt.Sprintf(", … (+%d)", len(names)-n)
}
