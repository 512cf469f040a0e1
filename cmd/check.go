package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var errInconsistent = errors.New("dataset is inconsistent")

// checkCmd reports join problems between listings and boundaries
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report listings and boundaries that do not line up",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	session, err := openSession(context.Background(), false)
	if err != nil {
		return err
	}

	r, err := session.Check()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	section(out, "Provinces in listings", r.ListingProvinces)
	section(out, "Provinces in boundary file", r.BoundaryProvinces)
	section(out, "Provinces without a boundary", r.MissingProvinces)
	section(out, "Boundaries without listings", r.ExtraProvinces)
	conflicts := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		conflicts = append(conflicts, fmt.Sprintf("%s (%s)", c.City, strings.Join(c.Provinces, ", ")))
	}
	section(out, "Cities in several provinces", conflicts)
	section(out, "Cities without a municipality boundary", r.Unmatched)
	section(out, "Municipalities without a province", r.Unassigned)

	if !r.OK() {
		return errInconsistent
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func section(w io.Writer, title string, items []string) {
	fmt.Fprintf(w, "%s (%d)\n", title, len(items))
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}
