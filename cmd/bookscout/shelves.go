package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newShelvesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "shelves",
		Short: "Print the curated genre and popular shelves",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.shelves()
			if err != nil {
				return err
			}

			shelves, err := svc.Shelves(ctx)
			w := cmd.OutOrStdout()
			for _, s := range shelves {
				fmt.Fprintf(w, "%s\n", s.Title)
				for _, it := range s.Items {
					line := it.Title
					if len(it.Authors) > 0 {
						line += " by " + strings.Join(it.Authors, ", ")
					}
					fmt.Fprintf(w, "  %s\n", line)
				}
				fmt.Fprintln(w)
			}
			return err
		},
	}
}
