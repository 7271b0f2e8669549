package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/book-search-client/pkg/engine"
	"github.com/spf13/cobra"
)

func newSearchCmd(opts *options) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a single catalog search and print one page",
		Example: `  bookscout search dune
  bookscout search "science fiction" --page 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return fmt.Errorf("--page must be >= 1 (got %d)", page)
			}
			ctx := cmd.Context()

			a, err := newApp(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := engine.New(ctx, a.catalog, a.engineConfig())
			if err != nil {
				return err
			}
			defer e.Close()

			view, err := searchPage(ctx, e, strings.Join(args, " "), page)
			if err != nil {
				return err
			}
			printView(cmd.OutOrStdout(), view)
			if view.Err != nil {
				return view.Err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page to show")

	return cmd
}

// searchPage drives e to page of query and waits for it to settle.
func searchPage(ctx context.Context, e *engine.Engine, query string, page int) (engine.View, error) {
	e.SetQuery(query)
	if _, err := e.WaitSettled(ctx); err != nil {
		return engine.View{}, err
	}
	if page > 1 {
		e.OnPageRequest(page)
	}
	return e.WaitSettled(ctx)
}

func printView(w io.Writer, v engine.View) {
	fmt.Fprintf(w, "%q page %d\n\n", v.Query, v.CurrentPage)

	switch {
	case v.Err != nil:
		fmt.Fprintln(w, "  page could not be loaded")
	case len(v.Items) == 0:
		fmt.Fprintln(w, "  no results")
	}
	for _, it := range v.Items {
		line := it.Title
		if len(it.Authors) > 0 {
			line += " by " + strings.Join(it.Authors, ", ")
		}
		if it.PublishedDate != "" {
			line += " (" + it.PublishedDate + ")"
		}
		fmt.Fprintf(w, "  %-24s %s\n", it.ID, line)
	}

	labels := make([]string, 0, len(v.Window))
	for _, b := range v.Window {
		if !b.Ellipsis && b.Page == v.CurrentPage {
			labels = append(labels, "["+b.String()+"]")
			continue
		}
		labels = append(labels, b.String())
	}
	if len(labels) > 0 {
		fmt.Fprintf(w, "\npages: %s\n", strings.Join(labels, " "))
	}
}
