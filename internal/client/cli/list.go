package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/iudanet/masjidkeu/internal/client/masterdata"
	pkgapi "github.com/iudanet/masjidkeu/pkg/api"
)

func (c *Cli) runList(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: list <regional|daerah|tingkat> [OPTIONS] [SEARCH]", ErrUsage)
	}

	resource, err := masterdata.ParseResource(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(c.io)
	page := fs.Int("page", 1, "Page number")
	limit := fs.Int("limit", 10, "Rows per page")
	sortBy := fs.String("sort", "", "Sort field")
	order := fs.String("order", "", "Sort order: ASC or DESC")
	regionalID := fs.String("regional", "", "Filter daerah by regional id")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	params := masterdata.ListParams{
		Search:     strings.Join(fs.Args(), " "),
		SortBy:     *sortBy,
		RegionalID: *regionalID,
		Page:       *page,
		Limit:      *limit,
	}
	switch pkgapi.SortOrder(strings.ToUpper(*order)) {
	case "":
	case pkgapi.SortAsc:
		params.SortOrder = pkgapi.SortAsc
	case pkgapi.SortDesc:
		params.SortOrder = pkgapi.SortDesc
	default:
		return fmt.Errorf("%w: order must be ASC or DESC", ErrUsage)
	}

	res, err := c.masterData.List(ctx, resource, params)
	if err != nil {
		return err
	}

	c.io.Printf("=== %s ===\n", strings.ToUpper(string(resource)))
	c.io.Println()

	if len(res.Items) == 0 {
		c.io.Println("No rows found.")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKODE\tNAMA")
	for _, item := range res.Items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", formatID(item.ID), item.Kode, item.Nama)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to print table: %w", err)
	}

	return listFooterTmpl.Execute(c.io, res)
}
