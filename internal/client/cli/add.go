package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/iudanet/masjidkeu/internal/client/masterdata"
	pkgapi "github.com/iudanet/masjidkeu/pkg/api"
)

func (c *Cli) runCreate(ctx context.Context, args []string) error {
	const usage = "create <regional|daerah|tingkat> [-regional ID] KODE NAMA"
	if len(args) == 0 {
		return fmt.Errorf("%w: %s", ErrUsage, usage)
	}

	resource, err := masterdata.ParseResource(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(c.io)
	regionalID := fs.String("regional", "", "Regional id (daerah only)")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	rest := fs.Args()
	if len(rest) < 2 {
		return fmt.Errorf("%w: %s", ErrUsage, usage)
	}

	item := pkgapi.MasterItem{
		Kode: rest[0],
		// Название может состоять из нескольких слов
		Nama: strings.Join(rest[1:], " "),
	}
	if *regionalID != "" {
		item.RegionalID = *regionalID
	}

	created, err := c.masterData.Create(ctx, resource, item)
	if err != nil {
		return err
	}

	c.io.Printf("✓ %s created\n", resource)
	c.io.Printf("ID:   %s\n", formatID(created.ID))
	c.io.Printf("Kode: %s\n", created.Kode)
	c.io.Printf("Nama: %s\n", created.Nama)
	return nil
}
