package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/masjidkeu/internal/client/masterdata"
)

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: delete <regional|daerah|tingkat> ID", ErrUsage)
	}

	resource, err := masterdata.ParseResource(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if err := c.masterData.Delete(ctx, resource, args[1]); err != nil {
		return err
	}

	c.io.Printf("✓ %s %s deleted\n", resource, args[1])
	return nil
}
