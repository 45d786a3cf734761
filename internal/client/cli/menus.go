package cli

import (
	"context"
	"encoding/json"
	"fmt"
)

// menuEntry: поля пункта меню, которые встречаются в ответе login
type menuEntry struct {
	Title string `json:"title"`
	Name  string `json:"name"`
	Label string `json:"label"`
	Path  string `json:"path"`
	URL   string `json:"url"`
}

func (e menuEntry) caption() string {
	for _, s := range []string{e.Title, e.Name, e.Label} {
		if s != "" {
			return s
		}
	}
	return "(untitled)"
}

func (e menuEntry) target() string {
	if e.Path != "" {
		return e.Path
	}
	return e.URL
}

func (c *Cli) runMenus(ctx context.Context) error {
	menus, err := c.store.Menus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read menus: %w", err)
	}

	c.io.Println("=== Menus ===")
	c.io.Println()

	if menus == nil || (len(menus.Flat) == 0 && len(menus.Tree) == 0) {
		c.io.Println("No menus stored. They are received at login.")
		return nil
	}

	for _, raw := range menus.Flat {
		var entry menuEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			// Не объект: выводим как есть
			c.io.Printf("  - %s\n", string(raw))
			continue
		}
		if target := entry.target(); target != "" {
			c.io.Printf("  - %s (%s)\n", entry.caption(), target)
		} else {
			c.io.Printf("  - %s\n", entry.caption())
		}
	}

	c.io.Println()
	c.io.Printf("Flat items: %d, tree roots: %d\n", len(menus.Flat), len(menus.Tree))
	return nil
}
