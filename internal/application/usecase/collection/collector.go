// Package collection walks every reachable tab state of a page and
// gathers the data tables each state reveals. Tables are deduplicated by
// node identity, activation is undone afterwards, and each table carries
// the tab path it was found under.
package collection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"insight-exporter/internal/application/port/output"
	"insight-exporter/internal/application/usecase/discovery"
	"insight-exporter/internal/domain/dom"
	"insight-exporter/internal/domain/entity"
)

// ActiveTabLabel tags tables that were already visible before any tab
// was touched.
const ActiveTabLabel = "Currently Active Tab"

type Config struct {
	// SettleQuiet is how long the DOM must stay mutation-free after a
	// tab activation before its panel is scanned.
	SettleQuiet time.Duration
	// SettleCeiling caps the wait for a noisy page that never goes quiet.
	SettleCeiling time.Duration
	// MaxDepth bounds recursion into nested tab widgets.
	MaxDepth int
}

func DefaultConfig() Config {
	return Config{
		SettleQuiet:   300 * time.Millisecond,
		SettleCeiling: 1200 * time.Millisecond,
		MaxDepth:      5,
	}
}

type Collector struct {
	doc        dom.Document
	scanner    *discovery.Scanner
	strategies []TabStrategy
	cfg        Config
	log        output.LoggerPort
}

func NewCollector(doc dom.Document, scanner *discovery.Scanner, cfg Config, log output.LoggerPort) *Collector {
	if cfg.SettleCeiling < cfg.SettleQuiet {
		cfg.SettleCeiling = cfg.SettleQuiet
	}
	return &Collector{
		doc:        doc,
		scanner:    scanner,
		strategies: DefaultStrategies(),
		cfg:        cfg,
		log:        log,
	}
}

// activeRecord remembers a trigger that was selected before the walk, so
// the page can be put back afterwards.
type activeRecord struct {
	strategy TabStrategy
	trigger  dom.Element
}

// Collect visits every tab state reachable from the page's current
// state and returns all distinct visible tables found along the way.
// The page is restored to its original tab state before returning, even
// when the walk is cut short by ctx.
func (c *Collector) Collect(ctx context.Context) ([]entity.DiscoveredTable, error) {
	root, err := c.doc.Root()
	if err != nil {
		return nil, fmt.Errorf("resolve document root: %w", err)
	}

	snapshot := c.snapshotActive(root)
	seen := make(map[string]bool)
	var tables []entity.DiscoveredTable

	c.collectScope(root, "", true, seen, &tables)

	walkErr := c.walk(ctx, root, root, "", 0, seen, &tables)

	c.restoreActive(ctx, snapshot)
	if walkErr != nil {
		return tables, walkErr
	}

	// Restoration can reveal tables the baseline pass missed, for
	// example when the page loaded with no tab selected at all.
	c.collectScope(root, "", true, seen, &tables)

	c.log.Info("collection finished", "tables", len(tables))
	return tables, nil
}

// walk processes the tab triggers directly owned by scope. Triggers
// buried in a panel below scope are left to the recursive call on that
// panel so their tab path reflects the nesting.
func (c *Collector) walk(ctx context.Context, root, scope dom.Element, path string, depth int, seen map[string]bool, out *[]entity.DiscoveredTable) error {
	if depth >= c.cfg.MaxDepth {
		c.log.Warn("tab nesting exceeds depth limit, skipping", "path", path, "depth", depth)
		return nil
	}

	for _, strategy := range c.strategies {
		for i, trigger := range strategy.Triggers(scope) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if nestedInPanel(trigger, scope) {
				continue
			}

			label := c.triggerLabel(trigger, i)
			childPath := label
			if path != "" {
				childPath = path + " > " + label
			}

			if strategy.IsActive(trigger) {
				if panel, ok := strategy.Panel(root, trigger); ok {
					if err := c.walk(ctx, root, panel, childPath, depth+1, seen, out); err != nil {
						return err
					}
				}
				continue
			}

			if err := c.activate(ctx, trigger); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.log.Warn("tab activation failed, skipping",
					"tab", label, "strategy", strategy.Name(), "error", err)
				continue
			}

			// Resolve the panel only after activation: lazily mounted
			// panels do not exist before their first selection.
			target := root
			panel, ok := strategy.Panel(root, trigger)
			if ok {
				target = panel
			} else {
				c.log.Debug("panel not resolved, scanning whole page", "tab", label)
			}

			c.collectScope(target, childPath, false, seen, out)

			if ok {
				if err := c.walk(ctx, root, panel, childPath, depth+1, seen, out); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// collectScope scans one scope and appends tables not seen before.
// Hidden and empty tables are skipped.
func (c *Collector) collectScope(scope dom.Element, path string, baseline bool, seen map[string]bool, out *[]entity.DiscoveredTable) {
	for _, table := range c.scanner.Scan(scope) {
		if !table.Visible || table.RowCount == 0 {
			continue
		}
		if seen[table.ID] {
			continue
		}
		seen[table.ID] = true

		if baseline {
			table.TabPath = ActiveTabLabel
		} else {
			table.TabPath = path
			table.Name = path + " — " + table.Name
		}
		*out = append(*out, table)
	}
}

func (c *Collector) activate(ctx context.Context, trigger dom.Element) error {
	if err := trigger.ScrollIntoView(); err != nil {
		c.log.Debug("scroll into view failed", "error", err)
	}
	if err := trigger.Focus(); err != nil {
		c.log.Debug("focus failed", "error", err)
	}
	if err := trigger.Click(); err != nil {
		return fmt.Errorf("click trigger: %w", err)
	}
	return c.settle(ctx)
}

func (c *Collector) settle(ctx context.Context) error {
	return c.doc.WaitStable(ctx, c.cfg.SettleQuiet, c.cfg.SettleCeiling)
}

// snapshotActive records every selected trigger anywhere in the tree,
// including ones inside panels that are currently hidden.
func (c *Collector) snapshotActive(root dom.Element) []activeRecord {
	var records []activeRecord
	for _, strategy := range c.strategies {
		for _, trigger := range strategy.Triggers(root) {
			if strategy.IsActive(trigger) {
				records = append(records, activeRecord{strategy: strategy, trigger: trigger})
			}
		}
	}
	return records
}

// restoreActive re-selects the originally active triggers in reverse
// document order, so inner widgets settle before the outer ones swap
// panels back. Failures are logged and skipped: a half-restored page is
// better than an aborted export.
func (c *Collector) restoreActive(ctx context.Context, records []activeRecord) {
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if rec.strategy.IsActive(rec.trigger) {
			continue
		}
		if err := rec.trigger.Click(); err != nil {
			c.log.Warn("tab restore failed", "error", err)
			continue
		}
		if err := c.settle(ctx); err != nil {
			c.log.Warn("settle after restore failed", "error", err)
		}
	}
}

func (c *Collector) triggerLabel(trigger dom.Element, index int) string {
	if text := collapse(trigger.Text()); text != "" {
		return text
	}
	if label, ok := trigger.Attribute("aria-label"); ok && collapse(label) != "" {
		return collapse(label)
	}
	return fmt.Sprintf("Tab %d", index+1)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
