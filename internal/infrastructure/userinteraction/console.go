// Package userinteraction prompts the operator on the terminal.
package userinteraction

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"insight-exporter/internal/application/port/output"
	"insight-exporter/internal/domain/entity"
)

var _ output.TableSelectorPort = (*ConsoleSelector)(nil)

type ConsoleSelector struct {
	reader *bufio.Reader
}

func NewConsoleSelector() *ConsoleSelector {
	return &ConsoleSelector{
		reader: bufio.NewReader(os.Stdin),
	}
}

// SelectTables lists the discovered tables and reads a selection
// expression. An empty answer selects everything.
func (s *ConsoleSelector) SelectTables(tables []entity.DiscoveredTable) ([]entity.DiscoveredTable, error) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("\nDiscovered %d table(s)\n", len(tables))

	dim := color.New(color.Faint)
	for i, table := range tables {
		fmt.Printf("  %2d. %s", i+1, table.Name)
		dim.Printf("  (%d rows x %d columns", table.RowCount, table.ColumnCount)
		if table.TabPath != "" {
			dim.Printf(", %s", table.TabPath)
		}
		dim.Println(")")
	}

	fmt.Print("\nSelect tables to export (e.g. 1,3-5 or 'all')\n> ")
	answer, err := s.reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read selection: %w", err)
	}

	return FilterSelection(tables, answer)
}

// FilterSelection resolves a selection expression against the discovered
// tables. Accepted forms: "all", the empty string (same as all), and
// comma-separated 1-based indexes or ranges such as "1,3-5". Duplicate
// picks collapse to one entry.
func FilterSelection(tables []entity.DiscoveredTable, expr string) ([]entity.DiscoveredTable, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || strings.EqualFold(expr, "all") {
		return tables, nil
	}

	picked := make([]entity.DiscoveredTable, 0, len(tables))
	taken := make(map[int]bool)
	for _, token := range strings.Split(expr, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		from, to, err := parseToken(token)
		if err != nil {
			return nil, err
		}
		if from < 1 || to > len(tables) || from > to {
			return nil, fmt.Errorf("selection %q out of range 1-%d", token, len(tables))
		}
		for i := from; i <= to; i++ {
			if taken[i] {
				continue
			}
			taken[i] = true
			picked = append(picked, tables[i-1])
		}
	}

	if len(picked) == 0 {
		return nil, fmt.Errorf("selection %q matches no tables", expr)
	}
	return picked, nil
}

func parseToken(token string) (from, to int, err error) {
	if low, high, ok := strings.Cut(token, "-"); ok {
		from, err = strconv.Atoi(strings.TrimSpace(low))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid selection %q", token)
		}
		to, err = strconv.Atoi(strings.TrimSpace(high))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid selection %q", token)
		}
		return from, to, nil
	}

	from, err = strconv.Atoi(token)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid selection %q", token)
	}
	return from, from, nil
}
