package pmugraph

import (
	"fmt"
	"io"
)

// ListEvents prints the catalogue of a backend grouped by event type
func ListEvents(w io.Writer, b Backend) error {
	c := Cache{Backend: b}
	groups, names, err := c.EventsByType()
	if err != nil {
		return fmt.Errorf("failed to list %s events: %w", b.Name(), err)
	}

	fmt.Fprintf(w, "%s: %d events\n", b.Name(), c.NumberOfEvents())
	for _, name := range names {
		events := groups[name]
		et := events[0].EventType()
		header := name
		if unit := et.Unit(); unit != "" {
			header += " [" + unit + "]"
		}
		if lo, hi, ok := et.Range(); ok {
			header += fmt.Sprintf(" range %g..%g", lo, hi)
		}
		fmt.Fprintln(w, header)
		for _, e := range events {
			fmt.Fprintf(w, "  %s\n", e.Name())
		}
	}
	return nil
}
