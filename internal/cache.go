package pmugraph

import "sort"

type Cache struct {
	Backend
	events []Event
}

// GetEvents returns the backend catalogue, fetched once
func (c *Cache) GetEvents() ([]Event, error) {
	if c.events == nil {
		events, err := c.Backend.Events()
		if err != nil {
			return nil, err
		}
		c.events = events
	}
	return c.events, nil
}

func (c *Cache) NumberOfEvents() int {
	events, _ := c.GetEvents()
	return len(events)
}

// EventsByType groups the catalogue by event type name, sorted by name
func (c *Cache) EventsByType() (map[string][]Event, []string, error) {
	events, err := c.GetEvents()
	if err != nil {
		return nil, nil, err
	}
	groups := make(map[string][]Event)
	var names []string
	for _, e := range events {
		name := e.EventType().Name()
		if _, ok := groups[name]; !ok {
			names = append(names, name)
		}
		groups[name] = append(groups[name], e)
	}
	sort.Strings(names)
	return groups, names, nil
}
