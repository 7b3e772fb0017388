// Package catalog serves the reference lists forms choose from.
package catalog

import (
	"fmt"
	"strings"

	"github.com/careplus/frontdesk/internal/model"
)

type Catalog struct {
	specialists []model.Specialist
	byID        map[int]model.Specialist
	timeOptions []string
}

// New checks that specialist ids are positive and unique and labels non-empty.
func New(specialists []model.Specialist, timeOptions []string) (*Catalog, error) {
	c := &Catalog{
		byID:        make(map[int]model.Specialist, len(specialists)),
		timeOptions: append([]string(nil), timeOptions...),
	}
	for _, s := range specialists {
		s.Label = strings.TrimSpace(s.Label)
		if s.ID <= 0 {
			return nil, fmt.Errorf("specialist %q: id must be positive", s.Label)
		}
		if s.Label == "" {
			return nil, fmt.Errorf("specialist %d: label is empty", s.ID)
		}
		if prev, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("specialist id %d used by %q and %q", s.ID, prev.Label, s.Label)
		}
		c.byID[s.ID] = s
		c.specialists = append(c.specialists, s)
	}
	return c, nil
}

func (c *Catalog) Specialists() []model.Specialist {
	return append([]model.Specialist(nil), c.specialists...)
}

func (c *Catalog) Specialist(id int) (model.Specialist, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// TimeOptions are the slot labels offered when editing a doctor's calendar.
func (c *Catalog) TimeOptions() []string {
	return append([]string(nil), c.timeOptions...)
}
