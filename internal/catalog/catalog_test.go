package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careplus/frontdesk/internal/model"
)

func TestLookupIsByIDNotPosition(t *testing.T) {
	c, err := New([]model.Specialist{{ID: 7, Label: "Cardiologist"}, {ID: 3, Label: " Dermatologist "}}, []string{"09:00"})
	require.NoError(t, err)

	s, ok := c.Specialist(3)
	require.True(t, ok)
	assert.Equal(t, "Dermatologist", s.Label)

	_, ok = c.Specialist(1)
	assert.False(t, ok)
	assert.Equal(t, []string{"09:00"}, c.TimeOptions())
	assert.Equal(t, 7, c.Specialists()[0].ID)
}

func TestRejectsBadEntries(t *testing.T) {
	for name, list := range map[string][]model.Specialist{
		"zero id":   {{ID: 0, Label: "GP"}},
		"blank":     {{ID: 1, Label: " "}},
		"duplicate": {{ID: 1, Label: "GP"}, {ID: 1, Label: "ENT"}},
	} {
		_, err := New(list, nil)
		assert.Error(t, err, name)
	}
}
