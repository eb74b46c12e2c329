package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_EmptyUpdateIgnored(t *testing.T) {
	var s Store

	s.Update("sess-1")
	s.Update("")

	assert.Equal(t, "sess-1", s.Current())
}

func TestStore_FresherIDWins(t *testing.T) {
	var s Store

	assert.Empty(t, s.Current())

	s.Update("sess-1")
	s.Update("sess-2")

	assert.Equal(t, "sess-2", s.Current())
}
