package session

import (
	"testing"
	"time"

	"safebrowse/internal/gate"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newManager() (*Manager, *int) {
	created := 0
	m := NewManager(func(string) *gate.Gate {
		created++
		return gate.New(nil, nil, nil, zap.NewNop())
	}, zap.NewNop())
	return m, &created
}

func TestGateIsPerSession(t *testing.T) {
	m, created := newManager()

	a := m.Gate("alice")
	assert.Same(t, a, m.Gate("alice"))
	assert.NotSame(t, a, m.Gate("bob"))
	assert.Equal(t, 2, *created)
	assert.Equal(t, 2, m.Len())
}

func TestBlankIDUsesDefault(t *testing.T) {
	m, _ := newManager()
	assert.Same(t, m.Gate(""), m.Gate("  default "))
	assert.Equal(t, 1, m.Len())
}

func TestEvict(t *testing.T) {
	m, _ := newManager()
	now := time.Now()
	m.now = func() time.Time { return now }

	m.Gate("old")
	now = now.Add(time.Hour)
	m.Gate("fresh")

	assert.Equal(t, 1, m.Evict(30*time.Minute))
	assert.Equal(t, 1, m.Len())
}
