package featureflags

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0,all=100%,none=0%,over=150%")

	tests := []struct {
		flag string
		want bool
	}{
		{"a", true}, {"c", true}, {"e", true}, {"all", true}, {"over", true},
		{"b", false}, {"d", false}, {"f", false}, {"none", false},
		{"missing", false},
		{"A", true},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Enabled(tt.flag, "u1"))
		})
	}
}

func TestEnabled_RolloutIsDeterministic(t *testing.T) {
	m := NewManager("notification_events=25%")

	first := m.Enabled(NotificationEvents, "user-42")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled(NotificationEvents, "user-42"))
	}
	assert.False(t, m.Enabled(NotificationEvents, ""), "partial rollout needs a user id")

	on := 0
	for i := 0; i < 1000; i++ {
		if m.Enabled(NotificationEvents, fmt.Sprintf("user-%d", i)) {
			on++
		}
	}
	assert.InDelta(t, 250, on, 100)
}

func TestParse_SkipsMalformedEntries(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off,w=maybe,=on,v=abc% ")

	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, m.Raw())
}

func TestSnapshot_IncludesKnownFlags(t *testing.T) {
	snap := NewManager("x=on").Snapshot("u1")

	assert.Equal(t, map[string]bool{"x": true, NotificationEvents: false}, snap)
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(NotificationEvents, "u1"))
	assert.Empty(t, m.Raw())
	assert.Equal(t, map[string]bool{NotificationEvents: false}, m.Snapshot("u1"))
}
