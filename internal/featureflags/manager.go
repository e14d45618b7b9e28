// Package featureflags evaluates runtime switches configured as a
// comma-separated key=value list, e.g. "notification_events=on" or
// "notification_events=25%" for a deterministic per-user rollout.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// NotificationEvents gates publishing of created notifications to Redis.
const NotificationEvents = "notification_events"

// Known lists the flags the service reads.
var Known = []string{NotificationEvents}

// rule is a parsed flag value: always on, always off, or a rollout percentage.
type rule struct {
	raw     string
	percent int // 0..100
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{raw: value, percent: 100}, true
	case "off", "false", "0":
		return rule{raw: value, percent: 0}, true
	}
	pct, found := strings.CutSuffix(value, "%")
	if !found {
		return rule{}, false
	}
	n, err := strconv.Atoi(pct)
	if err != nil {
		return rule{}, false
	}
	return rule{raw: value, percent: min(max(n, 0), 100)}, true
}

// Manager holds parsed flags. A nil Manager reports every flag disabled.
type Manager struct {
	rules map[string]rule
}

// NewManager parses raw. Malformed entries are skipped.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" {
			continue
		}
		if r, ok := parseRule(value); ok {
			rules[key] = r
		}
	}
	return &Manager{rules: rules}
}

// Enabled reports whether name is on for userID. Partial rollouts need a
// user id and always give the same answer for the same user.
func (m *Manager) Enabled(name, userID string) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	switch {
	case !ok || r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case userID == "":
		return false
	}
	return rolloutBucket(name, userID) < r.percent
}

// Raw returns the configured value of each flag.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string)
	if m == nil {
		return out
	}
	for k, r := range m.rules {
		out[k] = r.raw
	}
	return out
}

// Snapshot evaluates every configured and every known flag for userID.
func (m *Manager) Snapshot(userID string) map[string]bool {
	out := make(map[string]bool)
	for _, name := range Known {
		out[name] = m.Enabled(name, userID)
	}
	if m != nil {
		for name := range m.rules {
			out[name] = m.Enabled(name, userID)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name, userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + userID))
	return int(h.Sum32() % 100)
}
