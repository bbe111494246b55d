package config

import "strings"

// Keyspace builds Redis keys under a common namespace so the settings cache
// and client mirrors can share one Redis database with other services.
type Keyspace struct {
	prefix string
}

// CacheKey is the keyspace used by the server and the portal client.
var CacheKey = Keyspace{prefix: "portal"}

func (k Keyspace) join(parts ...string) string {
	return k.prefix + ":" + strings.Join(parts, ":")
}

// SettingKey holds the cached value of one application setting.
func (k Keyspace) SettingKey(key string) string {
	return k.join("setting", key)
}

// MirrorKey holds a client's mirrored exam session. clientID is lowercased,
// so the same candidate maps to one key regardless of how it was typed.
func (k Keyspace) MirrorKey(clientID string) string {
	return k.join("client", strings.ToLower(strings.TrimSpace(clientID)), "exam_session")
}
