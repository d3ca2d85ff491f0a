package redis

import "strings"

const (
	// KeyPrefixList is the prefix for prompt list records
	KeyPrefixList = "dispenser:list:"
	// KeyAllLists is the key for the set of all list IDs
	KeyAllLists = "dispenser:lists:all"
	// KeyPrefixCooldown is the prefix for per-list cooldown slots
	KeyPrefixCooldown = "dispenser:cooldown:"
	// KeyDelaySeconds holds the user-selected cooldown duration
	KeyDelaySeconds = "dispenser:settings:delay_seconds"
	// ChannelListsChanged carries a message after every list write
	ChannelListsChanged = "dispenser:lists:changed"
)

// ListKey returns the Redis key for a list by ID
func ListKey(id string) string {
	return KeyPrefixList + id
}

// AllListsKey returns the key for the set of all list IDs
func AllListsKey() string {
	return KeyAllLists
}

// CooldownKey returns the Redis key for a list's cooldown slot
func CooldownKey(listID string) string {
	return KeyPrefixCooldown + listID
}

// ExtractCooldownListID extracts the list ID from a cooldown key
func ExtractCooldownListID(key string) (string, bool) {
	id, ok := strings.CutPrefix(key, KeyPrefixCooldown)
	return id, ok && id != ""
}
