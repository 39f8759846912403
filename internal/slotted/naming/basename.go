// Package naming correlates command names across categories and mints the
// process suffix used for internally registered script names.
package naming

import (
	"strings"
	"sync"

	"github.com/louisbranch/slotted/internal/slotted/host"
)

// SplitCommand splits a full command name such as "sound_jump" into its
// category and base name. Names without a known category prefix report false.
func SplitCommand(name string) (host.CommandCategory, string, bool) {
	for _, category := range host.CommandCategories {
		prefix := category.Prefix() + "_"
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			return category, name[len(prefix):], true
		}
	}
	return 0, "", false
}

// CommandName joins a category and base name, e.g. (sound, "jump") →
// "sound_jump".
func CommandName(category host.CommandCategory, base string) string {
	return category.Prefix() + "_" + base
}

// BaseNames maps the hash of a game command name to its base name, so every
// category can find its script from the animation's game-command hash.
//
// Entries are write-once: the first name registered for a key wins.
type BaseNames struct {
	mu    sync.RWMutex
	names map[host.Hash40]string
}

// NewBaseNames creates an empty index.
func NewBaseNames() *BaseNames {
	return &BaseNames{names: make(map[host.Hash40]string)}
}

// Add indexes the base name of a full command name of any category, keyed by
// Hash("game_<base>"). It returns the base name and whether name carried a
// category prefix.
func (b *BaseNames) Add(name string) (string, bool) {
	_, base, ok := SplitCommand(name)
	if !ok || b == nil {
		return base, ok
	}
	key := host.Hash(CommandName(host.CommandGame, base))

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.names == nil {
		b.names = make(map[host.Hash40]string)
	}
	if _, exists := b.names[key]; !exists {
		b.names[key] = base
	}
	return base, true
}

// Lookup returns the base name for a game-command hash.
func (b *BaseNames) Lookup(gameHash host.Hash40) (string, bool) {
	if b == nil {
		return "", false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	base, ok := b.names[gameHash]
	return base, ok
}

// Len reports how many base names are indexed.
func (b *BaseNames) Len() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.names)
}
