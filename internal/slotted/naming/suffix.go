package naming

import (
	"crypto/rand"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/louisbranch/slotted/internal/slotted/host"
)

// DefaultSuffixLength is the number of random hex characters in a suffix.
const DefaultSuffixLength = 8

// Suffix is a short random identifier appended to internally registered
// script names so independent registrants in one process never collide. It
// is minted once, on first use.
type Suffix struct {
	once    sync.Once
	value   string
	entropy io.Reader
	length  int
}

// NewSuffix creates a lazily minted suffix drawing from entropy (crypto/rand
// when nil). length is clamped to 1..32.
func NewSuffix(entropy io.Reader, length int) *Suffix {
	if entropy == nil {
		entropy = rand.Reader
	}
	if length <= 0 {
		length = DefaultSuffixLength
	}
	if length > 32 {
		length = 32
	}
	return &Suffix{entropy: entropy, length: length}
}

// String returns the suffix, including its leading underscore.
func (s *Suffix) String() string {
	s.once.Do(func() {
		id, err := uuid.NewRandomFromReader(s.entropy)
		if err != nil {
			log.Printf("slotted suffix entropy: %v; falling back to crypto/rand", err)
			id = uuid.New()
		}
		hex := strings.ReplaceAll(id.String(), "-", "")
		s.value = "_" + hex[:s.length]
	})
	return s.value
}

// InstallerName names the per-category script that points an instance's
// commands at the category hub, e.g. "game_acmd_installer_1a2b3c4d".
func InstallerName(category host.CommandCategory, suffix *Suffix) string {
	return category.Prefix() + "_acmd_installer" + suffix.String()
}
