package variant

// Migrate converts every unmigrated legacy palette mask, across all kinds,
// into its ColorSet and clears the mask. It runs its conversion once per
// registry and reports how many records it converted; later calls return 0.
//
// A converted record whose ColorSet now equals an earlier record's is folded
// into that earlier record so each ColorSet keeps a single record.
func (r *Registry) Migrate() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.migrated {
		return 0
	}
	r.migrated = true

	converted := 0
	for kind, records := range r.kinds {
		for _, record := range records {
			if record.LegacyMask == nil || !record.Colors.Empty() {
				continue
			}
			record.Colors = FromMask(record.LegacyMask)
			record.LegacyMask = nil
			converted++
		}
		r.kinds[kind] = dedupe(records)
	}
	return converted
}

// Migrated reports whether Migrate has run.
func (r *Registry) Migrated() bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.migrated
}

func dedupe(records []*Record) []*Record {
	kept := records[:0]
	for _, record := range records {
		merged := false
		if record.LegacyMask == nil {
			for _, earlier := range kept {
				if earlier.LegacyMask == nil && earlier.Colors.Equal(record.Colors) {
					earlier.absorb(record)
					merged = true
					break
				}
			}
		}
		if !merged {
			kept = append(kept, record)
		}
	}
	for i := len(kept); i < len(records); i++ {
		records[i] = nil
	}
	return kept
}
