package domain

import "strings"

// ResolveClient resolves a set of participant addresses to a single client
// record. The registry is scanned in its natural (insertion) order and the
// first hit wins; there is no scoring and no tie-breaking beyond order.
//
// Resolution passes, in strict order:
//  1. exact contact match against active, non-internal records
//  2. domain match against active, non-internal records
//  3. internal-only records, matched all-or-nothing: every input address
//     must be in the record's contact set, so a single external participant
//     disqualifies the internal match
//
// The matcher never writes to the ledger; recording an UnmatchedItem on
// failure is the caller's responsibility.
func ResolveClient(registry []*ClientRecord, addresses []string) (*ClientRecord, error) {
	normalized := make([]string, 0, len(addresses))
	for _, a := range addresses {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			normalized = append(normalized, a)
		}
	}
	if len(normalized) == 0 {
		return nil, ErrNoAddresses
	}

	// Pass 1: exact contact match
	for _, c := range registry {
		if !c.Active || c.InternalOnly {
			continue
		}
		for _, addr := range normalized {
			if c.HasContact(addr) {
				return c, nil
			}
		}
	}

	// Pass 2: domain match
	for _, c := range registry {
		if !c.Active || c.InternalOnly {
			continue
		}
		for _, addr := range normalized {
			if c.HasDomain(addr) {
				return c, nil
			}
		}
	}

	// Pass 3: internal-only, all addresses must be members
	for _, c := range registry {
		if !c.Active || !c.InternalOnly {
			continue
		}
		all := true
		for _, addr := range normalized {
			if !c.HasContact(addr) {
				all = false
				break
			}
		}
		if all {
			return c, nil
		}
	}

	return nil, ErrNoClientMatch
}
