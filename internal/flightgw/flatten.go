package flightgw

import "strings"

// Upstream itinerary ids sometimes arrive pre-composed: several
// segment ids glued together with one of a few legacy separator
// conventions. FlattenIDs splits them back into individual segment
// ids before anything is submitted to the gateway. The conventions
// are a compatibility requirement of the remote system; nothing else
// in this codebase uses them.

const uuidLen = 36

// FlattenIDs expands every itinerary id into its underlying segment
// ids, dropping empty tokens and deduplicating while preserving
// order. Handled conventions: the literal "splitting_here" marker, a
// "%" separator, and a trailing run of "-"-joined UUIDs.
func FlattenIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, raw := range ids {
		for _, part := range splitComposite(raw) {
			add(part)
		}
	}
	return out
}

func splitComposite(raw string) []string {
	var parts []string
	for _, a := range strings.Split(raw, "splitting_here") {
		for _, b := range strings.Split(a, "%") {
			parts = append(parts, splitJoinedUUIDs(b)...)
		}
	}
	return parts
}

// splitJoinedUUIDs breaks "uuid-uuid-uuid" runs apart. A lone UUID
// already contains dashes, so splitting on "-" alone would shred it;
// instead the token is chunked at fixed UUID width when its length
// matches n uuids plus n-1 joining dashes and every chunk looks like
// a UUID.
func splitJoinedUUIDs(s string) []string {
	s = strings.TrimSpace(s)
	if len(s) <= uuidLen {
		return []string{s}
	}
	if (len(s)+1)%(uuidLen+1) != 0 {
		return []string{s}
	}
	n := (len(s) + 1) / (uuidLen + 1)
	chunks := make([]string, 0, n)
	for i := 0; i < n; i++ {
		start := i * (uuidLen + 1)
		chunk := s[start : start+uuidLen]
		if !looksLikeUUID(chunk) {
			return []string{s}
		}
		if i < n-1 && s[start+uuidLen] != '-' {
			return []string{s}
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func looksLikeUUID(s string) bool {
	if len(s) != uuidLen {
		return false
	}
	for i, c := range s {
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
		default:
			isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
			if !isHex {
				return false
			}
		}
	}
	return true
}
