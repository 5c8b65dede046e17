package models

import "github.com/google/uuid"

// IDs is an identity list with set semantics. Order of first insertion is kept.
type IDs []uuid.UUID

// Has reports whether id is in the list.
func (s IDs) Has(id uuid.UUID) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add appends id if absent. It returns the resulting list and whether it changed.
func (s IDs) Add(id uuid.UUID) (IDs, bool) {
	if s.Has(id) {
		return s, false
	}
	return append(s, id), true
}

// Remove drops every occurrence of id. It returns the resulting list and whether it changed.
func (s IDs) Remove(id uuid.UUID) (IDs, bool) {
	out := make(IDs, 0, len(s))
	changed := false
	for _, v := range s {
		if v == id {
			changed = true
			continue
		}
		out = append(out, v)
	}
	if !changed {
		return s, false
	}
	return out, true
}

// Intersects reports whether s and other share at least one id.
func (s IDs) Intersects(other IDs) bool {
	for _, v := range s {
		if other.Has(v) {
			return true
		}
	}
	return false
}

// Minus returns the ids of s that are not in other.
func (s IDs) Minus(other IDs) IDs {
	var out IDs
	for _, v := range s {
		if !other.Has(v) {
			out = append(out, v)
		}
	}
	return out
}

// Dedup returns s without repeated ids, keeping first occurrences.
func (s IDs) Dedup() IDs {
	out := make(IDs, 0, len(s))
	for _, v := range s {
		out, _ = out.Add(v)
	}
	return out
}

// Clone returns an independent copy.
func (s IDs) Clone() IDs {
	if s == nil {
		return nil
	}
	out := make(IDs, len(s))
	copy(out, s)
	return out
}

// Names is a list of approved names (types or categories) with set semantics.
type Names []string

// Has reports whether name is present (exact match).
func (n Names) Has(name string) bool {
	for _, v := range n {
		if v == name {
			return true
		}
	}
	return false
}

// Add appends name if absent.
func (n Names) Add(name string) (Names, bool) {
	if n.Has(name) {
		return n, false
	}
	return append(n, name), true
}

// Remove drops name if present.
func (n Names) Remove(name string) (Names, bool) {
	out := make(Names, 0, len(n))
	changed := false
	for _, v := range n {
		if v == name {
			changed = true
			continue
		}
		out = append(out, v)
	}
	if !changed {
		return n, false
	}
	return out, true
}
