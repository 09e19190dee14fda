package model

// IncludeRecord is the set of paths already resolved or attempted during one
// packing run, kept in first-seen order.
//
// The zero value is ready to use. A record must not be shared between runs.
type IncludeRecord struct {
	paths []string
	set   map[string]struct{}
}

// NewIncludeRecord returns an empty record.
func NewIncludeRecord() *IncludeRecord {
	return &IncludeRecord{set: make(map[string]struct{})}
}

// Add inserts path and reports whether it was not present before.
func (r *IncludeRecord) Add(path string) bool {
	if r.set == nil {
		r.set = make(map[string]struct{})
	}
	if _, ok := r.set[path]; ok {
		return false
	}
	r.set[path] = struct{}{}
	r.paths = append(r.paths, path)
	return true
}

// Has reports whether path was already added.
func (r *IncludeRecord) Has(path string) bool {
	_, ok := r.set[path]
	return ok
}

// Paths returns the recorded paths in first-seen order.
func (r *IncludeRecord) Paths() []string {
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}

// Len returns the number of recorded paths.
func (r *IncludeRecord) Len() int {
	return len(r.paths)
}
