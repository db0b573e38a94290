package scanner

// Deduplicator remembers identifiers already yielded during one run.
// It is not safe for concurrent use.
type Deduplicator struct {
	seen map[string]struct{}
}

// NewDeduplicator returns an empty run-scoped deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: map[string]struct{}{}}
}

// Admit returns true the first time id is offered and false on every later call.
func (d *Deduplicator) Admit(id string) bool {
	if d.seen == nil {
		d.seen = map[string]struct{}{}
	}
	if _, ok := d.seen[id]; ok {
		return false
	}
	d.seen[id] = struct{}{}
	return true
}

// Len is the number of distinct identifiers admitted so far.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}
