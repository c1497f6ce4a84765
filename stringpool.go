package gridflow

// SharedString is an immutable interned string (spec §3.1 "Shared string").
// Once interned it is compared by pointer identity, not by value, which is
// why it is always handled through a *SharedString.
type SharedString struct {
	value string
	index int // position in the pool's first-seen order, used by the writer
}

// Value returns the underlying string.
func (s *SharedString) Value() string {
	if s == nil {
		return ""
	}
	return s.value
}

// StringPool interns strings so that equal strings share one allocation and
// may be compared by pointer identity (spec §3.1, §4.2). It is not
// thread-safe to mutate concurrently with other mutation on the same
// workbook (spec §5).
type StringPool struct {
	byValue map[string]*SharedString
	ordered []*SharedString
}

// NewStringPool constructs an empty string pool.
func NewStringPool() *StringPool {
	return &StringPool{byValue: make(map[string]*SharedString)}
}

// Intern returns the canonical *SharedString for s, creating it on first use.
func (p *StringPool) Intern(s string) *SharedString {
	if existing, ok := p.byValue[s]; ok {
		return existing
	}
	ss := &SharedString{value: s, index: len(p.ordered)}
	p.byValue[s] = ss
	p.ordered = append(p.ordered, ss)
	return ss
}

// Lookup returns the interned string at a given writer index, if any.
func (p *StringPool) Lookup(index int) (*SharedString, bool) {
	if index < 0 || index >= len(p.ordered) {
		return nil, false
	}
	return p.ordered[index], true
}

// Len returns the number of distinct interned strings.
func (p *StringPool) Len() int { return len(p.ordered) }

// Ordered returns the pool's strings in first-seen order, the order the
// writer must use for stable shared-string indices (spec §4.5).
func (p *StringPool) Ordered() []*SharedString { return p.ordered }
