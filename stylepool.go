package gridflow

import "fmt"

// StylePool deduplicates Style values structurally: inserting two equal
// styles returns the same id (spec §4.3). Id 0 is always DefaultStyle, even
// in a pool nobody has inserted into yet.
type StylePool struct {
	byKey map[string]uint32
	items []Style
}

// NewStylePool constructs a pool pre-seeded with id 0 == DefaultStyle.
func NewStylePool() *StylePool {
	p := &StylePool{byKey: make(map[string]uint32)}
	id := p.insert(DefaultStyle)
	if id != 0 {
		panic("gridflow: style pool did not seed id 0")
	}
	return p
}

func styleKey(s Style) string {
	return fmt.Sprintf("%+v", s)
}

// GetOrInsert returns the id for s, inserting it if this exact style has not
// been seen before.
func (p *StylePool) GetOrInsert(s Style) uint32 {
	key := styleKey(s)
	if id, ok := p.byKey[key]; ok {
		return id
	}
	return p.insert(s)
}

func (p *StylePool) insert(s Style) uint32 {
	id := uint32(len(p.items))
	p.items = append(p.items, s)
	p.byKey[styleKey(s)] = id
	return id
}

// Get returns the style stored at id, or DefaultStyle with ok=false if id is
// out of range.
func (p *StylePool) Get(id uint32) (Style, bool) {
	if int(id) >= len(p.items) {
		return DefaultStyle, false
	}
	return p.items[id], true
}

// Len returns the number of distinct styles in the pool.
func (p *StylePool) Len() int { return len(p.items) }

// All returns the pool's styles in insertion order, the order the writer
// must emit them in (spec §4.5).
func (p *StylePool) All() []Style { return p.items }

// clone deep-copies every pooled style via Style.Clone, used by
// Workbook.Clone.
func (p *StylePool) clone() *StylePool {
	out := &StylePool{byKey: make(map[string]uint32, len(p.byKey)), items: make([]Style, len(p.items))}
	for i, s := range p.items {
		out.items[i] = s.Clone()
	}
	for k, v := range p.byKey {
		out.byKey[k] = v
	}
	return out
}
