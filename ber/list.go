package ber

// TLVList is an insertion-ordered sequence of owned TLVs that permits
// duplicate tags. The zero value is a valid empty list. A TLVList never
// takes ownership of any buffer its values were copied from — each TLV's
// Value is already an independent, owned slice by the time it lands here.
type TLVList struct {
	items []TLV
}

// PushBack appends t to the end of the list.
func (l *TLVList) PushBack(t TLV) {
	l.items = append(l.items, t)
}

// PopFront removes and returns the first item in the list. ok is false if
// the list is empty.
func (l *TLVList) PopFront() (t TLV, ok bool) {
	if len(l.items) == 0 {
		return TLV{}, false
	}
	t = l.items[0]
	l.items = l.items[1:]
	return t, true
}

// Len returns the number of TLVs in the list.
func (l *TLVList) Len() int {
	return len(l.items)
}

// At returns the TLV at position i. It panics if i is out of range,
// matching normal slice-index semantics.
func (l *TLVList) At(i int) TLV {
	return l.items[i]
}

// All returns the list's items as a slice. The returned slice aliases the
// list's backing array; callers must not mutate it.
func (l *TLVList) All() []TLV {
	return l.items
}

// FindFirst returns the first TLV in the list with the given tag.
func (l *TLVList) FindFirst(tag Tag) (TLV, bool) {
	for _, t := range l.items {
		if t.Tag == tag {
			return t, true
		}
	}
	return TLV{}, false
}

// FindAll returns every TLV in the list with the given tag, in order.
func (l *TLVList) FindAll(tag Tag) []TLV {
	var out []TLV
	for _, t := range l.items {
		if t.Tag == tag {
			out = append(out, t)
		}
	}
	return out
}

// Splice appends every item of other to the end of l, in order.
func (l *TLVList) Splice(other TLVList) {
	l.items = append(l.items, other.items...)
}

// Clone returns a deep copy of the list: each TLV's Value is re-copied so
// mutating the clone's values cannot affect the original.
func (l *TLVList) Clone() TLVList {
	out := TLVList{items: make([]TLV, len(l.items))}
	for i, t := range l.items {
		v := make([]byte, len(t.Value))
		copy(v, t.Value)
		out.items[i] = TLV{Tag: t.Tag, Flags: t.Flags, Value: v}
	}
	return out
}
