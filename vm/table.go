package vm

const tableMaxLoad = 0.75

type entry struct {
	key   *ObjString
	value Value
}

// Table is a generic open-addressed hash table keyed by interned
// String identity (pointer equality), used both as the globals table
// and as the backing store for the string intern set.
// Deletion leaves a tombstone, (nil key, Bool(true) value), so that
// linear-probe chains through it are not broken; an empty slot is
// (nil key, Nil value). Count includes tombstones so growth is
// triggered early, bounding probe-chain length.
type Table struct {
	count   int
	entries []entry
}

func NewTable() *Table {
	return &Table{}
}

func (t *Table) Count() int { return t.count }

// Get looks up key by identity.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return Nil(), false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return Nil(), false
	}
	return e.value, true
}

// Set stores value under key, growing the table first if needed.
// Reports whether key was not already present.
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.adjustCapacity(growCapacity(len(t.entries)))
	}
	e := t.findEntry(t.entries, key)
	isNew := e.key == nil
	if isNew && e.value.IsNil() {
		t.count++
	}
	e.key = key
	e.value = value
	return isNew
}

// Delete removes key, writing a tombstone in its place. Reports
// whether key was present.
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = Bool(true)
	return true
}

// AddAll copies every live entry of from into t.
func (t *Table) AddAll(from *Table) {
	for i := range from.entries {
		if from.entries[i].key != nil {
			t.Set(from.entries[i].key, from.entries[i].value)
		}
	}
}

// FindString looks a string up by content rather than identity. It is
// the probe used by the interner: findString compares length and hash
// before the byte-for-byte comparison to avoid scanning candidates
// that cannot possibly match.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	capacity := uint32(len(t.entries))
	idx := hash % capacity
	for {
		e := &t.entries[idx]
		if e.key == nil {
			if e.value.IsNil() {
				return nil
			}
		} else if e.key.Hash == hash && len(e.key.Chars) == len(chars) && e.key.Chars == chars {
			return e.key
		}
		idx = (idx + 1) % capacity
	}
}

func (t *Table) findEntry(entries []entry, key *ObjString) *entry {
	capacity := uint32(len(entries))
	idx := key.Hash % capacity
	var tombstone *entry
	for {
		e := &entries[idx]
		switch {
		case e.key == nil:
			if e.value.IsNil() {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		idx = (idx + 1) % capacity
	}
}

func (t *Table) adjustCapacity(capacity int) {
	entries := make([]entry, capacity)
	for i := range entries {
		entries[i].value = Nil()
	}

	t.count = 0
	for i := range t.entries {
		old := &t.entries[i]
		if old.key == nil {
			continue
		}
		dest := t.findEntry(entries, old.key)
		dest.key = old.key
		dest.value = old.value
		t.count++
	}
	t.entries = entries
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}
