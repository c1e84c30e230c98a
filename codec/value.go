package codec

// Entry is one key/value pair of a Map.
type Entry struct {
	Key   string
	Value any
}

// Map is an insertion-ordered map builder.
//
// Values must be int8, int16, int32, int64, int, float32, float64, string,
// *Map or *List; int is encoded as a 64-bit integer. Putting an existing key
// replaces its value in place.
type Map struct {
	entries []Entry
	index   map[string]int
}

// NewMap creates an empty map builder.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// Put sets key to v and returns m for chaining.
func (m *Map) Put(key string, v any) *Map {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = v
		return m
	}

	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: v})

	return m
}

// PutInt8 stores an int8 under key.
func (m *Map) PutInt8(key string, v int8) *Map { return m.Put(key, v) }

// PutInt16 stores an int16 under key.
func (m *Map) PutInt16(key string, v int16) *Map { return m.Put(key, v) }

// PutInt32 stores an int32 under key.
func (m *Map) PutInt32(key string, v int32) *Map { return m.Put(key, v) }

// PutInt64 stores an int64 under key.
func (m *Map) PutInt64(key string, v int64) *Map { return m.Put(key, v) }

// PutFloat32 stores a float32 under key.
func (m *Map) PutFloat32(key string, v float32) *Map { return m.Put(key, v) }

// PutFloat64 stores a float64 under key.
func (m *Map) PutFloat64(key string, v float64) *Map { return m.Put(key, v) }

// PutString stores a string under key.
func (m *Map) PutString(key string, v string) *Map { return m.Put(key, v) }

// PutMap stores a nested map under key.
func (m *Map) PutMap(key string, v *Map) *Map { return m.Put(key, v) }

// PutList stores a nested list under key.
func (m *Map) PutList(key string, v *List) *Map { return m.Put(key, v) }

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}

	return m.entries[i].Value, true
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.entries)
}

// Entries returns the entries in insertion order. The slice must not be modified.
func (m *Map) Entries() []Entry {
	return m.entries
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}

	return keys
}

// List is an ordered list builder accepting the same value types as Map.
type List struct {
	items []any
}

// NewList creates a list builder holding items.
func NewList(items ...any) *List {
	return &List{items: items}
}

// Add appends v and returns l for chaining.
func (l *List) Add(v any) *List {
	l.items = append(l.items, v)
	return l
}

// AddInt8 appends an int8.
func (l *List) AddInt8(v int8) *List { return l.Add(v) }

// AddInt16 appends an int16.
func (l *List) AddInt16(v int16) *List { return l.Add(v) }

// AddInt32 appends an int32.
func (l *List) AddInt32(v int32) *List { return l.Add(v) }

// AddInt64 appends an int64.
func (l *List) AddInt64(v int64) *List { return l.Add(v) }

// AddFloat32 appends a float32.
func (l *List) AddFloat32(v float32) *List { return l.Add(v) }

// AddFloat64 appends a float64.
func (l *List) AddFloat64(v float64) *List { return l.Add(v) }

// AddString appends a string.
func (l *List) AddString(v string) *List { return l.Add(v) }

// AddMap appends a nested map.
func (l *List) AddMap(v *Map) *List { return l.Add(v) }

// AddList appends a nested list.
func (l *List) AddList(v *List) *List { return l.Add(v) }

// Get returns the item at index i.
func (l *List) Get(i int) (any, bool) {
	if i < 0 || i >= len(l.items) {
		return nil, false
	}

	return l.items[i], true
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.items)
}

// Items returns the items in order. The slice must not be modified.
func (l *List) Items() []any {
	return l.items
}
