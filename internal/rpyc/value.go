package rpyc

// Value is any datum reconstructed from the serialized graph: nil, bool,
// int64, float64, string, []byte, or one of the container and node types
// below.
type Value interface{}

// List holds an ordered sequence. Revertable lists decode to the same shape.
type List struct {
	Items []Value
}

// Tuple is an immutable sequence.
type Tuple struct {
	Items []Value
}

// Pair is one dictionary entry.
type Pair struct {
	Key Value
	Val Value
}

// Dict keeps entries in insertion order. Keys are compared structurally for
// the small key shapes the graphs use (strings and numbers).
type Dict struct {
	Pairs []Pair
}

// Get returns the value stored under a string key.
func (d *Dict) Get(key string) (Value, bool) {
	for _, p := range d.Pairs {
		if s, ok := p.Key.(string); ok && s == key {
			return p.Val, true
		}
	}
	return nil, false
}

func (d *Dict) set(key, val Value) {
	if s, ok := key.(string); ok {
		for i, p := range d.Pairs {
			if ks, ok := p.Key.(string); ok && ks == s {
				d.Pairs[i].Val = val
				return
			}
		}
	}
	d.Pairs = append(d.Pairs, Pair{Key: key, Val: val})
}

// Set holds unordered unique items. Item order follows the wire.
type Set struct {
	Items []Value
}

// Object is a reconstructed node instance.
type Object struct {
	Module string
	Name   string
	Kind   NodeKind
	Args   []Value
	Attrs  map[string]Value
}

// Attr returns a named attribute set by the object's serialized state.
func (o *Object) Attr(name string) Value {
	if o.Attrs == nil {
		return nil
	}
	return o.Attrs[name]
}

// StringAttr returns an attribute coerced to string, unwrapping expression
// values.
func (o *Object) StringAttr(name string) string {
	s, _ := AsString(o.Attr(name))
	return s
}

// IntAttr returns an attribute coerced to int.
func (o *Object) IntAttr(name string) int {
	if n, ok := o.Attr(name).(int64); ok {
		return int(n)
	}
	return 0
}

// ListAttr returns an attribute's items whether it decoded as a list or a
// tuple.
func (o *Object) ListAttr(name string) []Value {
	return Items(o.Attr(name))
}

// AsString unwraps a value into a string when it is string-shaped.
func AsString(v Value) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// Items flattens a list or tuple value into its element slice.
func Items(v Value) []Value {
	switch t := v.(type) {
	case *List:
		return t.Items
	case *Tuple:
		return t.Items
	default:
		return nil
	}
}
