package rpyc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Protocol opcodes that appear in statement-graph payloads. Legacy text-mode
// opcodes and extension registries are rejected outright.
const (
	opProto       = 0x80
	opFrame       = 0x95
	opStop        = '.'
	opMark        = '('
	opPop         = '0'
	opPopMark     = '1'
	opDup         = '2'
	opNone        = 'N'
	opNewTrue     = 0x88
	opNewFalse    = 0x89
	opBinInt      = 'J'
	opBinInt1     = 'K'
	opBinInt2     = 'M'
	opLong1       = 0x8a
	opLong4       = 0x8b
	opBinFloat    = 'G'
	opShortBinStr = 'U'
	opBinStr      = 'T'
	opBinUnicode  = 'X'
	opShortBinUni = 0x8c
	opBinUnicode8 = 0x8d
	opBinBytes    = 'B'
	opShortBytes  = 'C'
	opBinBytes8   = 0x8e
	opEmptyList   = ']'
	opAppend      = 'a'
	opAppends     = 'e'
	opEmptyDict   = '}'
	opSetItem     = 's'
	opSetItems    = 'u'
	opEmptyTuple  = ')'
	opTuple       = 't'
	opTuple1      = 0x85
	opTuple2      = 0x86
	opTuple3      = 0x87
	opEmptySet    = 0x8f
	opFrozenSet   = 0x91
	opAddItems    = 0x90
	opBinGet      = 'h'
	opLongBinGet  = 'j'
	opBinPut      = 'q'
	opLongBinPut  = 'r'
	opMemoize     = 0x94
	opGlobal      = 'c'
	opStackGlobal = 0x93
	opReduce      = 'R'
	opNewObj      = 0x81
	opNewObjEx    = 0x92
	opBuild       = 'b'
	opPersid      = 'P'
	opBinPersid   = 'Q'
	opExt1        = 0x82
	opExt2        = 0x83
	opExt4        = 0x84
)

const (
	maxStackDepth = 1 << 20
	maxMemoSize   = 1 << 20
)

// classRef is a resolved allow-listed global sitting on the decoder stack.
type classRef struct {
	module string
	name   string
	kind   NodeKind
}

type decoder struct {
	data  []byte
	pos   int
	file  string
	stack []Value
	marks []int
	memo  map[int]Value
}

// Decode reconstructs the value graph of one inflated payload. Any reference
// to a global outside the allow-list aborts with SecurityError; structural
// damage aborts with FormatError. Nothing decoded before the failure leaks
// out.
func Decode(payload []byte, file string) (Value, error) {
	d := &decoder{data: payload, file: file, memo: make(map[int]Value)}
	return d.run()
}

// Statements unwraps the conventional top-level shape, a (header, statement
// list) pair, into the statement slice.
func Statements(v Value) []Value {
	if t, ok := v.(*Tuple); ok && len(t.Items) >= 2 {
		if items := Items(t.Items[1]); items != nil {
			return items
		}
	}
	if l, ok := v.(*List); ok {
		return l.Items
	}
	return []Value{v}
}

func (d *decoder) formatErr(format string, args ...interface{}) error {
	return &FormatError{File: d.file, Reason: fmt.Sprintf(format, args...)}
}

func (d *decoder) run() (Value, error) {
	for {
		if len(d.stack) > maxStackDepth {
			return nil, &SecurityError{File: d.file, Reason: "value stack ceiling exceeded"}
		}
		op, err := d.readByte()
		if err != nil {
			return nil, d.formatErr("stream ends without stop opcode")
		}

		switch op {
		case opProto:
			if _, err := d.readByte(); err != nil {
				return nil, d.formatErr("truncated protocol marker")
			}
		case opFrame:
			if _, err := d.readN(8); err != nil {
				return nil, d.formatErr("truncated frame length")
			}

		case opStop:
			v, err := d.pop()
			if err != nil {
				return nil, err
			}
			return v, nil

		case opMark:
			d.marks = append(d.marks, len(d.stack))
		case opPop:
			if _, err := d.pop(); err != nil {
				return nil, err
			}
		case opPopMark:
			if _, err := d.popMark(); err != nil {
				return nil, err
			}
		case opDup:
			if len(d.stack) == 0 {
				return nil, d.formatErr("dup on empty stack")
			}
			d.push(d.stack[len(d.stack)-1])

		case opNone:
			d.push(nil)
		case opNewTrue:
			d.push(true)
		case opNewFalse:
			d.push(false)

		case opBinInt:
			b, err := d.readN(4)
			if err != nil {
				return nil, d.formatErr("truncated int")
			}
			d.push(int64(int32(binary.LittleEndian.Uint32(b))))
		case opBinInt1:
			b, err := d.readByte()
			if err != nil {
				return nil, d.formatErr("truncated int")
			}
			d.push(int64(b))
		case opBinInt2:
			b, err := d.readN(2)
			if err != nil {
				return nil, d.formatErr("truncated int")
			}
			d.push(int64(binary.LittleEndian.Uint16(b)))
		case opLong1:
			n, err := d.readByte()
			if err != nil {
				return nil, d.formatErr("truncated long")
			}
			b, err := d.readN(int(n))
			if err != nil {
				return nil, d.formatErr("truncated long body")
			}
			d.push(decodeLong(b))
		case opLong4:
			lb, err := d.readN(4)
			if err != nil {
				return nil, d.formatErr("truncated long length")
			}
			n := binary.LittleEndian.Uint32(lb)
			if n > 1<<16 {
				return nil, d.formatErr("oversized long: %d bytes", n)
			}
			b, err := d.readN(int(n))
			if err != nil {
				return nil, d.formatErr("truncated long body")
			}
			d.push(decodeLong(b))

		case opBinFloat:
			b, err := d.readN(8)
			if err != nil {
				return nil, d.formatErr("truncated float")
			}
			d.push(math.Float64frombits(binary.BigEndian.Uint64(b)))

		case opShortBinStr, opShortBinUni, opShortBytes:
			n, err := d.readByte()
			if err != nil {
				return nil, d.formatErr("truncated string length")
			}
			b, err := d.readN(int(n))
			if err != nil {
				return nil, d.formatErr("truncated string body")
			}
			d.push(string(b))
		case opBinStr, opBinUnicode, opBinBytes:
			lb, err := d.readN(4)
			if err != nil {
				return nil, d.formatErr("truncated string length")
			}
			n := binary.LittleEndian.Uint32(lb)
			b, err := d.readN(int(n))
			if err != nil {
				return nil, d.formatErr("truncated string body")
			}
			d.push(string(b))
		case opBinUnicode8, opBinBytes8:
			lb, err := d.readN(8)
			if err != nil {
				return nil, d.formatErr("truncated string length")
			}
			n := binary.LittleEndian.Uint64(lb)
			if n > uint64(len(d.data)) {
				return nil, d.formatErr("string length %d exceeds payload", n)
			}
			b, err := d.readN(int(n))
			if err != nil {
				return nil, d.formatErr("truncated string body")
			}
			d.push(string(b))

		case opEmptyList:
			d.push(&List{})
		case opAppend:
			v, err := d.pop()
			if err != nil {
				return nil, err
			}
			if err := d.appendTo(v); err != nil {
				return nil, err
			}
		case opAppends:
			vs, err := d.popMark()
			if err != nil {
				return nil, err
			}
			for _, v := range vs {
				if err := d.appendTo(v); err != nil {
					return nil, err
				}
			}

		case opEmptyDict:
			d.push(&Dict{})
		case opSetItem:
			val, err := d.pop()
			if err != nil {
				return nil, err
			}
			key, err := d.pop()
			if err != nil {
				return nil, err
			}
			if err := d.setIn(key, val); err != nil {
				return nil, err
			}
		case opSetItems:
			vs, err := d.popMark()
			if err != nil {
				return nil, err
			}
			if len(vs)%2 != 0 {
				return nil, d.formatErr("odd setitems run")
			}
			for i := 0; i < len(vs); i += 2 {
				if err := d.setIn(vs[i], vs[i+1]); err != nil {
					return nil, err
				}
			}

		case opEmptyTuple:
			d.push(&Tuple{})
		case opTuple:
			vs, err := d.popMark()
			if err != nil {
				return nil, err
			}
			d.push(&Tuple{Items: vs})
		case opTuple1, opTuple2, opTuple3:
			n := int(op-opTuple1) + 1
			if len(d.stack) < n {
				return nil, d.formatErr("tuple underflow")
			}
			items := make([]Value, n)
			copy(items, d.stack[len(d.stack)-n:])
			d.stack = d.stack[:len(d.stack)-n]
			d.push(&Tuple{Items: items})

		case opEmptySet:
			d.push(&Set{})
		case opFrozenSet:
			vs, err := d.popMark()
			if err != nil {
				return nil, err
			}
			d.push(&Set{Items: vs})
		case opAddItems:
			vs, err := d.popMark()
			if err != nil {
				return nil, err
			}
			top, err := d.pop()
			if err != nil {
				return nil, err
			}
			set, ok := top.(*Set)
			if !ok {
				return nil, d.formatErr("additems target is not a set")
			}
			set.Items = append(set.Items, vs...)
			d.push(set)

		case opBinGet:
			n, err := d.readByte()
			if err != nil {
				return nil, d.formatErr("truncated memo index")
			}
			v, ok := d.memo[int(n)]
			if !ok {
				return nil, d.formatErr("memo slot %d unset", n)
			}
			d.push(v)
		case opLongBinGet:
			b, err := d.readN(4)
			if err != nil {
				return nil, d.formatErr("truncated memo index")
			}
			idx := int(binary.LittleEndian.Uint32(b))
			v, ok := d.memo[idx]
			if !ok {
				return nil, d.formatErr("memo slot %d unset", idx)
			}
			d.push(v)
		case opBinPut:
			n, err := d.readByte()
			if err != nil {
				return nil, d.formatErr("truncated memo index")
			}
			if err := d.memoize(int(n)); err != nil {
				return nil, err
			}
		case opLongBinPut:
			b, err := d.readN(4)
			if err != nil {
				return nil, d.formatErr("truncated memo index")
			}
			if err := d.memoize(int(binary.LittleEndian.Uint32(b))); err != nil {
				return nil, err
			}
		case opMemoize:
			if err := d.memoize(len(d.memo)); err != nil {
				return nil, err
			}

		case opGlobal:
			module, err := d.readLine()
			if err != nil {
				return nil, d.formatErr("truncated global module")
			}
			name, err := d.readLine()
			if err != nil {
				return nil, d.formatErr("truncated global name")
			}
			ref, err := d.resolve(module, name)
			if err != nil {
				return nil, err
			}
			d.push(ref)
		case opStackGlobal:
			nameV, err := d.pop()
			if err != nil {
				return nil, err
			}
			moduleV, err := d.pop()
			if err != nil {
				return nil, err
			}
			mod, okM := moduleV.(string)
			name, okN := nameV.(string)
			if !okM || !okN {
				return nil, d.formatErr("stack_global operands are not strings")
			}
			ref, err := d.resolve(mod, name)
			if err != nil {
				return nil, err
			}
			d.push(ref)

		case opReduce:
			argsV, err := d.pop()
			if err != nil {
				return nil, err
			}
			fnV, err := d.pop()
			if err != nil {
				return nil, err
			}
			v, err := d.instantiate(fnV, argsV)
			if err != nil {
				return nil, err
			}
			d.push(v)
		case opNewObj:
			argsV, err := d.pop()
			if err != nil {
				return nil, err
			}
			clsV, err := d.pop()
			if err != nil {
				return nil, err
			}
			v, err := d.instantiate(clsV, argsV)
			if err != nil {
				return nil, err
			}
			d.push(v)
		case opNewObjEx:
			if _, err := d.pop(); err != nil { // kwargs, never meaningful here
				return nil, err
			}
			argsV, err := d.pop()
			if err != nil {
				return nil, err
			}
			clsV, err := d.pop()
			if err != nil {
				return nil, err
			}
			v, err := d.instantiate(clsV, argsV)
			if err != nil {
				return nil, err
			}
			d.push(v)

		case opBuild:
			state, err := d.pop()
			if err != nil {
				return nil, err
			}
			obj, err := d.pop()
			if err != nil {
				return nil, err
			}
			d.push(applyState(obj, state))

		case opPersid, opBinPersid:
			return nil, &SecurityError{File: d.file, Reason: "persistent references are not permitted"}
		case opExt1, opExt2, opExt4:
			return nil, &SecurityError{File: d.file, Reason: "extension registry references are not permitted"}

		default:
			return nil, d.formatErr("unsupported opcode 0x%02x at offset %d", op, d.pos-1)
		}
	}
}

// resolve maps a serialized global reference through the allow-list.
func (d *decoder) resolve(module, name string) (classRef, error) {
	kind, ok := lookupClass(module, name)
	if !ok {
		return classRef{}, &SecurityError{File: d.file, Global: module + "." + name}
	}
	return classRef{module: module, name: name, kind: kind}, nil
}

// instantiate builds the value for a constructor call. Containers and string
// subclasses collapse to their plain shapes; nodes become Objects awaiting
// their BUILD state.
func (d *decoder) instantiate(fn Value, argsV Value) (Value, error) {
	ref, ok := fn.(classRef)
	if !ok {
		return nil, &SecurityError{File: d.file, Reason: "reduce callable is not an allow-listed class"}
	}
	args := Items(argsV)

	switch ref.kind {
	case KindStr, KindPyExpr:
		if len(args) > 0 {
			if s, ok := AsString(args[0]); ok {
				return s, nil
			}
		}
		return "", nil
	case KindList:
		out := &List{}
		if len(args) > 0 {
			out.Items = append(out.Items, Items(args[0])...)
		}
		return out, nil
	case KindDict:
		out := &Dict{}
		if len(args) > 0 {
			switch t := args[0].(type) {
			case *Dict:
				out.Pairs = append(out.Pairs, t.Pairs...)
			case *List:
				for _, pair := range t.Items {
					if kv := Items(pair); len(kv) == 2 {
						out.set(kv[0], kv[1])
					}
				}
			}
		}
		return out, nil
	case KindSet, KindFrozenSet:
		out := &Set{}
		if len(args) > 0 {
			out.Items = append(out.Items, Items(args[0])...)
			if s, ok := args[0].(*Set); ok {
				out.Items = append(out.Items, s.Items...)
			}
		}
		return out, nil
	default:
		return &Object{Module: ref.module, Name: ref.name, Kind: ref.kind, Args: args}, nil
	}
}

// applyState merges a BUILD state into its target.
func applyState(obj, state Value) Value {
	switch o := obj.(type) {
	case *Object:
		if o.Kind == KindPyCode {
			// State rides as (flag, source, location, mode[, py]).
			if t, ok := state.(*Tuple); ok && len(t.Items) >= 4 {
				o.setAttr("source", t.Items[1])
				o.setAttr("location", t.Items[2])
				o.setAttr("mode", t.Items[3])
			}
			return o
		}
		switch s := state.(type) {
		case *Dict:
			o.mergeDict(s)
		case *Tuple:
			// (dict, slot-dict) split state.
			for _, part := range s.Items {
				if dd, ok := part.(*Dict); ok {
					o.mergeDict(dd)
				}
			}
		}
		return o
	case *Set:
		// Revertable sets restore from a wrapped item collection.
		switch s := state.(type) {
		case *Tuple:
			for _, part := range s.Items {
				switch t := part.(type) {
				case *List:
					o.Items = append(o.Items, t.Items...)
				case *Dict:
					for _, p := range t.Pairs {
						o.Items = append(o.Items, p.Key)
					}
				}
			}
		case *List:
			o.Items = append(o.Items, s.Items...)
		}
		return o
	default:
		return obj
	}
}

func (o *Object) setAttr(name string, v Value) {
	if o.Attrs == nil {
		o.Attrs = make(map[string]Value)
	}
	o.Attrs[name] = v
}

func (o *Object) mergeDict(d *Dict) {
	for _, p := range d.Pairs {
		if k, ok := p.Key.(string); ok {
			o.setAttr(k, p.Val)
		}
	}
}

func (d *decoder) appendTo(v Value) error {
	if len(d.stack) == 0 {
		return d.formatErr("append without a target")
	}
	list, ok := d.stack[len(d.stack)-1].(*List)
	if !ok {
		return d.formatErr("append target is not a list")
	}
	list.Items = append(list.Items, v)
	return nil
}

func (d *decoder) setIn(key, val Value) error {
	if len(d.stack) == 0 {
		return d.formatErr("setitem without a target")
	}
	switch t := d.stack[len(d.stack)-1].(type) {
	case *Dict:
		t.set(key, val)
	case *Object:
		if k, ok := key.(string); ok {
			t.setAttr(k, val)
		}
	default:
		return d.formatErr("setitem target is not a dict")
	}
	return nil
}

func (d *decoder) memoize(idx int) error {
	if len(d.stack) == 0 {
		return d.formatErr("memoize on empty stack")
	}
	if len(d.memo) >= maxMemoSize {
		return &SecurityError{File: d.file, Reason: "memo table exhausted"}
	}
	d.memo[idx] = d.stack[len(d.stack)-1]
	return nil
}

func (d *decoder) push(v Value) {
	d.stack = append(d.stack, v)
}

func (d *decoder) pop() (Value, error) {
	if len(d.stack) == 0 {
		return nil, d.formatErr("stack underflow")
	}
	v := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	return v, nil
}

func (d *decoder) popMark() ([]Value, error) {
	if len(d.marks) == 0 {
		return nil, d.formatErr("mark underflow")
	}
	m := d.marks[len(d.marks)-1]
	d.marks = d.marks[:len(d.marks)-1]
	vs := make([]Value, len(d.stack)-m)
	copy(vs, d.stack[m:])
	d.stack = d.stack[:m]
	return vs, nil
}

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, fmt.Errorf("eof")
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) readN(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.data) {
		return nil, fmt.Errorf("eof")
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) readLine() (string, error) {
	idx := bytes.IndexByte(d.data[d.pos:], '\n')
	if idx < 0 {
		return "", fmt.Errorf("eof")
	}
	line := string(d.data[d.pos : d.pos+idx])
	d.pos += idx + 1
	return line, nil
}

// decodeLong reads a little-endian two's-complement integer. Values beyond 64
// bits saturate; the graphs only carry line numbers and small flags.
func decodeLong(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	var v uint64
	n := len(b)
	if n > 8 {
		n = 8
	}
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	if b[len(b)-1]&0x80 != 0 && len(b) <= 8 {
		// Sign-extend.
		shift := uint(len(b) * 8)
		if shift < 64 {
			v |= ^uint64(0) << shift
		}
	}
	return int64(v)
}
