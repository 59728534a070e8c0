// Package render turns any CoreCast stream message into display nodes by
// walking its protobuf descriptor. It has no knowledge of individual stream
// kinds: field enumeration, presence and active oneof member all come from
// protoreflect.
package render

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

var (
	ErrRender   = errors.New("render failed")
	ErrMaxDepth = fmt.Errorf("%w: message nesting too deep", ErrRender)
)

const DefaultMaxDepth = 64

type Renderer struct {
	enc      Encoding
	maxDepth int
}

// New returns a renderer that encodes every bytes field with enc.
func New(enc Encoding) *Renderer {
	return &Renderer{enc: enc, maxDepth: DefaultMaxDepth}
}

func (r *Renderer) Encoding() Encoding { return r.enc }

// Build renders m depth-first in field declaration order.
//
// Empty repeated fields, unset sub-messages and inactive oneof members are
// skipped. Every other singular field is emitted, zero values included.
func (r *Renderer) Build(m protoreflect.Message) ([]Node, error) {
	if m == nil || !m.IsValid() {
		return nil, fmt.Errorf("%w: nil message", ErrRender)
	}
	return r.fields(m, 0)
}

func (r *Renderer) fields(m protoreflect.Message, depth int) ([]Node, error) {
	if depth > r.maxDepth {
		return nil, ErrMaxDepth
	}

	fds := m.Descriptor().Fields()
	nodes := make([]Node, 0, fds.Len())
	for i := 0; i < fds.Len(); i++ {
		fd := fds.Get(i)
		n, ok, err := r.field(m, fd, depth)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fd.Name(), err)
		}
		if ok {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

func (r *Renderer) field(m protoreflect.Message, fd protoreflect.FieldDescriptor, depth int) (Node, bool, error) {
	name := string(fd.Name())

	switch {
	case fd.IsMap():
		mp := m.Get(fd).Map()
		if mp.Len() == 0 {
			return Node{}, false, nil
		}
		n, err := r.mapNode(name, fd, mp, depth)
		return n, err == nil, err

	case fd.IsList():
		list := m.Get(fd).List()
		if list.Len() == 0 {
			return Node{}, false, nil
		}
		n := Node{Name: name, Index: -1, Kind: KindList, Children: make([]Node, 0, list.Len())}
		for i := 0; i < list.Len(); i++ {
			item, err := r.value(fd, list.Get(i), depth)
			if err != nil {
				return Node{}, false, fmt.Errorf("[%d]: %w", i, err)
			}
			item.Index = i
			n.Children = append(n.Children, item)
		}
		return n, true, nil

	case fd.ContainingOneof() != nil:
		od := fd.ContainingOneof()
		if m.WhichOneof(od) != fd {
			return Node{}, false, nil
		}
		n, err := r.value(fd, m.Get(fd), depth)
		if err != nil {
			return Node{}, false, err
		}
		n.Name = name
		n.Oneof = !od.IsSynthetic()
		return n, true, nil

	case isMessage(fd):
		if !m.Has(fd) {
			return Node{}, false, nil
		}
	}

	n, err := r.value(fd, m.Get(fd), depth)
	if err != nil {
		return Node{}, false, err
	}
	n.Name = name
	return n, true, nil
}

// value renders one singular value of fd. Name is left for the caller.
func (r *Renderer) value(fd protoreflect.FieldDescriptor, v protoreflect.Value, depth int) (Node, error) {
	n := Node{Index: -1}
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		children, err := r.fields(v.Message(), depth+1)
		if err != nil {
			return Node{}, err
		}
		n.Kind = KindMessage
		n.Children = children
	case protoreflect.BytesKind:
		n.Kind = KindBytes
		n.Value = r.enc.Encode(v.Bytes())
	case protoreflect.EnumKind:
		n.Kind = KindScalar
		if ev := fd.Enum().Values().ByNumber(v.Enum()); ev != nil {
			n.Value = string(ev.Name())
		} else {
			n.Value = int32(v.Enum())
		}
	default:
		n.Kind = KindScalar
		n.Value = v.Interface()
	}
	return n, nil
}

// mapNode lays a map out like a repeated field of key/value entries, ordered
// by key so output is stable.
func (r *Renderer) mapNode(name string, fd protoreflect.FieldDescriptor, mp protoreflect.Map, depth int) (Node, error) {
	keys := make([]protoreflect.MapKey, 0, mp.Len())
	mp.Range(func(k protoreflect.MapKey, _ protoreflect.Value) bool {
		keys = append(keys, k)
		return true
	})
	keyKind := fd.MapKey().Kind()
	slices.SortFunc(keys, func(a, b protoreflect.MapKey) int { return compareKeys(keyKind, a, b) })

	n := Node{Name: name, Index: -1, Kind: KindList, Children: make([]Node, 0, len(keys))}
	for i, k := range keys {
		key, err := r.value(fd.MapKey(), k.Value(), depth)
		if err != nil {
			return Node{}, err
		}
		key.Name = "key"
		val, err := r.value(fd.MapValue(), mp.Get(k), depth)
		if err != nil {
			return Node{}, fmt.Errorf("[%v]: %w", k.Interface(), err)
		}
		val.Name = "value"
		n.Children = append(n.Children, Node{
			Index:    i,
			Kind:     KindMessage,
			Children: []Node{key, val},
		})
	}
	return n, nil
}

func compareKeys(kind protoreflect.Kind, a, b protoreflect.MapKey) int {
	switch kind {
	case protoreflect.BoolKind:
		return cmp.Compare(boolRank(a.Bool()), boolRank(b.Bool()))
	case protoreflect.StringKind:
		return strings.Compare(a.String(), b.String())
	case protoreflect.Uint32Kind, protoreflect.Uint64Kind, protoreflect.Fixed32Kind, protoreflect.Fixed64Kind:
		return cmp.Compare(a.Uint(), b.Uint())
	default:
		return cmp.Compare(a.Int(), b.Int())
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isMessage(fd protoreflect.FieldDescriptor) bool {
	return fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind
}
