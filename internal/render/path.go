package render

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// FieldValue follows a dot-separated path such as "trade.dex.protocol_name"
// through singular message fields. It reports false when a segment does not
// exist or an intermediate message is unset.
func FieldValue(m protoreflect.Message, path string) (protoreflect.FieldDescriptor, protoreflect.Value, bool) {
	parent, fd, ok := resolve(m, path)
	if !ok {
		return nil, protoreflect.Value{}, false
	}
	return fd, parent.Get(fd), true
}

// Lookup resolves path and returns the field in display form: scalars as
// literals, bytes encoded, messages and lists as plain maps and slices. An
// unset field yields nil.
func (r *Renderer) Lookup(m protoreflect.Message, path string) (any, error) {
	parent, fd, ok := resolve(m, path)
	if !ok {
		return nil, fmt.Errorf("%w: no field at %q", ErrRender, path)
	}
	n, present, err := r.field(parent, fd, 0)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return plain(n), nil
}

// resolve returns the message holding the last path segment and its field.
func resolve(m protoreflect.Message, path string) (protoreflect.Message, protoreflect.FieldDescriptor, bool) {
	if m == nil || path == "" {
		return nil, nil, false
	}
	segments := strings.Split(path, ".")
	cur := m
	for i, seg := range segments {
		fd := cur.Descriptor().Fields().ByName(protoreflect.Name(seg))
		if fd == nil {
			return nil, nil, false
		}
		if i == len(segments)-1 {
			return cur, fd, true
		}
		if fd.IsList() || fd.IsMap() || !isMessage(fd) || !cur.Has(fd) {
			return nil, nil, false
		}
		cur = cur.Get(fd).Message()
	}
	return nil, nil, false
}
