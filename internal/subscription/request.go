package subscription

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

const addressesField protoreflect.Name = "addresses"

// Build assembles the subscription request for kind. Only dimensions the kind
// honors are read; an empty list leaves its field unset rather than sending an
// empty filter. Addresses are copied verbatim, order and duplicates included.
func Build(kind Kind, filters FilterSet) (*dynamicpb.Message, error) {
	info, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}
	method, err := kind.Method()
	if err != nil {
		return nil, err
	}

	req := dynamicpb.NewMessage(method.Request)
	for _, d := range info.dims {
		addrs := filters.lists[d]
		if len(addrs) == 0 {
			continue
		}
		fd := method.Request.Fields().ByName(protoreflect.Name(d))
		if fd == nil || fd.Message() == nil {
			return nil, fmt.Errorf("request %s has no %s filter", method.Request.FullName(), d)
		}
		req.Set(fd, protoreflect.ValueOfMessage(addressFilter(fd.Message(), addrs)))
	}
	return req, nil
}

func addressFilter(md protoreflect.MessageDescriptor, addrs []string) *dynamicpb.Message {
	af := dynamicpb.NewMessage(md)
	fd := md.Fields().ByName(addressesField)
	lv := af.NewField(fd)
	list := lv.List()
	for _, a := range addrs {
		list.Append(protoreflect.ValueOfString(a))
	}
	af.Set(fd, lv)
	return af
}

// Addresses reads back the addresses a built request carries for d, and
// whether the field is set at all.
func Addresses(req protoreflect.ProtoMessage, d Dimension) ([]string, bool) {
	m := req.ProtoReflect()
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(d))
	if fd == nil || !m.Has(fd) {
		return nil, false
	}
	af := m.Get(fd).Message()
	list := af.Get(af.Descriptor().Fields().ByName(addressesField)).List()
	out := make([]string, list.Len())
	for i := 0; i < list.Len(); i++ {
		out[i] = list.Get(i).String()
	}
	return out, true
}

// Describe summarizes the filters a request carries, for example
// "program=2 token=1". An unrestricted request reads "unfiltered".
func Describe(kind Kind, req protoreflect.ProtoMessage) string {
	var parts []string
	for _, d := range kind.Dimensions() {
		if addrs, ok := Addresses(req, d); ok {
			parts = append(parts, fmt.Sprintf("%s=%d", d, len(addrs)))
		}
	}
	if len(parts) == 0 {
		return "unfiltered"
	}
	return strings.Join(parts, " ")
}
