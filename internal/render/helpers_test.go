package render

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/fystack/corecast-client/internal/schema"
)

func newMessage(t *testing.T, name string) *dynamicpb.Message {
	t.Helper()
	md, err := schema.Message(name)
	require.NoError(t, err)
	return dynamicpb.NewMessage(md)
}

func fieldOf(m protoreflect.Message, name string) protoreflect.FieldDescriptor {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic("no field " + name + " on " + string(m.Descriptor().FullName()))
	}
	return fd
}

func set(m protoreflect.Message, name string, v any) {
	m.Set(fieldOf(m, name), protoreflect.ValueOf(v))
}

func child(m protoreflect.Message, name string) protoreflect.Message {
	return m.Mutable(fieldOf(m, name)).Message()
}

func list(m protoreflect.Message, name string) protoreflect.List {
	return m.Mutable(fieldOf(m, name)).List()
}
