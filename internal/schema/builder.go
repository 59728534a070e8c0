package schema

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Small helpers for assembling descriptorpb values by hand. They only cover
// the shapes the CoreCast schema uses.

type fieldOpt func(*descriptorpb.FieldDescriptorProto)

func repeated() fieldOpt {
	return func(f *descriptorpb.FieldDescriptorProto) {
		f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	}
}

func inOneof(index int32) fieldOpt {
	return func(f *descriptorpb.FieldDescriptorProto) {
		f.OneofIndex = proto.Int32(index)
	}
}

func field(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type, opts ...fieldOpt) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func scalar(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type, opts ...fieldOpt) *descriptorpb.FieldDescriptorProto {
	return field(name, number, typ, opts...)
}

func bytesField(name string, number int32, opts ...fieldOpt) *descriptorpb.FieldDescriptorProto {
	return field(name, number, descriptorpb.FieldDescriptorProto_TYPE_BYTES, opts...)
}

func stringField(name string, number int32, opts ...fieldOpt) *descriptorpb.FieldDescriptorProto {
	return field(name, number, descriptorpb.FieldDescriptorProto_TYPE_STRING, opts...)
}

// messageField references a message declared in this package by its short name.
func messageField(name string, number int32, typeName string, opts ...fieldOpt) *descriptorpb.FieldDescriptorProto {
	f := field(name, number, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, opts...)
	f.TypeName = proto.String("." + Package + "." + typeName)
	return f
}

func enumField(name string, number int32, typeName string, opts ...fieldOpt) *descriptorpb.FieldDescriptorProto {
	f := field(name, number, descriptorpb.FieldDescriptorProto_TYPE_ENUM, opts...)
	f.TypeName = proto.String("." + Package + "." + typeName)
	return f
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{
		Name:  proto.String(name),
		Field: fields,
	}
}

func withOneofs(m *descriptorpb.DescriptorProto, names ...string) *descriptorpb.DescriptorProto {
	for _, n := range names {
		m.OneofDecl = append(m.OneofDecl, &descriptorpb.OneofDescriptorProto{Name: proto.String(n)})
	}
	return m
}

func enum(name string, values ...string) *descriptorpb.EnumDescriptorProto {
	e := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
	for i, v := range values {
		e.Value = append(e.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(v),
			Number: proto.Int32(int32(i)),
		})
	}
	return e
}

func serverStream(name, input, output string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:            proto.String(name),
		InputType:       proto.String("." + Package + "." + input),
		OutputType:      proto.String("." + Package + "." + output),
		ServerStreaming: proto.Bool(true),
	}
}
