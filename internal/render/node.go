package render

// NodeKind says how a Node is laid out.
type NodeKind uint8

const (
	KindScalar NodeKind = iota
	KindBytes
	KindMessage
	KindList
)

// Node is the display form of one field, or of one element of a repeated
// field. It only lives for the duration of one render.
type Node struct {
	Name string
	// Index is the element position inside a repeated field, -1 for fields.
	Index int
	Kind  NodeKind
	// Oneof marks the active member of a oneof.
	Oneof bool
	// Value holds the literal for scalars and the encoded string for bytes.
	Value    any
	Children []Node
}

func (n Node) IsLeaf() bool {
	return n.Kind == KindScalar || n.Kind == KindBytes
}

// Find returns the direct child called name.
func Find(nodes []Node, name string) (Node, bool) {
	for _, n := range nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// ToMap converts nodes into plain maps and slices, suitable for JSON.
func ToMap(nodes []Node) map[string]any {
	out := make(map[string]any, len(nodes))
	for _, n := range nodes {
		out[n.Name] = plain(n)
	}
	return out
}

func plain(n Node) any {
	switch n.Kind {
	case KindMessage:
		return ToMap(n.Children)
	case KindList:
		items := make([]any, len(n.Children))
		for i, c := range n.Children {
			items[i] = plain(c)
		}
		return items
	default:
		return n.Value
	}
}
