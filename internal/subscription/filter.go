package subscription

// Dimension names an address-based restriction on a stream.
type Dimension string

const (
	Program  Dimension = "program"
	Pool     Dimension = "pool"
	Token    Dimension = "token"
	Trader   Dimension = "trader"
	Sender   Dimension = "sender"
	Receiver Dimension = "receiver"
	Address  Dimension = "address"
	Signer   Dimension = "signer"
)

// AllDimensions lists every dimension a configuration may carry.
func AllDimensions() []Dimension {
	return []Dimension{Program, Pool, Token, Trader, Sender, Receiver, Address, Signer}
}

// FilterSet holds the configured address lists per dimension. It is built once
// and only read afterwards; accessors hand out copies.
type FilterSet struct {
	lists map[Dimension][]string
}

func NewFilterSet(lists map[Dimension][]string) FilterSet {
	fs := FilterSet{lists: make(map[Dimension][]string, len(lists))}
	for d, addrs := range lists {
		if len(addrs) == 0 {
			continue
		}
		fs.lists[d] = append([]string(nil), addrs...)
	}
	return fs
}

// Get returns the addresses configured for d, nil when unrestricted.
func (f FilterSet) Get(d Dimension) []string {
	addrs := f.lists[d]
	if len(addrs) == 0 {
		return nil
	}
	return append([]string(nil), addrs...)
}

func (f FilterSet) Len(d Dimension) int {
	return len(f.lists[d])
}

// Counts reports list sizes for every dimension; used for debug logging.
func (f FilterSet) Counts() map[Dimension]int {
	out := make(map[Dimension]int, len(AllDimensions()))
	for _, d := range AllDimensions() {
		out[d] = len(f.lists[d])
	}
	return out
}
