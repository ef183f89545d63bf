package cache

// node is one cache entry. It is owned by the table and linked into an
// intrusive doubly linked list ordered by liveliness, and, when it has an
// expiration, into the expiration heap.
type node struct {
	key   string
	value *Value

	// liveliness is the table's logical clock value at the last read or
	// write. The list is sorted by it: head has the largest.
	liveliness uint64

	exp Expiration

	prev *node
	next *node

	// heapIdx is the node's position in the expiration heap, -1 if absent.
	heapIdx int
}

func (n *node) size() uint64 { return uint64(n.value.Size()) }

// expirationHeap orders nodes by deadline, earliest first. It implements
// container/heap.Interface.
type expirationHeap []*node

func (h expirationHeap) Len() int           { return len(h) }
func (h expirationHeap) Less(i, j int) bool { return h[i].exp.ms < h[j].exp.ms }

func (h expirationHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx = i
	h[j].heapIdx = j
}

func (h *expirationHeap) Push(x any) {
	n := x.(*node)
	n.heapIdx = len(*h)
	*h = append(*h, n)
}

func (h *expirationHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	n.heapIdx = -1
	return n
}
