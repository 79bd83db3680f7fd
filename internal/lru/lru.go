// Package lru provides the recency list behind the texture cache.
package lru

// Node is an element of a List. The node stores its key so the owner can
// delete the matching map entry in O(1) when the node is evicted.
type Node[K comparable] struct {
	Key  K
	prev *Node[K]
	next *Node[K]
	list *List[K]
}

// List is a doubly-linked list ordered by recency.
// The front is the most recently used node, the back the least recently used.
//
// List is not thread-safe; callers must handle synchronization.
type List[K comparable] struct {
	head *Node[K]
	tail *Node[K]
	len  int
}

// New creates an empty list.
func New[K comparable]() *List[K] {
	return &List[K]{}
}

// Len returns the number of nodes in the list.
func (l *List[K]) Len() int {
	return l.len
}

// PushFront adds key at the front and returns its node.
func (l *List[K]) PushFront(key K) *Node[K] {
	node := &Node[K]{Key: key, list: l}
	l.linkFront(node)
	return node
}

// MoveToFront marks node as most recently used.
// Nodes that belong to another list are ignored.
func (l *List[K]) MoveToFront(node *Node[K]) {
	if node == nil || node.list != l || node == l.head {
		return
	}
	l.unlink(node)
	l.linkFront(node)
}

// Remove deletes node from the list.
func (l *List[K]) Remove(node *Node[K]) {
	if node == nil || node.list != l {
		return
	}
	l.unlink(node)
	node.list = nil
}

// Back returns the least recently used node, or nil for an empty list.
func (l *List[K]) Back() *Node[K] {
	return l.tail
}

// Prev returns the next more recently used node, or nil at the front.
func (n *Node[K]) Prev() *Node[K] {
	return n.prev
}

// Clear removes all nodes.
func (l *List[K]) Clear() {
	for n := l.head; n != nil; {
		next := n.next
		n.prev, n.next, n.list = nil, nil, nil
		n = next
	}
	l.head = nil
	l.tail = nil
	l.len = 0
}

func (l *List[K]) linkFront(node *Node[K]) {
	node.prev = nil
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.len++
}

// unlink detaches node and clears its neighbour pointers.
func (l *List[K]) unlink(node *Node[K]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}

	node.prev = nil
	node.next = nil
	l.len--
}
