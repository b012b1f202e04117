package trie

// node is one rune step in the token trie. A node carries postings only when
// the path from the root to it spells a stored token.
type node struct {
	children map[rune]*node
	ids      map[int64]struct{}
}

func newNode() *node {
	return &node{children: make(map[rune]*node)}
}

// add records id under token, creating the path as needed.
func (n *node) add(token string, id int64) {
	cur := n
	for _, r := range token {
		next, ok := cur.children[r]
		if !ok {
			next = newNode()
			cur.children[r] = next
		}
		cur = next
	}
	if cur.ids == nil {
		cur.ids = make(map[int64]struct{}, 1)
	}
	cur.ids[id] = struct{}{}
}

// remove drops id from token's postings. A token left with no postings is
// removed and any branch that no longer leads to a token is pruned.
func (n *node) remove(token string, id int64) {
	runes := []rune(token)
	path := make([]*node, 0, len(runes)+1)
	path = append(path, n)
	cur := n
	for _, r := range runes {
		next, ok := cur.children[r]
		if !ok {
			return
		}
		path = append(path, next)
		cur = next
	}
	delete(cur.ids, id)
	if len(cur.ids) == 0 {
		cur.ids = nil
	}
	for i := len(runes); i > 0; i-- {
		child := path[i]
		if child.ids != nil || len(child.children) > 0 {
			return
		}
		delete(path[i-1].children, runes[i-1])
	}
}

// longestStored walks query rune by rune and returns the deepest node whose
// path is a stored token and a prefix of (or equal to) query.
func (n *node) longestStored(query string) *node {
	var match *node
	cur := n
	for _, r := range query {
		next, ok := cur.children[r]
		if !ok {
			break
		}
		cur = next
		if cur.ids != nil {
			match = cur
		}
	}
	return match
}

// collect adds the postings of n and every descendant to out. The walk uses
// an explicit stack so deep tokens never grow the goroutine stack.
func (n *node) collect(out map[int64]struct{}) {
	stack := []*node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for id := range cur.ids {
			out[id] = struct{}{}
		}
		for _, child := range cur.children {
			stack = append(stack, child)
		}
	}
}

// postings returns the ids stored exactly at token, or nil.
func (n *node) postings(token string) map[int64]struct{} {
	cur := n
	for _, r := range token {
		next, ok := cur.children[r]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur.ids
}

// tokenCount reports the number of stored tokens under n.
func (n *node) tokenCount() int {
	count := 0
	stack := []*node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.ids != nil {
			count++
		}
		for _, child := range cur.children {
			stack = append(stack, child)
		}
	}
	return count
}
