package model

// treeNode is one node of the Huffman coding tree. Leaves occupy indices
// [0, V); internal nodes occupy [V, 2V-1); the root is node 2V-2.
type treeNode struct {
	parent int
	left   int
	right  int
	count  int64
	binary bool // true if this node is its parent's right child
}

// unsetCount is the sentinel count for not-yet-created internal nodes; it
// must compare greater than any real count.
const unsetCount = int64(1e15)

// buildTree builds the Huffman tree over the class counts and caches every
// leaf's (path, code) to the root.
//
// Precondition: counts must be ascending in class index. The builder is a
// greedy two-pointer merge, not a general Huffman algorithm: the remaining
// leaf pointer starts at class 0 and walks upward, so it only points at the
// smallest remaining leaf when counts are pre-sorted ascending. Violating
// the precondition silently yields a non-optimal tree.
func (m *Model) buildTree(counts []int64) {
	m.tree = make([]treeNode, 2*m.osz-1)
	for i := range m.tree {
		m.tree[i] = treeNode{parent: -1, left: -1, right: -1, count: unsetCount}
	}
	for i := 0; i < m.osz; i++ {
		m.tree[i].count = counts[i]
	}
	leaf := 0
	node := m.osz
	for i := m.osz; i < 2*m.osz-1; i++ {
		var mini [2]int
		for j := 0; j < 2; j++ {
			if leaf < m.osz && m.tree[leaf].count < m.tree[node].count {
				mini[j] = leaf
				leaf++
			} else {
				mini[j] = node
				node++
			}
		}
		m.tree[i].left = mini[0]
		m.tree[i].right = mini[1]
		m.tree[i].count = m.tree[mini[0]].count + m.tree[mini[1]].count
		m.tree[mini[0]].parent = i
		m.tree[mini[1]].parent = i
		m.tree[mini[1]].binary = true
	}

	m.paths = make([][]int, 0, m.osz)
	m.codes = make([][]bool, 0, m.osz)
	for i := 0; i < m.osz; i++ {
		var path []int
		var code []bool
		for j := i; m.tree[j].parent != -1; j = m.tree[j].parent {
			// Internal nodes address output rows offset by -V.
			path = append(path, m.tree[j].parent-m.osz)
			code = append(code, m.tree[j].binary)
		}
		m.paths = append(m.paths, path)
		m.codes = append(m.codes, code)
	}
}
