package coa

import "sort"

// Tree is an arena-backed account hierarchy. Each node stores its parent
// index, so ancestor walks and rollups are index lookups rather than
// repeated string-prefix scans.
type Tree struct {
	nodes []treeNode
	index map[string]int
}

type treeNode struct {
	account  Account
	parent   int
	children []int
}

const noParent = -1

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{index: make(map[string]int)}
}

// BuildTree constructs a tree from accounts, registering parents before
// children. Accounts are sorted by code first, which orders any valid
// prefix hierarchy parent-first.
func BuildTree(accounts []Account) (*Tree, error) {
	sorted := append([]Account(nil), accounts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })
	t := NewTree()
	for _, a := range sorted {
		if err := t.Add(a); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add validates and inserts an account. The parent, when set, must already
// be present and carry the same account type; the level is derived from the
// parent chain.
func (t *Tree) Add(a Account) error {
	if _, ok := t.index[a.Code]; ok {
		return ErrDuplicateCode
	}
	if !a.Type.Valid() {
		return ErrInvalidNature
	}
	parentIdx := noParent
	level := 1
	if a.ParentCode != "" {
		idx, ok := t.index[a.ParentCode]
		if !ok {
			return ErrInvalidParent
		}
		parent := t.nodes[idx].account
		if len(a.ParentCode) >= len(a.Code) || a.Code[:len(a.ParentCode)] != a.ParentCode {
			return ErrInvalidParent
		}
		if parent.Type != a.Type {
			return ErrInvalidParent
		}
		parentIdx = idx
		level = parent.Level + 1
	}
	a.Level = level
	t.nodes = append(t.nodes, treeNode{account: a, parent: parentIdx})
	idx := len(t.nodes) - 1
	t.index[a.Code] = idx
	if parentIdx != noParent {
		t.nodes[parentIdx].children = append(t.nodes[parentIdx].children, idx)
	}
	return nil
}

// Resolve returns the account for code.
func (t *Tree) Resolve(code string) (Account, error) {
	idx, ok := t.index[code]
	if !ok {
		return Account{}, ErrUnknownAccount
	}
	return t.nodes[idx].account, nil
}

// Children returns the direct children of code, ordered by code.
func (t *Tree) Children(code string) ([]Account, error) {
	idx, ok := t.index[code]
	if !ok {
		return nil, ErrUnknownAccount
	}
	out := make([]Account, 0, len(t.nodes[idx].children))
	for _, child := range t.nodes[idx].children {
		out = append(out, t.nodes[child].account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Ancestors returns the parent chain of code, nearest first.
func (t *Tree) Ancestors(code string) ([]Account, error) {
	idx, ok := t.index[code]
	if !ok {
		return nil, ErrUnknownAccount
	}
	var out []Account
	for p := t.nodes[idx].parent; p != noParent; p = t.nodes[p].parent {
		out = append(out, t.nodes[p].account)
	}
	return out, nil
}

// Accounts returns every account ordered by code.
func (t *Tree) Accounts() []Account {
	out := make([]Account, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n.account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Leaves returns accounts without children, ordered by code.
func (t *Tree) Leaves() []Account {
	out := make([]Account, 0, len(t.nodes))
	for _, n := range t.nodes {
		if len(n.children) == 0 {
			out = append(out, n.account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// WalkBottomUp visits every node children-before-parent. Rollups use this
// to compute parent balances from already-computed child balances.
func (t *Tree) WalkBottomUp(fn func(account Account, children []Account)) {
	var visit func(idx int)
	visited := make([]bool, len(t.nodes))
	visit = func(idx int) {
		if visited[idx] {
			return
		}
		visited[idx] = true
		node := t.nodes[idx]
		childAccounts := make([]Account, 0, len(node.children))
		for _, child := range node.children {
			visit(child)
			childAccounts = append(childAccounts, t.nodes[child].account)
		}
		sort.Slice(childAccounts, func(i, j int) bool { return childAccounts[i].Code < childAccounts[j].Code })
		fn(node.account, childAccounts)
	}
	roots := make([]int, 0)
	for idx, n := range t.nodes {
		if n.parent == noParent {
			roots = append(roots, idx)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return t.nodes[roots[i]].account.Code < t.nodes[roots[j]].account.Code })
	for _, idx := range roots {
		visit(idx)
	}
}

// Len reports the number of accounts.
func (t *Tree) Len() int {
	return len(t.nodes)
}
