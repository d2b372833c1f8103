// Package tree maintains nested-set bounds for the role hierarchy.
package tree

import (
	"sort"

	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
)

// ErrCycle is returned when parent links loop back on themselves.
var ErrCycle = types.ErrTreeCycle

// Rebuild recomputes Lft, Rgt, Lvl and Root for the supplied forest using
// parent links only. A node whose parent is outside the slice is treated as a
// root. Every root numbers its tree from 1. Siblings keep their previous
// order (by Lft) with new nodes appended in id order.
func Rebuild(nodes []*role.Role) error {
	if len(nodes) == 0 {
		return nil
	}
	byID := make(map[int64]*role.Role, len(nodes))
	member := make(map[*role.Role]int, len(nodes))
	for i, node := range nodes {
		if node == nil {
			continue
		}
		member[node] = i
		if node.ID != 0 {
			byID[node.ID] = node
		}
	}

	children := make(map[*role.Role][]*role.Role, len(nodes))
	roots := make([]*role.Role, 0, 1)
	for node := range member {
		parent := parentOf(node, member, byID)
		if parent == nil {
			roots = append(roots, node)
			continue
		}
		children[parent] = append(children[parent], node)
	}

	less := func(list []*role.Role) func(i, j int) bool {
		return func(i, j int) bool {
			a, b := list[i], list[j]
			if (a.Lft == 0) != (b.Lft == 0) {
				return a.Lft != 0
			}
			if a.Lft != b.Lft {
				return a.Lft < b.Lft
			}
			if a.ID != b.ID {
				return a.ID < b.ID
			}
			return member[a] < member[b]
		}
	}
	sort.SliceStable(roots, less(roots))
	for parent, list := range children {
		sort.SliceStable(list, less(list))
		parent.Children = list
	}

	visited := 0
	for _, root := range roots {
		counter := 1
		visited += number(root, root.ID, 0, &counter, children)
	}
	if visited != len(member) {
		return ErrCycle
	}
	return nil
}

func parentOf(node *role.Role, member map[*role.Role]int, byID map[int64]*role.Role) *role.Role {
	if node.Parent != nil {
		if _, ok := member[node.Parent]; ok {
			return node.Parent
		}
	}
	if node.ParentID != 0 {
		if parent, ok := byID[node.ParentID]; ok {
			return parent
		}
	}
	return nil
}

func number(node *role.Role, root int64, level int, counter *int, children map[*role.Role][]*role.Role) int {
	node.Lft = *counter
	node.Lvl = level
	node.Root = root
	*counter++
	count := 1
	for _, child := range children[node] {
		count += number(child, root, level+1, counter, children)
	}
	node.Rgt = *counter
	*counter++
	return count
}

// IsDescendantOrSelf reports whether node sits at or below ancestor. Both
// roles must carry bounds from the same tree.
func IsDescendantOrSelf(node, ancestor *role.Role) bool {
	if !sameTree(node, ancestor) {
		return false
	}
	return ancestor.Lft <= node.Lft && node.Rgt <= ancestor.Rgt
}

// IsAncestor reports whether a is a strict ancestor of b.
func IsAncestor(a, b *role.Role) bool {
	if !sameTree(a, b) {
		return false
	}
	return a.Lft < b.Lft && b.Rgt < a.Rgt
}

func sameTree(a, b *role.Role) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Lft == 0 || b.Lft == 0 {
		return false
	}
	return a.Root == b.Root
}
