package ssa

import "github.com/msiegel/substratum-sub000/internal/ir"

// reversePostorder returns block labels reachable from block 0 in
// reverse-postorder, the traversal order spec.md §4.6 stage 2 (write
// renumbering) requires.
func reversePostorder(cf *ir.ControlFlow) []int {
	visited := map[int]bool{}
	var post []int

	var visit func(label int)
	visit = func(label int) {
		if visited[label] {
			return
		}
		visited[label] = true
		for _, s := range cf.Successors(label) {
			visit(s)
		}
		post = append(post, label)
	}
	visit(0)

	rpo := make([]int, len(post))
	for i, label := range post {
		rpo[len(post)-1-i] = label
	}
	return rpo
}
