package kernelir

// domTree is an iterative dominator-tree computation (Cooper, Harvey &
// Kennedy's "A Simple, Fast Dominance Algorithm"), since the transfer
// functions only ever need an immediate-dominator query for PHI handling.
type domTree struct {
	idom map[int]int
}

func buildDomTree(f *Function) *domTree {
	order := reversePostorder(f)
	indexOf := make(map[int]int, len(order))
	for i, b := range order {
		indexOf[b] = i
	}

	idom := make(map[int]int)
	idom[f.Entry] = f.Entry

	changed := true
	for changed {
		changed = false
		for _, b := range order {
			if b == f.Entry {
				continue
			}
			var newIdom int
			first := true
			for _, p := range f.Blocks_[b].predecessors {
				if _, ok := idom[p]; !ok {
					continue
				}
				if first {
					newIdom = p
					first = false
					continue
				}
				newIdom = intersect(idom, indexOf, newIdom, p)
			}
			if first {
				continue
			}
			if old, ok := idom[b]; !ok || old != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	delete(idom, f.Entry)
	return &domTree{idom: idom}
}

func intersect(idom map[int]int, indexOf map[int]int, a, b int) int {
	for a != b {
		for indexOf[a] > indexOf[b] {
			a = idom[a]
		}
		for indexOf[b] > indexOf[a] {
			b = idom[b]
		}
	}
	return a
}

func reversePostorder(f *Function) []int {
	visited := make(map[int]bool)
	var postorder []int
	var visit func(int)
	visit = func(b int) {
		if visited[b] {
			return
		}
		visited[b] = true
		if blk, ok := f.Blocks_[b]; ok {
			for _, s := range blk.successors {
				visit(s)
			}
		}
		postorder = append(postorder, b)
	}
	visit(f.Entry)
	// Reverse.
	out := make([]int, len(postorder))
	for i, b := range postorder {
		out[len(postorder)-1-i] = b
	}
	return out
}

// dominates reports whether a dominates b (inclusive).
func (d *domTree) dominates(a, b int) bool {
	if a == b {
		return true
	}
	for cur, ok := d.idom[b]; ok; cur, ok = d.idom[cur] {
		if cur == a {
			return true
		}
		if next, hasNext := d.idom[cur]; hasNext && next == cur {
			break
		}
	}
	return false
}
