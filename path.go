package unitconv

import "container/heap"

// shortestPath returns the node sequence from src to dst with the fewest
// hops, or nil when the two are disconnected. Anything shorter than one edge
// counts as no path; the src == dst case is short-circuited by the caller
// before a graph is ever built.
func shortestPath(g *Graph, src, dst int64) []int64 {
	if !g.HasNode(src) || !g.HasNode(dst) {
		return nil
	}

	dist := map[int64]int{src: 0}
	prev := make(map[int64]int64)
	done := make(map[int64]bool)

	pq := &pathQueue{}
	heap.Init(pq)
	heap.Push(pq, pathItem{id: src, dist: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pathItem)
		if done[cur.id] {
			continue
		}
		done[cur.id] = true
		if cur.id == dst {
			break
		}
		for _, next := range g.Neighbors(cur.id) {
			if done[next] {
				continue
			}
			alt := cur.dist + 1
			if d, seen := dist[next]; !seen || alt < d {
				dist[next] = alt
				prev[next] = cur.id
				heap.Push(pq, pathItem{id: next, dist: alt})
			}
		}
	}

	if !done[dst] {
		return nil
	}
	path := []int64{dst}
	for at := dst; at != src; {
		at = prev[at]
		path = append([]int64{at}, path...)
	}
	if len(path) < 2 {
		return nil
	}
	return path
}

type pathItem struct {
	id   int64
	dist int
}

type pathQueue []pathItem

func (q pathQueue) Len() int { return len(q) }

func (q pathQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].id < q[j].id
}

func (q pathQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *pathQueue) Push(x any) { *q = append(*q, x.(pathItem)) }

func (q *pathQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
