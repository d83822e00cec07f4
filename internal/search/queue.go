package search

// gridNode is a cell reached by the grid search.
type gridNode struct {
	X, Y   int     // cell indices
	ID     int     // grid index, identity in the open and closed sets
	Cost   float64 // accumulated cost from start
	Parent int     // grid index of the parent, -1 for the start
	F      float64 // Cost + heuristic
	Index  int     // Index in the heap
}

// PriorityQueue implements heap.Interface for the open set. Equal priorities are
// ordered by grid index so that expansion order never depends on map iteration.
type PriorityQueue []*gridNode

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	if pq[i].F != pq[j].F {
		return pq[i].F < pq[j].F
	}
	return pq[i].ID < pq[j].ID
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *PriorityQueue) Push(x interface{}) {
	n := len(*pq)
	node := x.(*gridNode)
	node.Index = n
	*pq = append(*pq, node)
}

func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.Index = -1
	*pq = old[0 : n-1]
	return node
}
