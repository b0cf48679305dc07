package memory

import (
	"math/rand"

	"github.com/idletap/tapgame-go/internal/model"
	"github.com/idletap/tapgame-go/internal/rankstore"
)

// Treap keyed by (score, playerID) with subtree sizes so rank and
// range queries run in O(log n). In-order traversal yields the
// leaderboard from best to worst.
//
// Ordering: score DESC, then playerID DESC. The descending tie-break
// mirrors what a reversed Redis ZSET range produces for equal scores,
// so the fallback agrees with the backend it substitutes for.

type node struct {
	id    string
	score int64
	prio  uint64
	left  *node
	right *node
	size  int64
}

func nsize(n *node) int64 {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aScore, aID) ranks earlier than (bScore, bID)
func less(aScore int64, aID string, bScore int64, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID > bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score int64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: rand.Uint64(), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, id string, score int64) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = remove(n.left, id, score)
	} else {
		n.right = remove(n.right, id, score)
	}
	fix(n)
	return n
}

// rankOf returns the zero-based in-order position of (id, score),
// or -1 if absent
func rankOf(n *node, id string, score int64) int64 {
	var r int64
	for n != nil {
		if score == n.score && id == n.id {
			return r + nsize(n.left)
		}
		if less(score, id, n.score, n.id) {
			n = n.left
		} else {
			r += nsize(n.left) + 1
			n = n.right
		}
	}
	return -1
}

// collectRange appends entries with in-order indices in [start, stop],
// pruning subtrees that fall outside the window
func collectRange(n *node, base, start, stop int64, out *[]rankstore.Entry) {
	if n == nil {
		return
	}
	idx := base + nsize(n.left)
	if start < idx {
		collectRange(n.left, base, start, stop, out)
	}
	if idx >= start && idx <= stop {
		*out = append(*out, rankstore.Entry{
			PlayerID: model.PlayerID(n.id),
			Score:    n.score,
		})
	}
	if stop > idx {
		collectRange(n.right, idx+1, start, stop, out)
	}
}
