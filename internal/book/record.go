package book

import "movecache/internal/movetree"

// Record is the on-disk form of a tree node: the origin and destination
// square of the move (A1=0 .. H8=63) and the replies that follow it.
type Record struct {
	From     uint8
	To       uint8
	Children []Record
}

// Forest is an ordered list of first-ply records.
type Forest []Record

func (f Forest) Equal(other Forest) bool {
	if len(f) != len(other) {
		return false
	}
	for i := range f {
		if f[i].From != other[i].From || f[i].To != other[i].To {
			return false
		}
		if !Forest(f[i].Children).Equal(other[i].Children) {
			return false
		}
	}
	return true
}

// Walk visits records in pre-order with roots at depth 1. Children of a
// record are skipped when fn returns false.
func (f Forest) Walk(fn func(r *Record, depth int) bool) {
	walk(f, 1, fn)
}

func walk(records []Record, depth int, fn func(*Record, int) bool) {
	for i := range records {
		if fn(&records[i], depth) {
			walk(records[i].Children, depth+1, fn)
		}
	}
}

func (f Forest) Stats() movetree.Stats {
	var s movetree.Stats
	f.Walk(func(r *Record, depth int) bool {
		s.Nodes++
		if len(r.Children) == 0 {
			s.Leaves++
		}
		s.MaxDepth = max(s.MaxDepth, depth)
		return true
	})
	return s
}
