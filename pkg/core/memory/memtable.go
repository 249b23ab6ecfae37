package memory

import (
	"bidindex/pkg/common"

	"github.com/google/btree"
)

// DefaultDegree is the B-tree degree used when none is configured.
const DefaultDegree = 32

type Item struct {
	Rec common.Record
}

func (i Item) Less(than btree.Item) bool {
	return i.Rec.ID < than.(Item).Rec.ID
}

// MemTable is a B-tree backed ordered index. It keeps the first record
// written for an ID, like the binary search tree it is compared against.
// Only ascending iteration is available: the B-tree's node layout is not exposed.
type MemTable struct {
	tree *btree.BTree
}

func NewMemTable(degree int) *MemTable {
	if degree < 2 {
		degree = DefaultDegree
	}
	return &MemTable{
		tree: btree.New(degree),
	}
}

func (mt *MemTable) Insert(rec common.Record) {
	item := Item{Rec: rec}
	if mt.tree.Has(item) {
		return
	}
	mt.tree.ReplaceOrInsert(item)
}

func (mt *MemTable) Search(id string) (common.Record, bool) {
	res := mt.tree.Get(Item{Rec: common.Record{ID: id}})
	if res == nil {
		return common.Record{}, false
	}
	return res.(Item).Rec, true
}

func (mt *MemTable) Remove(id string) {
	mt.tree.Delete(Item{Rec: common.Record{ID: id}})
}

func (mt *MemTable) Ascend(fn func(common.Record) bool) {
	mt.tree.Ascend(func(i btree.Item) bool {
		return fn(i.(Item).Rec)
	})
}

func (mt *MemTable) Len() int {
	return mt.tree.Len()
}

func (mt *MemTable) Clear() {
	mt.tree.Clear(false)
}
