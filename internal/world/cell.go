package world

import (
	"github.com/openwow/wowgo/internal/model"
)

// Cell is one spatial bucket of the map grid. Cells are touched only from
// the owning map's update goroutine, so no locking is needed.
type Cell struct {
	cx, cy int32

	objects map[model.ObjectGuid]*model.WorldObject
}

// NewCell creates an empty cell.
func NewCell(cx, cy int32) *Cell {
	return &Cell{cx: cx, cy: cy, objects: make(map[model.ObjectGuid]*model.WorldObject)}
}

// CX returns the cell X index.
func (c *Cell) CX() int32 { return c.cx }

// CY returns the cell Y index.
func (c *Cell) CY() int32 { return c.cy }

// Add places an object in the cell.
func (c *Cell) Add(obj *model.WorldObject) {
	c.objects[obj.GUID()] = obj
}

// Remove drops an object from the cell.
func (c *Cell) Remove(guid model.ObjectGuid) {
	delete(c.objects, guid)
}

// Len returns the object count.
func (c *Cell) Len() int { return len(c.objects) }

// ForEach iterates the cell's objects; fn returning false stops iteration
// and is propagated to the caller.
func (c *Cell) ForEach(fn func(*model.WorldObject) bool) bool {
	for _, obj := range c.objects {
		if !fn(obj) {
			return false
		}
	}
	return true
}
