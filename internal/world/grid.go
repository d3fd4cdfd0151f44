package world

// Grid constants for the 64x64-grid map layout.
const (
	// GridsPerMap - grids per map axis
	GridsPerMap = 64

	// GridSize - grid edge length in yards
	GridSize = 533.33333

	// CellsPerGrid - cells per grid axis (visibility granularity)
	CellsPerGrid = 8

	// CellSize = GridSize / CellsPerGrid = 66.666 yards
	CellSize = GridSize / CellsPerGrid

	// CellsPerMap = GridsPerMap * CellsPerGrid = 512
	CellsPerMap = GridsPerMap * CellsPerGrid

	// MapHalfSize - the map origin sits at the center, coordinates span
	// [-MapHalfSize, MapHalfSize)
	MapHalfSize = GridsPerMap * GridSize / 2
)

// CoordToCellIndex converts a world coordinate to a cell index.
// Formula: (MapHalfSize - coord) / CellSize
func CoordToCellIndex(x, y float32) (cx, cy int32) {
	cx = int32((MapHalfSize - float64(x)) / CellSize)
	cy = int32((MapHalfSize - float64(y)) / CellSize)
	return cx, cy
}

// IsValidCellIndex checks if a cell index is within map bounds.
func IsValidCellIndex(cx, cy int32) bool {
	return cx >= 0 && cx < CellsPerMap && cy >= 0 && cy < CellsPerMap
}

// CellIndexToCoord converts a cell index back to the cell's center coordinate.
func CellIndexToCoord(cx, cy int32) (x, y float32) {
	x = float32(MapHalfSize - (float64(cx)+0.5)*CellSize)
	y = float32(MapHalfSize - (float64(cy)+0.5)*CellSize)
	return x, y
}

// GridIndexOfCell returns the grid owning a cell.
func GridIndexOfCell(cx, cy int32) (gx, gy int32) {
	return cx / CellsPerGrid, cy / CellsPerGrid
}

// GridID packs a grid index into the scalar id used by respawn bookkeeping.
func GridID(gx, gy int32) uint32 {
	return uint32(gy)*GridsPerMap + uint32(gx)
}
