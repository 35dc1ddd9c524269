package catalog

import (
	"sync"

	"github.com/banshee-data/blokk/internal/geometry"
)

// builtinPieces is the standard set: one monocube, one domino, two
// trominoes, seven tetrominoes and twenty-five pentominoes, all planar.
var builtinPieces = []Piece{
	// Volume 1
	{ID: 1, Name: "Block 01", Color: "rgb(239, 139, 27)", Volume: 1, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}})},
	// Volume 2
	{ID: 2, Name: "Block 02", Color: "rgb(106, 194, 84)", Volume: 2, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}})},
	// Volume 3
	{ID: 3, Name: "Block 03", Color: "rgb(244, 195, 203)", Volume: 3, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}})},
	{ID: 4, Name: "Block 04", Color: "rgb(252, 221, 80)", Volume: 3, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}})},
	// Volume 4
	{ID: 5, Name: "Block 05", Color: "purple-blue", Volume: 4, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {2, 1, 0}})},
	{ID: 6, Name: "Block 06", Color: "rgb(239, 139, 27)", Volume: 4, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {1, 2, 0}})},
	{ID: 7, Name: "Block 07", Color: "rgb(239, 139, 27)", Volume: 4, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 2, 0}})},
	{ID: 8, Name: "Block 08", Color: "rgb(239, 139, 27)", Volume: 4, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}, {1, 0, 0}})},
	{ID: 9, Name: "Block 09", Color: "rgb(252, 221, 80)", Volume: 4, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {2, 1, 0}})},
	{ID: 10, Name: "Block 10", Color: "rgb(244, 195, 203)", Volume: 4, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}, {1, 2, 0}})},
	{ID: 11, Name: "Block 11", Color: "rgb(239, 139, 27)", Volume: 4, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {2, 0, 0}})},
	// Volume 5
	{ID: 12, Name: "Block 12", Color: "rgb(106, 194, 84)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {2, 1, 0}, {2, 2, 0}})},
	{ID: 13, Name: "Block 13", Color: "rgb(252, 221, 80)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {2, 1, 0}, {3, 1, 0}})},
	{ID: 14, Name: "Block 14", Color: "rgb(239, 139, 27)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {1, 1, 0}, {2, 1, 0}})},
	{ID: 15, Name: "Block 15", Color: "rgb(252, 221, 80)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {1, 2, 0}, {2, 2, 0}})},
	{ID: 16, Name: "Block 16", Color: "rgb(106, 194, 84)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 2, 0}, {2, 2, 0}})},
	{ID: 17, Name: "Block 17", Color: "rgb(106, 194, 84)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}, {1, 2, 0}, {2, 2, 0}})},
	{ID: 18, Name: "Block 18", Color: "rgb(244, 195, 203)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}, {1, 1, 0}, {2, 1, 0}})},
	{ID: 19, Name: "Block 19", Color: "rgb(244, 195, 203)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}, {1, 0, 0}, {2, 0, 0}})},
	{ID: 20, Name: "Block 20", Color: "rgb(106, 194, 84)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {1, 2, 0}, {2, 2, 0}})},
	{ID: 21, Name: "Block 21", Color: "rgb(106, 194, 84)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {2, 1, 0}, {2, 2, 0}})},
	{ID: 22, Name: "Block 22", Color: "rgb(252, 221, 80)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 2, 0}, {2, 2, 0}})},
	{ID: 23, Name: "Block 23", Color: "rgb(239, 139, 27)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {1, 1, 0}, {1, 2, 0}})},
	{ID: 24, Name: "Block 24", Color: "rgb(252, 221, 80)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}, {1, 1, 0}, {2, 1, 0}})},
	{ID: 25, Name: "Block 25", Color: "rgb(244, 195, 203)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {1, 2, 0}, {2, 2, 0}})},
	{ID: 26, Name: "Block 26", Color: "rgb(244, 195, 203)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {2, 1, 0}, {2, 2, 0}})},
	{ID: 27, Name: "Block 27", Color: "rgb(87, 194, 230)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {2, 1, 0}, {3, 1, 0}})},
	{ID: 28, Name: "Block 28", Color: "rgb(167, 99, 137)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {2, 1, 0}, {2, 2, 0}})},
	{ID: 29, Name: "Block 29", Color: "rgb(87, 194, 230)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {2, 1, 0}, {2, 2, 0}})},
	{ID: 30, Name: "Block 30", Color: "rgb(167, 99, 137)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {1, 1, 0}, {2, 1, 0}})},
	{ID: 31, Name: "Block 31", Color: "rgb(87, 194, 230)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 2, 0}, {2, 2, 0}})},
	{ID: 32, Name: "Block 32", Color: "rgb(167, 99, 137)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {2, 1, 0}, {2, 2, 0}})},
	{ID: 33, Name: "Block 33", Color: "rgb(87, 194, 230)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {2, 1, 0}, {2, 2, 0}})},
	{ID: 34, Name: "Block 34", Color: "rgb(167, 99, 137)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {2, 1, 0}, {2, 2, 0}})},
	{ID: 35, Name: "Block 35", Color: "rgb(87, 194, 230)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {2, 1, 0}, {2, 2, 0}})},
	{ID: 36, Name: "Block 36", Color: "rgb(167, 99, 137)", Volume: 5, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}, {1, 2, 0}, {2, 2, 0}})},
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the built-in 36-piece catalog. It is built on first use
// and shared afterwards.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := New(builtinPieces)
		if err != nil {
			panic("catalog: invalid built-in table: " + err.Error())
		}
		defaultCat = c
	})
	return defaultCat
}
