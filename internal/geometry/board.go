package geometry

import "fmt"

// Board lays shapes out on an n×n×n array. Cells covered by shapes[i] hold
// i+1 and empty cells hold 0. When shapes overlap the later one wins.
func Board(shapes []Shape, n int) ([][][]int, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCubeSize, n)
	}
	board := make([][][]int, n)
	for x := range board {
		board[x] = make([][]int, n)
		for y := range board[x] {
			board[x][y] = make([]int, n)
		}
	}
	for i, s := range shapes {
		for _, v := range s.voxels {
			if !v.Within(n) {
				return nil, fmt.Errorf("shape %d: voxel %v outside %d-grid", i, v, n)
			}
			board[v.X][v.Y][v.Z] = i + 1
		}
	}
	return board, nil
}

// Flatten returns the board cells in x-major order.
func Flatten(board [][][]int) []int {
	var out []int
	for _, plane := range board {
		for _, row := range plane {
			out = append(out, row...)
		}
	}
	return out
}
