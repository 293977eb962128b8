package chess

import "github.com/kopperchess/corechess/internal/zobrist"

func init() {
	zobrist.Init()
}
