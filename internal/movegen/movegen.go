package movegen

import "github.com/kopperchess/corechess/internal/chess"

// maxMoves bounds the capacity reserved for a pseudo-legal move list: a
// safe upper bound (≥200) covering theoretical maxima plus ordering
// workspace, per the design's capacity note.
const maxMoves = 220

var promotionKinds = [4]chess.PieceKind{chess.Queen, chess.Knight, chess.Bishop, chess.Rook}

// Generate returns the pseudo-legal moves available to the side to move in
// pos. When capturesOnly is true, only moves that capture a piece are
// returned (used by quiescence search); castling is never a capture and so
// is never emitted in that mode. Legality (own-king safety) is not checked
// here -- that filter lives in the search package.
func Generate(pos *chess.Position, capturesOnly bool) []chess.Move {
	moves := make([]chess.Move, 0, maxMoves)
	color := pos.SideToMove()
	for f := int8(0); f < 8; f++ {
		for r := int8(0); r < 8; r++ {
			sq := chess.Coord{File: f, Rank: r}
			p := pos.PieceAt(sq)
			if p.IsEmpty() || p.Color != color {
				continue
			}
			switch p.Kind {
			case chess.Pawn:
				genPawnMoves(pos, sq, color, capturesOnly, &moves)
			case chess.Knight:
				genOffsetMoves(pos, sq, color, capturesOnly, knightOffsets[:], &moves)
			case chess.Bishop:
				genSlideMoves(pos, sq, color, capturesOnly, diagonalDirs[:], &moves)
			case chess.Rook:
				genSlideMoves(pos, sq, color, capturesOnly, orthogonalDirs[:], &moves)
			case chess.Queen:
				genSlideMoves(pos, sq, color, capturesOnly, allDirs[:], &moves)
			case chess.King:
				genOffsetMoves(pos, sq, color, capturesOnly, allDirs[:], &moves)
				if !capturesOnly {
					genCastling(pos, sq, color, &moves)
				}
			}
		}
	}
	return moves
}

func lastRank(color chess.Color) int8 {
	if color == chess.White {
		return 7
	}
	return 0
}

func genPawnMoves(pos *chess.Position, sq chess.Coord, color chess.Color, capturesOnly bool, moves *[]chess.Move) {
	dir := int8(1)
	startRank := int8(1)
	if color == chess.Black {
		dir = -1
		startRank = 6
	}
	final := lastRank(color)

	if !capturesOnly {
		one := chess.Coord{File: sq.File, Rank: sq.Rank + dir}
		if one.Valid() && pos.PieceAt(one).IsEmpty() {
			appendPawnMove(moves, sq, one, chess.NoPiece, final)
			if sq.Rank == startRank {
				two := chess.Coord{File: sq.File, Rank: sq.Rank + 2*dir}
				if pos.PieceAt(two).IsEmpty() {
					appendPawnMove(moves, sq, two, chess.NoPiece, final)
				}
			}
		}
	}

	for _, df := range [2]int8{-1, 1} {
		to := chess.Coord{File: sq.File + df, Rank: sq.Rank + dir}
		if !to.Valid() {
			continue
		}
		target := pos.PieceAt(to)
		if !target.IsEmpty() && target.Color != color {
			appendPawnMove(moves, sq, to, target, final)
		}
	}
}

func appendPawnMove(moves *[]chess.Move, from, to chess.Coord, captured chess.Piece, final int8) {
	if to.Rank == final {
		for _, k := range promotionKinds {
			*moves = append(*moves, chess.Move{From: from, To: to, Captured: captured, PromoteTo: k})
		}
		return
	}
	*moves = append(*moves, chess.Move{From: from, To: to, Captured: captured})
}

func genOffsetMoves(pos *chess.Position, sq chess.Coord, color chess.Color, capturesOnly bool, offsets []offset, moves *[]chess.Move) {
	for _, d := range offsets {
		to := chess.Coord{File: sq.File + d.df, Rank: sq.Rank + d.dr}
		if !to.Valid() {
			continue
		}
		target := pos.PieceAt(to)
		if target.IsEmpty() {
			if !capturesOnly {
				*moves = append(*moves, chess.Move{From: sq, To: to})
			}
			continue
		}
		if target.Color != color {
			*moves = append(*moves, chess.Move{From: sq, To: to, Captured: target})
		}
	}
}

func genSlideMoves(pos *chess.Position, sq chess.Coord, color chess.Color, capturesOnly bool, dirs []offset, moves *[]chess.Move) {
	for _, d := range dirs {
		cur := chess.Coord{File: sq.File + d.df, Rank: sq.Rank + d.dr}
		for cur.Valid() {
			target := pos.PieceAt(cur)
			if target.IsEmpty() {
				if !capturesOnly {
					*moves = append(*moves, chess.Move{From: sq, To: cur})
				}
				cur = chess.Coord{File: cur.File + d.df, Rank: cur.Rank + d.dr}
				continue
			}
			if target.Color != color {
				*moves = append(*moves, chess.Move{From: sq, To: cur, Captured: target})
			}
			break
		}
	}
}

// genCastling emits a castling move only if: the relevant right is held,
// the king is not currently attacked, and the squares between king and rook
// are both empty and unattacked by the opponent.
func genCastling(pos *chess.Position, kingSq chess.Coord, color chess.Color, moves *[]chess.Move) {
	opp := color.Opponent()
	if IsSquareAttacked(pos, kingSq, opp) {
		return
	}
	rank := kingSq.Rank

	tryCastle := func(right chess.CastleRight, side chess.CastleSide, pathFiles []int8) {
		if !pos.HasCastleRight(right) {
			return
		}
		for _, f := range pathFiles {
			sq := chess.Coord{File: f, Rank: rank}
			if !pos.PieceAt(sq).IsEmpty() {
				return
			}
		}
		// Every square strictly between king and rook must also be
		// unattacked; the king's destination is the second of them.
		for _, f := range pathFiles {
			sq := chess.Coord{File: f, Rank: rank}
			if IsSquareAttacked(pos, sq, opp) {
				return
			}
		}
		to := chess.Coord{File: pathFiles[1], Rank: rank}
		*moves = append(*moves, chess.Move{From: kingSq, To: to, CastleSide: side})
	}

	if color == chess.White {
		tryCastle(chess.WhiteKingside, chess.Kingside, []int8{5, 6})
		tryCastle(chess.WhiteQueenside, chess.Queenside, []int8{3, 2, 1})
	} else {
		tryCastle(chess.BlackKingside, chess.Kingside, []int8{5, 6})
		tryCastle(chess.BlackQueenside, chess.Queenside, []int8{3, 2, 1})
	}
}
