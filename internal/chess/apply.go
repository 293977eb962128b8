package chess

// Apply and Unapply are exact inverses of each other (spec invariant I5):
// Unapply(m) immediately after Apply(m) restores the position bit-for-bit,
// including the incremental Zobrist hash. Grounded on the teacher's
// Position.DoMove/UndoMove (internal/position/position.go), generalized from
// the teacher's history-stack undo to the distilled design's "lost on ply"
// bookkeeping so a single Move value is enough to invert the mutation.

// Apply performs the 8-step mutation described in the design: XOR out the
// mover and any captured piece, write the new piece, XOR it back in, flip
// the side to move, bump the ply, move the rook on castling, update the
// king cache, and revoke/record any castling rights the move extinguishes.
func (p *Position) Apply(m Move) {
	mover := p.PieceAt(m.From)

	// 1. XOR out the piece leaving `from` and anything captured on `to`.
	p.hash ^= zobristPieceKey(mover, m.From)
	captured := p.PieceAt(m.To)
	if !captured.IsEmpty() {
		p.hash ^= zobristPieceKey(captured, m.To)
	}

	// 2-3. Write the piece (promoted kind if a promotion) to `to`, empty
	// `from`, XOR the new piece in.
	placed := mover
	if m.PromoteTo != NoKind {
		placed = NewPiece(m.PromoteTo, mover.Color)
	}
	p.board[m.From.File][m.From.Rank] = NoPiece
	p.board[m.To.File][m.To.Rank] = placed
	p.hash ^= zobristPieceKey(placed, m.To)

	// 4. Toggle side to move.
	p.hash ^= sideToMoveKey()
	p.sideToMove = p.sideToMove.Opponent()

	// 5. Bump ply counters.
	p.lastMovePly++
	p.gamePly++

	// 6. Castling: move the rook from its corner to its post-castle square.
	if m.CastleSide != NoCastle {
		color := mover.Color
		_, rookFrom, rookTo := castleDestinations(color, m.CastleSide)
		rook := p.PieceAt(rookFrom)
		p.hash ^= zobristPieceKey(rook, rookFrom)
		p.board[rookFrom.File][rookFrom.Rank] = NoPiece
		p.board[rookTo.File][rookTo.Rank] = rook
		p.hash ^= zobristPieceKey(rook, rookTo)
	}

	// 7. Maintain the king-square cache.
	if mover.Kind == King {
		p.kingSq[colorIdx(mover.Color)] = m.To
	}

	// 8. Castling-rights bookkeeping: a king move revokes both of that
	// color's rights; a move touching a rook's home square revokes the
	// matching right. Record the ply each right was lost on so Unapply can
	// restore it exactly.
	if mover.Kind == King {
		ks, qs := rightsForColor(mover.Color)
		p.revokeRight(ks)
		p.revokeRight(qs)
	}
	for _, r := range [4]CastleRight{WhiteKingside, WhiteQueenside, BlackKingside, BlackQueenside} {
		if p.rights[r] {
			home := rookStart(r)
			if m.From == home || m.To == home {
				p.revokeRight(r)
			}
		}
	}
}

func (p *Position) revokeRight(r CastleRight) {
	if !p.rights[r] {
		return
	}
	p.rights[r] = false
	p.lostOnPly[r] = p.lastMovePly
	p.hash ^= zobristCastleKey(r)
}

// Unapply is the exact inverse of Apply for the same Move value.
func (p *Position) Unapply(m Move) {
	// Invert step 8: restore any castling right lost on the ply we're about
	// to undo.
	for r := CastleRight(0); r < numCastleRights; r++ {
		if !p.rights[r] && p.lostOnPly[r] == p.lastMovePly {
			p.rights[r] = true
			p.lostOnPly[r] = -1
			p.hash ^= zobristCastleKey(r)
		}
	}

	// Invert step 7: restore the cached king square.
	moverKind := p.PieceAt(m.To).Kind
	if m.PromoteTo != NoKind {
		moverKind = Pawn
	}
	if moverKind == King {
		p.kingSq[colorIdx(p.PieceAt(m.To).Color)] = m.From
	}

	// Invert step 6: restore the rook.
	if m.CastleSide != NoCastle {
		color := p.PieceAt(m.To).Color
		_, rookFrom, rookTo := castleDestinations(color, m.CastleSide)
		rook := p.PieceAt(rookTo)
		p.hash ^= zobristPieceKey(rook, rookTo)
		p.board[rookTo.File][rookTo.Rank] = NoPiece
		p.board[rookFrom.File][rookFrom.Rank] = rook
		p.hash ^= zobristPieceKey(rook, rookFrom)
	}

	// Invert steps 1-3: restore the captured piece on `to` and the mover
	// (demoted to a pawn if it was a promotion) on `from`.
	onTo := p.PieceAt(m.To)
	p.hash ^= zobristPieceKey(onTo, m.To)
	mover := onTo
	if m.PromoteTo != NoKind {
		mover = NewPiece(Pawn, onTo.Color)
	}
	p.board[m.To.File][m.To.Rank] = m.Captured
	if !m.Captured.IsEmpty() {
		p.hash ^= zobristPieceKey(m.Captured, m.To)
	}
	p.board[m.From.File][m.From.Rank] = mover
	p.hash ^= zobristPieceKey(mover, m.From)

	// Invert step 4: toggle side to move.
	p.hash ^= sideToMoveKey()
	p.sideToMove = p.sideToMove.Opponent()

	// Invert step 5.
	p.lastMovePly--
	p.gamePly--
}
