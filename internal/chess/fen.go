package chess

import (
	"fmt"
	"strconv"
	"strings"
)

var fenPieceKinds = map[byte]PieceKind{
	'p': Pawn, 'n': Knight, 'b': Bishop, 'r': Rook, 'q': Queen, 'k': King,
}

// NewPositionFromFEN parses a standard six-field FEN string and returns the
// position it describes, with the Zobrist hash computed from scratch. The
// en-passant-target and halfmove-clock fields are parsed (so malformed FEN
// in those fields is still rejected) but, per the design's non-goals, are
// not retained: en passant is never generated and the fifty-move counter is
// not tracked.
func NewPositionFromFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("chess: FEN needs at least 4 fields, got %d", len(fields))
	}

	p := &Position{}
	for i := range p.lostOnPly {
		p.lostOnPly[i] = -1
	}

	if err := p.parsePlacement(fields[0]); err != nil {
		return nil, err
	}

	switch fields[1] {
	case "w":
		p.sideToMove = White
	case "b":
		p.sideToMove = Black
	default:
		return nil, fmt.Errorf("chess: FEN bad side to move %q", fields[1])
	}

	if err := p.parseCastling(fields[2]); err != nil {
		return nil, err
	}

	// Field 3 (en-passant target square) is read for validation only; see
	// doc comment above.
	if fields[3] != "-" {
		if _, err := ParseCoord(fields[3]); err != nil {
			return nil, fmt.Errorf("chess: FEN bad en-passant target: %w", err)
		}
	}

	if len(fields) >= 5 {
		if _, err := strconv.Atoi(fields[4]); err != nil {
			return nil, fmt.Errorf("chess: FEN bad halfmove clock: %w", err)
		}
	}
	if len(fields) >= 6 {
		fullmoves, err := strconv.Atoi(fields[5])
		if err != nil {
			return nil, fmt.Errorf("chess: FEN bad fullmove number: %w", err)
		}
		p.gamePly = 2 * (fullmoves - 1)
		if p.sideToMove == Black {
			p.gamePly++
		}
	}

	p.hash = p.rehash()
	p.AssertInvariants()
	return p, nil
}

func (p *Position) parsePlacement(field string) error {
	ranks := strings.Split(field, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("chess: FEN placement needs 8 ranks, got %d", len(ranks))
	}
	haveKing := [2]bool{}
	for i, rankStr := range ranks {
		rank := int8(7 - i)
		file := int8(0)
		for j := 0; j < len(rankStr); j++ {
			c := rankStr[j]
			if c >= '1' && c <= '8' {
				file += int8(c - '0')
				continue
			}
			kind, ok := fenPieceKinds[byte(lower(c))]
			if !ok {
				return fmt.Errorf("chess: FEN bad piece letter %q", string(c))
			}
			if file >= 8 {
				return fmt.Errorf("chess: FEN rank %d overflows 8 files", 8-i)
			}
			color := White
			if c >= 'a' && c <= 'z' {
				color = Black
			}
			sq := Coord{File: file, Rank: rank}
			piece := NewPiece(kind, color)
			p.board[file][rank] = piece
			if kind == King {
				p.kingSq[colorIdx(color)] = sq
				haveKing[colorIdx(color)] = true
			}
			file++
		}
		if file != 8 {
			return fmt.Errorf("chess: FEN rank %d has %d files, want 8", 8-i, file)
		}
	}
	if !haveKing[0] || !haveKing[1] {
		return fmt.Errorf("chess: FEN position is missing a king")
	}
	return nil
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func (p *Position) parseCastling(field string) error {
	if field == "-" {
		return nil
	}
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case 'K':
			p.rights[WhiteKingside] = true
		case 'Q':
			p.rights[WhiteQueenside] = true
		case 'k':
			p.rights[BlackKingside] = true
		case 'q':
			p.rights[BlackQueenside] = true
		default:
			return fmt.Errorf("chess: FEN bad castling field %q", field)
		}
	}
	return nil
}

// FEN renders the position back into the placement/side/castling/en-passant
// fields of a standard FEN string (halfmove clock and fullmove number are
// emitted as fixed placeholders since the design does not track them).
func (p *Position) FEN() string {
	var sb strings.Builder
	for r := int8(7); r >= 0; r-- {
		empty := 0
		for f := int8(0); f < 8; f++ {
			pc := p.PieceAt(Coord{File: f, Rank: r})
			if pc.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if r > 0 {
			sb.WriteByte('/')
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(p.sideToMove.String())
	sb.WriteByte(' ')
	rights := ""
	if p.rights[WhiteKingside] {
		rights += "K"
	}
	if p.rights[WhiteQueenside] {
		rights += "Q"
	}
	if p.rights[BlackKingside] {
		rights += "k"
	}
	if p.rights[BlackQueenside] {
		rights += "q"
	}
	if rights == "" {
		rights = "-"
	}
	sb.WriteString(rights)
	sb.WriteString(" - 0 1")
	return sb.String()
}
