// Package uci implements the UCI protocol loop: reading commands from an
// input stream, driving a search.Engine, and writing "info"/"bestmove"
// responses. Grounded on the teacher's internal/uci/uci.go, trimmed of the
// options the design doesn't carry (book path/format, ponder, registration)
// and adapted to the search.Engine/chess.Position pairing.
package uci

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/op/go-logging"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kopperchess/corechess/internal/chess"
	"github.com/kopperchess/corechess/internal/config"
	"github.com/kopperchess/corechess/internal/corelog"
	"github.com/kopperchess/corechess/internal/movegen"
	"github.com/kopperchess/corechess/internal/search"
	"github.com/kopperchess/corechess/internal/tt"
)

const engineName = "corechess"
const engineAuthor = "the corechess contributors"

var regexWhiteSpace = regexp.MustCompile(`\s+`)

// out formats the node/nps counters in "info" lines with thousands
// separators for the debug log (the UCI wire lines themselves stay plain
// digits, since that's what the protocol expects).
var out = message.NewPrinter(language.English)

// Handler owns the engine, the current position, and the input/output
// streams, and translates between UCI text and search.Engine calls.
// InIo/OutIo can be swapped out (see Command) for testing without a real
// stdin/stdout pipe.
type Handler struct {
	InIo  *bufio.Scanner
	OutIo *bufio.Writer

	log *logging.Logger

	cfg    config.Config
	table  *tt.Table
	engine *search.Engine
	pos    *chess.Position
}

// NewHandler builds a Handler wired to a fresh engine and table sized per
// cfg, with stdin/stdout as its default streams.
func NewHandler(cfg config.Config) *Handler {
	h := &Handler{
		InIo:  bufio.NewScanner(os.Stdin),
		OutIo: bufio.NewWriter(os.Stdout),
		log:   corelog.Get("uci"),
		cfg:   cfg,
		table: tt.NewTable(cfg.Hash.SizeMB),
		pos:   chess.NewPosition(),
	}
	h.InIo.Buffer(make([]byte, 1024*1024), 1024*1024)
	h.engine = search.NewEngine(cfg.Search, h.table, h)
	return h
}

// Loop reads and handles commands from InIo until "quit" or EOF.
func (h *Handler) Loop() {
	for h.InIo.Scan() {
		if h.handle(h.InIo.Text()) {
			return
		}
	}
}

// Command runs a single UCI command line against the handler, capturing
// everything written to OutIo during its execution and returning it. Used
// by tests and by any embedder that wants request/response semantics
// instead of the streaming Loop.
func (h *Handler) Command(cmd string) string {
	saved := h.OutIo
	buf := new(bytes.Buffer)
	h.OutIo = bufio.NewWriter(buf)
	h.handle(cmd)
	_ = h.OutIo.Flush()
	h.OutIo = saved
	return buf.String()
}

func (h *Handler) handle(line string) (quit bool) {
	if len(strings.TrimSpace(line)) == 0 {
		return false
	}
	h.log.Debugf("<< %s", line)
	tokens := regexWhiteSpace.Split(strings.TrimSpace(line), -1)
	switch tokens[0] {
	case "quit":
		h.engine.StopSearch()
		return true
	case "uci":
		h.cmdUCI()
	case "isready":
		h.send("readyok")
	case "ucinewgame":
		h.pos = chess.NewPosition()
		h.engine.NewGame()
	case "setoption":
		h.cmdSetOption(tokens)
	case "position":
		h.cmdPosition(tokens)
	case "go":
		h.cmdGo(tokens)
	case "stop":
		h.engine.StopSearch()
	case "ponderhit":
		// Ponder is not offered by this engine (no option advertises it),
		// so a ponderhit should never arrive; ignore defensively.
	case "debug", "register":
		h.SendInfoString(fmt.Sprintf("command %q not implemented", tokens[0]))
	default:
		h.log.Warningf("unknown command: %s", line)
	}
	return false
}

func (h *Handler) cmdUCI() {
	h.send(fmt.Sprintf("id name %s", engineName))
	h.send(fmt.Sprintf("id author %s", engineAuthor))
	h.send(fmt.Sprintf("option name Hash type spin default %d min 10 max 16000", h.cfg.Hash.SizeMB))
	h.send(fmt.Sprintf("option name Threads type spin default %d min 1 max 512", h.cfg.Search.Threads))
	h.send(fmt.Sprintf("option name SearchLogLevel type spin default %d min 0 max 5", h.cfg.Search.LogLevel))
	h.send("uciok")
}

func (h *Handler) cmdSetOption(tokens []string) {
	if len(tokens) < 5 || tokens[1] != "name" || tokens[3] != "value" {
		h.SendInfoString("malformed setoption command")
		return
	}
	name := tokens[2]
	value := tokens[4]
	switch name {
	case "Hash":
		mb, err := strconv.Atoi(value)
		if err != nil {
			h.SendInfoString(fmt.Sprintf("invalid Hash value %q", value))
			return
		}
		h.engine.ResizeCache(mb)
	case "Threads":
		// Accepted for UCI-client compatibility; the search core is
		// single-threaded per root (SPEC_FULL.md §5), so this is recorded
		// but never read back by the search.
		n, err := strconv.Atoi(value)
		if err != nil {
			h.SendInfoString(fmt.Sprintf("invalid Threads value %q", value))
			return
		}
		h.cfg.Search.Threads = n
	case "SearchLogLevel":
		lvl, err := strconv.Atoi(value)
		if err != nil {
			h.SendInfoString(fmt.Sprintf("invalid SearchLogLevel value %q", value))
			return
		}
		h.cfg.Search.LogLevel = lvl
		corelog.SetModuleLevel("search", logging.Level(lvl))
	default:
		h.SendInfoString(fmt.Sprintf("unknown option %q", name))
	}
}

func (h *Handler) cmdPosition(tokens []string) {
	if len(tokens) < 2 {
		h.SendInfoString("malformed position command")
		return
	}
	i := 1
	var p *chess.Position
	switch tokens[i] {
	case "startpos":
		p = chess.NewPosition()
		i++
	case "fen":
		i++
		var fen strings.Builder
		for i < len(tokens) && tokens[i] != "moves" {
			fen.WriteString(tokens[i])
			fen.WriteByte(' ')
			i++
		}
		parsed, err := chess.NewPositionFromFEN(strings.TrimSpace(fen.String()))
		if err != nil {
			h.SendInfoString(fmt.Sprintf("malformed fen: %s", err))
			return
		}
		p = parsed
	default:
		h.SendInfoString("position command must start with startpos or fen")
		return
	}

	if i < len(tokens) && tokens[i] == "moves" {
		i++
		for ; i < len(tokens); i++ {
			m, ok := findMoveByUCI(p, tokens[i])
			if !ok {
				h.SendInfoString(fmt.Sprintf("illegal move in position command: %s", tokens[i]))
				return
			}
			p.Apply(m)
		}
	}
	h.pos = p
}

func (h *Handler) cmdGo(tokens []string) {
	limits, ok := parseLimits(tokens[1:])
	if !ok {
		h.SendInfoString("malformed go command")
		return
	}
	h.engine.StartSearch(h.pos.Clone(), limits, uint32(h.pos.GamePly()))
}

// findMoveByUCI resolves a long-algebraic move string against the legal
// moves available in pos, applying and unapplying each pseudo-legal
// candidate to test king safety. Returns false if no legal move matches.
func findMoveByUCI(pos *chess.Position, uciStr string) (chess.Move, bool) {
	mover := pos.SideToMove()
	for _, capturesOnly := range [2]bool{false, true} {
		for _, m := range movegen.Generate(pos, capturesOnly) {
			if m.UCI() != uciStr {
				continue
			}
			pos.Apply(m)
			illegal := movegen.IsSquareAttacked(pos, pos.KingSquare(mover), mover.Opponent())
			pos.Unapply(m)
			if !illegal {
				return m, true
			}
		}
		if capturesOnly {
			break
		}
	}
	return chess.NoMove, false
}

func parseLimits(tokens []string) (search.Limits, bool) {
	var l search.Limits
	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case "infinite":
			l.Infinite = true
		case "depth":
			i++
			if i >= len(tokens) {
				return l, false
			}
			v, err := strconv.Atoi(tokens[i])
			if err != nil {
				return l, false
			}
			l.Depth = v
		case "movetime":
			i++
			if i >= len(tokens) {
				return l, false
			}
			ms, err := strconv.Atoi(tokens[i])
			if err != nil {
				return l, false
			}
			l.MoveTime = time.Duration(ms) * time.Millisecond
		case "wtime":
			i++
			if v, err := durationArg(tokens, i); err == nil {
				l.WTime = v
			} else {
				return l, false
			}
		case "btime":
			i++
			if v, err := durationArg(tokens, i); err == nil {
				l.BTime = v
			} else {
				return l, false
			}
		case "winc":
			i++
			if v, err := durationArg(tokens, i); err == nil {
				l.WInc = v
			} else {
				return l, false
			}
		case "binc":
			i++
			if v, err := durationArg(tokens, i); err == nil {
				l.BInc = v
			} else {
				return l, false
			}
		case "movestogo":
			i++
			if i >= len(tokens) {
				return l, false
			}
			v, err := strconv.Atoi(tokens[i])
			if err != nil {
				return l, false
			}
			l.MovesToGo = v
		case "ponder", "nodes", "mate", "searchmoves":
			// Accepted syntactically (consume one following value for the
			// numeric ones) but not acted on: ponder mode and node/mate
			// limits are outside the design's scope, see SPEC_FULL.md
			// Non-goals.
			if tokens[i] == "nodes" || tokens[i] == "mate" {
				i++
			}
		default:
			return l, false
		}
	}
	return l, true
}

func durationArg(tokens []string, i int) (time.Duration, error) {
	if i >= len(tokens) {
		return 0, fmt.Errorf("missing argument")
	}
	ms, err := strconv.Atoi(tokens[i])
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// SendInfo implements search.Reporter.
func (h *Handler) SendInfo(info search.Info) {
	var b strings.Builder
	fmt.Fprintf(&b, "info depth %d", info.Depth)
	if info.Mate != 0 {
		fmt.Fprintf(&b, " score mate %d", info.Mate)
	} else {
		fmt.Fprintf(&b, " score cp %d", info.Score)
	}
	fmt.Fprintf(&b, " nodes %d nps %d time %d hashfull %d",
		info.Nodes, info.NPS, info.Time.Milliseconds(), info.Hashfull)
	if len(info.PV) > 0 {
		b.WriteString(" pv")
		for _, m := range info.PV {
			b.WriteByte(' ')
			b.WriteString(m.UCI())
		}
	}
	h.log.Debug(out.Sprintf("depth %d nodes %d nps %d", info.Depth, info.Nodes, info.NPS))
	h.send(b.String())
}

// SendBestMove implements search.Reporter.
func (h *Handler) SendBestMove(best, ponder chess.Move) {
	s := "bestmove " + best.UCI()
	if !ponder.IsNone() {
		s += " ponder " + ponder.UCI()
	}
	h.send(s)
}

// SendInfoString implements search.Reporter.
func (h *Handler) SendInfoString(msg string) {
	h.send("info string " + msg)
}

func (h *Handler) send(s string) {
	h.log.Debugf(">> %s", s)
	_, _ = h.OutIo.WriteString(s + "\n")
	_ = h.OutIo.Flush()
}
