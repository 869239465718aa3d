package analysis

import (
	"strconv"
	"strings"
	"time"

	"github.com/hailam/chessplay/internal/board"
)

// Info is one "info" line of a running search.
type Info struct {
	Depth int
	// Score is in centipawns from the side to move's point of view. When
	// Mate is non-zero it holds the moves to mate instead (negative when
	// the side to move is getting mated).
	Score int
	Mate  int
	Nodes uint64
	Time  time.Duration
	PV    []string
}

// String formats the score the way GUIs usually do: "+0.35" or "#3".
func (i Info) String() string {
	var sb strings.Builder
	if i.Mate != 0 {
		sb.WriteString("#" + strconv.Itoa(i.Mate))
	} else {
		sign := "+"
		score := i.Score
		if score < 0 {
			sign = "-"
			score = -score
		}
		sb.WriteString(sign + strconv.Itoa(score/100) + "." + twoDigits(score%100))
	}
	sb.WriteString(" depth " + strconv.Itoa(i.Depth))
	if len(i.PV) > 0 {
		sb.WriteString(" pv " + strings.Join(i.PV, " "))
	}
	return sb.String()
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// ParseInfo parses an "info ..." line. Lines without a depth (for example
// "info string ...") are reported as not ok.
func ParseInfo(line string) (Info, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return Info{}, false
	}

	var info Info
	hasDepth := false
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "string":
			return Info{}, false
		case "depth":
			if i+1 < len(fields) {
				info.Depth, _ = strconv.Atoi(fields[i+1])
				hasDepth = true
				i++
			}
		case "score":
			if i+2 < len(fields) {
				n, _ := strconv.Atoi(fields[i+2])
				switch fields[i+1] {
				case "cp":
					info.Score = n
				case "mate":
					info.Mate = n
				}
				i += 2
			}
		case "nodes":
			if i+1 < len(fields) {
				info.Nodes, _ = strconv.ParseUint(fields[i+1], 10, 64)
				i++
			}
		case "time":
			if i+1 < len(fields) {
				ms, _ := strconv.Atoi(fields[i+1])
				info.Time = time.Duration(ms) * time.Millisecond
				i++
			}
		case "pv":
			// pv runs to the end of the line
			info.PV = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		}
	}
	return info, hasDepth
}

// ParseBestMove parses a "bestmove <move> [ponder <move>]" line. Engines
// answer "bestmove (none)" or "bestmove 0000" when there is no legal move;
// best is then board.NoMove.
func ParseBestMove(line string) (best board.Move, ponder string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return board.NoMove, "", false
	}
	if len(fields) >= 4 && fields[2] == "ponder" {
		ponder = fields[3]
	}

	switch fields[1] {
	case "(none)", "0000":
		return board.NoMove, ponder, true
	}

	m, err := board.ParseMove(fields[1])
	if err != nil {
		return board.NoMove, "", false
	}
	return m, ponder, true
}
