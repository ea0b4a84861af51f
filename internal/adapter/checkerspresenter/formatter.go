package checkerspresenter

import (
	"fmt"
	"strings"

	"github.com/park285/checkers-engine/internal/checkers"
	"github.com/park285/checkers-engine/internal/msgcat"
)

// Renderer is the subset of the message catalog the formatter needs.
type Renderer interface {
	RenderOr(key string, data any, fallback string) string
}

var _ Renderer = (*msgcat.Catalog)(nil)

// Formatter turns engine results into status-line text.
type Formatter struct {
	cat Renderer
}

func NewFormatter(cat Renderer) *Formatter {
	return &Formatter{cat: cat}
}

// lineData feeds every catalog template. Color is lower case for use inside a
// sentence, Side is capitalised for the start of one.
type lineData struct {
	Color  string
	Side   string
	Active string
	Next   string
	Winner string
	Loser  string
	Counts string
	Black  int
	Red    int
}

func (f *Formatter) NewGame() string {
	return f.render("game.new", lineData{}, "New game! Black starts first.")
}

func (f *Formatter) Reset() string {
	return f.render("game.reset", lineData{}, "New game! Black starts first.")
}

// Pick renders the status line after one pick. mover is the side that made
// the pick, which differs from res.Active once a turn passes.
func (f *Formatter) Pick(res checkers.PickResult, mover checkers.Color) string {
	if !res.Accepted {
		return f.Reject(res.Reason, mover)
	}
	if res.Phase == checkers.PhaseResolved {
		return f.Winner(res.Status)
	}
	d := f.data(res.Status, mover, res.Active)

	switch res.Outcome {
	case checkers.OutcomeSelected:
		return f.render("pick.selected", d, "A "+d.Color+" checker was picked.")
	case checkers.OutcomeMoved, checkers.OutcomeCaptured:
		var parts []string
		if res.Promoted {
			parts = append(parts, f.render("pick.promoted", d, "Crowned!"))
		}
		switch {
		case res.ChainContinues:
			parts = append(parts, f.render("pick.chain", d, d.Side+" must keep jumping."))
		case res.Outcome == checkers.OutcomeCaptured:
			parts = append(parts, f.render("pick.captured", d, d.Counts))
		default:
			parts = append(parts, f.render("pick.moved", d, d.Counts))
		}
		return strings.Join(parts, " ")
	}
	return d.Counts
}

// Reject renders the message for a rejection reason.
func (f *Formatter) Reject(reason checkers.Reason, active checkers.Color) string {
	d := lineData{Color: active.String(), Side: title(active), Active: active.String()}
	return f.render("reject."+reason.String(), d, "That pick is not allowed.")
}

// Winner renders the end-of-game line.
func (f *Formatter) Winner(st checkers.GameStatus) string {
	if !st.Over() {
		return ""
	}
	d := lineData{Winner: title(st.Winner), Loser: title(st.Winner.Opponent())}
	fallback := d.Winner + " won!"
	switch st.EndCause {
	case checkers.EndNoMoves:
		return f.render("game.won_no_moves", d, fallback)
	case checkers.EndNoPieces:
		return f.render("game.won_no_pieces", d, fallback)
	default:
		return f.render("game.won", d, fallback)
	}
}

// Status renders the idle status line for a snapshot.
func (f *Formatter) Status(snap checkers.Snapshot, st checkers.GameStatus) string {
	if snap.Phase == checkers.PhaseResolved {
		return f.Winner(st)
	}
	d := f.data(st, snap.Active, snap.Active)
	return f.render("status.turn", d, d.Counts)
}

func (f *Formatter) data(st checkers.GameStatus, mover, next checkers.Color) lineData {
	d := lineData{
		Color:  mover.String(),
		Side:   title(mover),
		Active: next.String(),
		Next:   title(next),
		Black:  st.BlackCount,
		Red:    st.RedCount,
	}
	d.Counts = f.render("status.counts", d, fmt.Sprintf("Black: %d, Red: %d", d.Black, d.Red))
	return d
}

func (f *Formatter) render(key string, d lineData, fallback string) string {
	if f == nil || f.cat == nil {
		return fallback
	}
	return f.cat.RenderOr(key, d, fallback)
}

func title(c checkers.Color) string {
	s := c.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
