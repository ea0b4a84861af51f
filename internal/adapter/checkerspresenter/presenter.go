package checkerspresenter

import (
	"strconv"
	"strings"

	"github.com/park285/checkers-engine/internal/checkers"
)

// View is what a shell needs to redraw after a pick or a refresh.
type View struct {
	TableID  string               `json:"table_id"`
	GameID   string               `json:"game_id,omitempty"`
	Text     string               `json:"text"`
	Board    []string             `json:"board"`
	Snapshot checkers.Snapshot    `json:"snapshot"`
	Status   checkers.GameStatus  `json:"status"`
	Hints    *checkers.Hints      `json:"hints,omitempty"`
	Pick     *checkers.PickResult `json:"pick,omitempty"`
}

// Presenter assembles views without coupling the transport to the formatter.
type Presenter struct {
	formatter *Formatter
	withHints bool
}

func NewPresenter(formatter *Formatter, withHints bool) *Presenter {
	return &Presenter{formatter: formatter, withHints: withHints}
}

func (p *Presenter) Formatter() *Formatter {
	if p == nil {
		return nil
	}
	return p.formatter
}

// Current builds a view of a table at rest.
func (p *Presenter) Current(tableID string, snap checkers.Snapshot, st checkers.GameStatus, hints checkers.Hints) View {
	v := View{
		TableID:  tableID,
		Text:     p.formatter.Status(snap, st),
		Board:    BoardLines(snap),
		Snapshot: snap,
		Status:   st,
	}
	if p.withHints {
		v.Hints = &hints
	}
	return v
}

// Fresh builds the view right after a new game or reset.
func (p *Presenter) Fresh(tableID string, snap checkers.Snapshot, st checkers.GameStatus, hints checkers.Hints, reset bool) View {
	v := p.Current(tableID, snap, st, hints)
	if reset {
		v.Text = p.formatter.Reset()
	} else {
		v.Text = p.formatter.NewGame()
	}
	return v
}

// AfterPick builds the view for a pick made by mover.
func (p *Presenter) AfterPick(tableID string, res checkers.PickResult, mover checkers.Color, snap checkers.Snapshot, hints checkers.Hints) View {
	v := p.Current(tableID, snap, res.Status, hints)
	v.Text = p.formatter.Pick(res, mover)
	v.Pick = &res
	return v
}

// BoardLines renders the grid with row and column labels, row 0 first.
// A selected square is bracketed.
func BoardLines(snap checkers.Snapshot) []string {
	lines := make([]string, 0, checkers.Size+1)
	var hdr strings.Builder
	hdr.WriteString("  ")
	for c := 0; c < checkers.Size; c++ {
		hdr.WriteString(" ")
		hdr.WriteString(strconv.Itoa(c))
		hdr.WriteString(" ")
	}
	lines = append(lines, strings.TrimRight(hdr.String(), " "))
	for r := 0; r < checkers.Size; r++ {
		var sb strings.Builder
		sb.WriteString(strconv.Itoa(r))
		sb.WriteString(" ")
		for c := 0; c < checkers.Size; c++ {
			sym := string(snap.Cells[r][c].Symbol())
			if snap.Selected != nil && snap.Selected.Row == r && snap.Selected.Col == c {
				sb.WriteString("[" + sym + "]")
			} else {
				sb.WriteString(" " + sym + " ")
			}
		}
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}
	return lines
}
