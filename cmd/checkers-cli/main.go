package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/park285/checkers-engine/internal/adapter/checkerspresenter"
	"github.com/park285/checkers-engine/internal/tableclient"
)

// checkers-cli is a hot-seat terminal shell for checkers-server.
func main() {
	baseURL := strings.TrimSpace(os.Getenv("CHECKERS_URL"))
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	client := tableclient.NewClient(baseURL, tableclient.WithTimeout(8*time.Second))
	if err := run(context.Background(), client, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("checkers-cli: %v", err)
	}
}

type session struct {
	client  *tableclient.Client
	out     io.Writer
	tableID string
}

func run(ctx context.Context, client *tableclient.Client, in io.Reader, out io.Writer) error {
	s := &session{client: client, out: out}
	fmt.Fprintln(out, helpText())
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			break
		}
		quit, err := s.handle(ctx, sc.Text())
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if quit {
			break
		}
	}
	if s.tableID != "" {
		_ = client.Remove(ctx, s.tableID)
	}
	return sc.Err()
}

func (s *session) handle(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	// bare "row col" is a pick
	if _, err := strconv.Atoi(cmd); err == nil {
		cmd, args = "pick", parts
	}

	switch cmd {
	case "help", "?":
		fmt.Fprintln(s.out, helpText())
	case "quit", "exit", "q":
		return true, nil
	case "new":
		if s.tableID != "" {
			_ = s.client.Remove(ctx, s.tableID)
		}
		v, err := s.client.Create(ctx)
		if err != nil {
			return false, err
		}
		s.tableID = v.TableID
		s.print(v)
	case "reset":
		if err := s.needTable(); err != nil {
			return false, err
		}
		v, err := s.client.Reset(ctx, s.tableID)
		if err != nil {
			return false, err
		}
		s.print(v)
	case "show":
		if err := s.needTable(); err != nil {
			return false, err
		}
		v, err := s.client.Get(ctx, s.tableID)
		if err != nil {
			return false, err
		}
		s.print(v)
	case "pick":
		if err := s.needTable(); err != nil {
			return false, err
		}
		if len(args) != 2 {
			return false, fmt.Errorf("usage: pick <row> <col>")
		}
		row, err1 := strconv.Atoi(args[0])
		col, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			return false, fmt.Errorf("row and col must be numbers")
		}
		v, err := s.client.Pick(ctx, s.tableID, row, col)
		if err != nil {
			return false, err
		}
		s.print(v)
	case "results":
		limit := 0
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return false, fmt.Errorf("results limit must be a number")
			}
			limit = n
		}
		results, err := s.client.Results(ctx, limit)
		if err != nil {
			return false, err
		}
		if len(results) == 0 {
			fmt.Fprintln(s.out, "No finished games yet.")
		}
		for _, r := range results {
			fmt.Fprintf(s.out, "%s  %s won (%s) in %d moves, %s\n",
				r.EndedAt.Format(time.DateTime), r.Winner, r.EndCause, r.Moves, r.Duration().Round(time.Second))
		}
	case "tally":
		t, err := s.client.Tally(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "Games: %d, Black: %d, Red: %d\n", t.Games, t.Black, t.Red)
	default:
		fmt.Fprintln(s.out, "Unknown command. Try 'help'.")
	}
	return false, nil
}

func (s *session) needTable() error {
	if s.tableID == "" {
		return fmt.Errorf("no game yet, type 'new'")
	}
	return nil
}

func (s *session) print(v *checkerspresenter.View) {
	for _, line := range v.Board {
		fmt.Fprintln(s.out, line)
	}
	fmt.Fprintln(s.out, v.Text)
}

func helpText() string {
	return strings.Join([]string{
		"Checkers (hot seat)",
		"",
		"• new            start a game",
		"• <row> <col>    pick a square (same as: pick <row> <col>)",
		"• show | reset   redraw the board / start over",
		"• results [n]    recent finished games",
		"• tally          wins per side",
		"• quit",
	}, "\n")
}
