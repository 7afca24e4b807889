package puzzlepresenter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/park285/Cheese-MoveGuess-bot/internal/msgcat"
	"github.com/park285/Cheese-MoveGuess-bot/internal/util"
	"github.com/park285/Cheese-MoveGuess-bot/pkg/puzzledto"
)

const (
	historyHeaderFallback = "♜ Recent puzzles"
	helpHeader            = "♞ Guess the Move"
)

// PrefixProvider exposes the command prefix that chat messages should use.
type PrefixProvider interface {
	Prefix() string
}

// Formatter renders puzzle DTOs into KakaoTalk text blocks using the message catalog.
type Formatter struct {
	prefixProvider PrefixProvider
	catalog        *msgcat.Catalog
	now            func() time.Time
}

func NewFormatter(provider PrefixProvider, catalog *msgcat.Catalog) *Formatter {
	return &Formatter{prefixProvider: provider, catalog: catalog, now: time.Now}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

func (f *Formatter) render(key string, data map[string]any, fallback string) string {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Prefix"]; !ok {
		data["Prefix"] = f.Prefix()
	}
	return strings.TrimSpace(f.catalog.RenderOr(key, data, fallback))
}

func (f *Formatter) Start(state *puzzledto.SessionState, resumed bool) string {
	if state == nil {
		return f.render("errors.generation", nil, "Couldn't build a puzzle right now.")
	}
	var lines []string
	if resumed {
		lines = append(lines, f.render("puzzle.resume", map[string]any{
			"GuessesLeft": state.GuessesLeft,
			"MaxGuesses":  state.MaxGuesses,
		}, "You already have a puzzle running."))
		if tl := f.timeoutLine(state.TimedOut); tl != "" {
			lines = append(lines, tl)
		}
		if state.Finished {
			lines = append(lines, f.finishedBlock(state))
		}
	} else {
		lines = append(lines, f.render("puzzle.start", map[string]any{
			"Pieces":     state.Pieces,
			"MaxGuesses": state.MaxGuesses,
		}, "New puzzle started."))
	}
	if dl := f.deadlineLine(state); dl != "" {
		lines = append(lines, dl)
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Status(state *puzzledto.SessionState) string {
	if state == nil {
		return f.Help()
	}
	var lines []string
	if tl := f.timeoutLine(state.TimedOut); tl != "" {
		lines = append(lines, tl)
	}
	if state.Finished {
		lines = append(lines, f.finishedBlock(state))
		return strings.Join(lines, "\n")
	}
	lines = append(lines, f.render("puzzle.status", map[string]any{
		"GuessesLeft": state.GuessesLeft,
		"MaxGuesses":  state.MaxGuesses,
	}, fmt.Sprintf("Guesses left: %d/%d", state.GuessesLeft, state.MaxGuesses)))
	for i, g := range state.Guesses {
		lines = append(lines, f.guessLine(i+1, g))
	}
	if dl := f.deadlineLine(state); dl != "" {
		lines = append(lines, dl)
	}
	return strings.Join(lines, "\n")
}

// Guess renders feedback for one guess and, when the puzzle ended, the reveal.
func (f *Formatter) Guess(summary *puzzledto.GuessSummary) string {
	if summary == nil || summary.State == nil {
		return ""
	}
	state := summary.State
	var lines []string
	if tl := f.timeoutLine(state.TimedOut); tl != "" {
		lines = append(lines, tl)
	}

	switch {
	case summary.Invalid:
		lines = append(lines, f.invalidLine(summary), f.render("invalid.footer", nil, "This guess didn't count."))
	case summary.Headline != "":
		lines = append(lines, f.headline(summary.Headline))
		if summary.Headline != "solved" {
			lines = append(lines, f.destinationClause(summary.DestinationHit))
		}
	}

	if state.Finished {
		lines = append(lines, "", f.finishedBlock(state))
		return strings.Join(lines, "\n")
	}
	lines = append(lines, f.render("puzzle.guesses_left", map[string]any{"GuessesLeft": state.GuessesLeft}, fmt.Sprintf("%d guess(es) left.", state.GuessesLeft)))
	return strings.Join(lines, "\n")
}

func (f *Formatter) GiveUp(state *puzzledto.SessionState) string {
	if state == nil {
		return f.render("puzzle.abandoned", nil, "Puzzle abandoned.")
	}
	var lines []string
	if tl := f.timeoutLine(state.TimedOut); tl != "" {
		lines = append(lines, tl)
	}
	lines = append(lines, f.finishedBlock(state))
	return strings.Join(lines, "\n")
}

func (f *Formatter) History(games []*puzzledto.PuzzleGame) string {
	header := f.render("history.header", nil, historyHeaderFallback)
	if len(games) == 0 {
		return header + "\n" + f.render("history.empty", nil, "No finished puzzles yet.")
	}
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteByte('\n')
	for _, g := range games {
		sb.WriteString(f.render("history.line", map[string]any{
			"ID":      g.ID,
			"Badge":   outcomeBadge(g.Outcome),
			"Date":    formatShortTime(g.EndedAt),
			"Guesses": g.GuessCount,
			"Answer":  formatMove(g.Target),
		}, fmt.Sprintf("• #%d %s", g.ID, g.Outcome)))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	sb.WriteString(f.render("history.footer", nil, ""))
	return util.FoldUnderHeader(sb.String(), header, historyHeaderFallback)
}

func (f *Formatter) Record(game *puzzledto.PuzzleGame) string {
	if game == nil {
		return f.render("errors.not_found", nil, "Record not found.")
	}
	lines := []string{
		f.render("record.header", map[string]any{"ID": game.ID, "Outcome": game.Outcome}, fmt.Sprintf("Puzzle #%d", game.ID)),
		f.render("record.position", map[string]any{"FEN": game.FEN}, game.FEN),
	}
	for i, g := range game.Guesses {
		lines = append(lines, f.guessLine(i+1, g))
	}
	lines = append(lines, f.reveal(game.Target))
	if d := formatDuration(game.Duration); d != "" {
		lines = append(lines, "⏱ "+d)
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Profile(p *puzzledto.PuzzleProfile) string {
	if p == nil {
		return f.render("errors.no_profile", nil, "No puzzle statistics yet.")
	}
	return f.render("profile.summary", map[string]any{
		"Played":         p.Played,
		"Solved":         p.Solved,
		"Abandoned":      p.Abandoned,
		"SolveRate":      fmt.Sprintf("%.0f", math.Round(p.SolveRate*100)),
		"AverageGuesses": fmt.Sprintf("%.1f", p.AverageGuesses),
		"Streak":         p.Streak,
		"BestStreak":     p.BestStreak,
	}, fmt.Sprintf("Played %d, solved %d", p.Played, p.Solved))
}

func (f *Formatter) Help() string {
	body := f.render("help.body", nil, helpHeader)
	return util.FoldUnderHeader(body, helpHeader, helpHeader)
}

func (f *Formatter) Error(err *puzzledto.DomainError) string {
	if err == nil {
		return ""
	}
	switch err.Code {
	case puzzledto.CodeNoSession:
		return f.render("errors.no_session", nil, "No puzzle in progress.")
	case puzzledto.CodeRoomNotAllowed:
		return f.render("errors.room_not_allowed", nil, "Puzzles are not enabled in this room.")
	case puzzledto.CodeGeneration:
		return f.render("errors.generation", nil, "Couldn't build a puzzle right now.")
	case puzzledto.CodeNotFound:
		return f.render("errors.not_found", nil, "Record not found.")
	case puzzledto.CodeNoProfile:
		return f.render("errors.no_profile", nil, "No puzzle statistics yet.")
	default:
		return f.render("errors.generic", map[string]any{"Error": err.Error()}, err.Error())
	}
}

func (f *Formatter) finishedBlock(state *puzzledto.SessionState) string {
	var lines []string
	switch state.Outcome {
	case "solved":
		lines = append(lines, f.render("puzzle.solved", map[string]any{"Guesses": len(state.Guesses)}, "Solved!"))
	case "exhausted":
		lines = append(lines, f.render("puzzle.exhausted", nil, "Out of guesses."))
	default:
		lines = append(lines, f.render("puzzle.abandoned", nil, "Puzzle abandoned."))
	}
	if state.Target != nil {
		lines = append(lines, f.reveal(*state.Target))
	}
	if state.Profile != nil {
		lines = append(lines, f.Profile(state.Profile))
	}
	if state.GameID > 0 {
		lines = append(lines, f.render("puzzle.record_id", map[string]any{"ID": state.GameID}, fmt.Sprintf("Record ID: #%d", state.GameID)))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) reveal(m puzzledto.Move) string {
	return f.render("puzzle.reveal", map[string]any{
		"Color": m.Color,
		"Kind":  m.Kind,
		"From":  m.From,
		"To":    m.To,
	}, "The move was "+formatMove(m))
}

func (f *Formatter) headline(cause string) string {
	return f.render("feedback.headline."+cause, nil, cause)
}

func (f *Formatter) destinationClause(hit bool) string {
	if hit {
		return f.render("feedback.destination.hit", nil, "The destination square is correct.")
	}
	return f.render("feedback.destination.miss", nil, "The destination square is wrong.")
}

func (f *Formatter) invalidLine(summary *puzzledto.GuessSummary) string {
	data := map[string]any{"From": "", "To": "", "Kind": "", "Color": ""}
	if g := summary.Guess; g != nil {
		data["From"], data["To"], data["Kind"], data["Color"] = g.From, g.To, g.Kind, g.Color
	}
	code := summary.InvalidCode
	if code == "" {
		code = "malformed"
	}
	if summary.Guess == nil && (code == "piece_mismatch" || code == "illegal") {
		code = "malformed"
	}
	return f.render("invalid."+code, data, "That guess isn't valid.")
}

func (f *Formatter) timeoutLine(n int) string {
	if n <= 0 {
		return ""
	}
	return f.render("puzzle.timeout", map[string]any{"Count": n}, fmt.Sprintf("Time ran out on %d turn(s).", n))
}

func (f *Formatter) deadlineLine(state *puzzledto.SessionState) string {
	if state.Finished || state.TurnDeadline.IsZero() {
		return ""
	}
	left := state.TurnDeadline.Sub(f.now())
	if left < 0 {
		left = 0
	}
	return f.render("puzzle.deadline", map[string]any{"Seconds": int(left.Round(time.Second) / time.Second)}, "")
}

func (f *Formatter) guessLine(i int, g puzzledto.GuessRecord) string {
	text := g.Text
	if g.TimedOut {
		text = "-"
	}
	return f.render("record.guess", map[string]any{
		"Index":    i,
		"Text":     text,
		"Headline": f.headline(g.Headline),
	}, fmt.Sprintf("%d. %s %s", i, text, g.Headline))
}

func outcomeBadge(outcome string) string {
	switch outcome {
	case "solved":
		return "✅"
	case "exhausted":
		return "❌"
	case "abandoned":
		return "🏳️"
	default:
		return "▫️"
	}
}

func formatMove(m puzzledto.Move) string {
	if m.From == "" {
		return ""
	}
	return fmt.Sprintf("%s %s %s→%s", m.Color, m.Kind, m.From, m.To)
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return util.FormatKST(t, "2006-01-02 15:04")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
