// Package ui renders todos and command results for the terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/toumakido/my-claude/todod/internal/model"
)

const (
	boxUnchecked = "☐"
	boxChecked   = "☑"
	symCheck     = "✔"
	symCross     = "✖"
	symPending   = "•"
)

// Printer writes coloured output when its writer is a terminal.
type Printer struct {
	out, err io.Writer

	title, muted, accent, success, failure, pending *color.Color
}

// NewPrinter returns a printer for out and errw. mode is "auto", "always"
// or "never".
func NewPrinter(out, errw io.Writer, mode string) *Printer {
	p := &Printer{
		out:     out,
		err:     errw,
		title:   color.New(color.Bold),
		muted:   color.New(color.FgHiBlack),
		accent:  color.New(color.FgBlue),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		pending: color.New(color.FgYellow),
	}
	on := mode == "always" || (mode != "never" && isTerminal(out))
	for _, c := range []*color.Color{p.title, p.muted, p.accent, p.success, p.failure, p.pending} {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) OK(msg string) {
	fmt.Fprintln(p.out, p.success.Sprint(symCheck+" "+msg))
}

func (p *Printer) Fail(msg string) {
	fmt.Fprintln(p.err, p.failure.Sprint(symCross+" "+msg))
}

// Todo prints a single todo row.
func (p *Printer) Todo(t model.Todo) {
	fmt.Fprintln(p.out, p.row(t))
}

// Todos prints a header with counts, a progress bar and the rows, ordered
// by order then id. With group set, pending and done items are listed apart.
func (p *Printer) Todos(todos []model.Todo, group bool) {
	todos = append([]model.Todo(nil), todos...)
	sort.SliceStable(todos, func(i, j int) bool {
		oi, oj := todos[i].OrderOrDefault(), todos[j].OrderOrDefault()
		if oi != oj {
			return oi < oj
		}
		return todos[i].ID < todos[j].ID
	})

	var pend, done []model.Todo
	for _, t := range todos {
		if t.CompletedOrDefault() {
			done = append(done, t)
		} else {
			pend = append(pend, t)
		}
	}

	fmt.Fprintf(p.out, "%s  %s %d  %s %d  %s %d\n",
		p.title.Sprint("Todos"),
		p.success.Sprint(symCheck), len(done),
		p.pending.Sprint(symPending), len(pend),
		p.accent.Sprint("Total"), len(todos))
	fmt.Fprintln(p.out, p.muted.Sprint(ProgressBar(len(done), len(todos), 28)))
	fmt.Fprintln(p.out)

	if !group {
		p.rows(todos, "no items")
		return
	}
	fmt.Fprintln(p.out, p.accent.Sprint("Pending"))
	p.rows(pend, "(none)")
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.accent.Sprint("Done"))
	p.rows(done, "(none)")
}

func (p *Printer) rows(todos []model.Todo, empty string) {
	if len(todos) == 0 {
		fmt.Fprintln(p.out, p.muted.Sprint(empty))
		return
	}
	for _, t := range todos {
		fmt.Fprintln(p.out, p.row(t))
	}
}

func (p *Printer) row(t model.Todo) string {
	box, c := boxUnchecked, p.muted
	if t.CompletedOrDefault() {
		box, c = boxChecked, p.success
	}
	title := t.TitleOrEmpty()
	if len(title) > 80 {
		title = title[:77] + "..."
	}
	return fmt.Sprintf("%5d. %s %s", t.ID, c.Sprint(box), title)
}

// ProgressBar renders a bar of the given width followed by a percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %3d%%", bar, done*100/total)
}
