// Package retrodfrg provides a generic terminal UI for displaying progress and status information.
// It is designed to be completely agnostic of the underlying task being performed.
package retrodfrg

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// ErrInterrupted is returned when the user requests to stop the operation.
var ErrInterrupted = errors.New("interrupted")

// UI provides a terminal-based user interface for displaying customizable information.
// It supports title, summary lines, legend, a glyph map, phases, and status lines.
//
// UI is not safe for concurrent use, except for RequestStop, IsStopped
// and Stopped.
type UI struct {
	s               tcell.Screen
	restoreTerminal bool
	stopChan        chan struct{}
	once            sync.Once

	// Customizable display
	title        string
	phases       []string
	phaseDoneMap map[string]bool
	summaryLines []string
	legendLines  []string
	statusLines  []string
	hint         string

	// Visual progress map (provided by caller, UI just renders it)
	progressMapLines []string
	glyphStyles      map[rune]tcell.Style
}

// NewUI creates and initializes a new UI instance on the terminal.
// It sets up the terminal screen and starts the event loop for handling user input.
func NewUI() (*UI, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	u, err := NewUIWithScreen(s)
	if err != nil {
		return nil, err
	}
	u.restoreTerminal = true
	return u, nil
}

// NewUIWithScreen creates a UI drawing on an existing screen, such as
// a tcell.SimulationScreen.
func NewUIWithScreen(s tcell.Screen) (*UI, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.DisableMouse()
	u := &UI{
		s:            s,
		stopChan:     make(chan struct{}),
		phaseDoneMap: make(map[string]bool),
		glyphStyles:  make(map[rune]tcell.Style),
	}
	u.eventLoop()
	return u, nil
}

// Close closes the UI and restores the terminal to its original state.
// This also terminates the event loop. Calling Close more than once is
// a no-op.
func (u *UI) Close() {
	if u.s == nil {
		return
	}
	u.s.Fini()
	u.s = nil
	if u.restoreTerminal {
		fmt.Print("\033[?1049l\033[?25h")
	}
}

// RequestStop signals that the user has requested to stop the current operation.
// It can be called multiple times safely.
func (u *UI) RequestStop() {
	u.once.Do(func() {
		close(u.stopChan)
	})
}

// IsStopped returns true if the user has requested to stop the operation.
func (u *UI) IsStopped() bool {
	select {
	case <-u.stopChan:
		return true
	default:
		return false
	}
}

// Stopped returns a channel that is closed once a stop has been
// requested.
func (u *UI) Stopped() <-chan struct{} {
	return u.stopChan
}

// Size returns the current screen width and height.
func (u *UI) Size() (width, height int) {
	if u.s == nil {
		return 0, 0
	}
	return u.s.Size()
}

func (u *UI) putStr(x, y int, str string) {
	w, _ := u.s.Size()
	for i, r := range []rune(str) {
		pos := x + i
		if pos >= w {
			break // Don't write beyond screen width
		}
		style, ok := u.glyphStyles[r]
		if !ok {
			style = tcell.StyleDefault
		}
		u.s.SetContent(pos, y, r, nil, style)
	}
}

// MapRows returns the number of rows available for the progress map,
// given the current screen size and the other content of the UI.
func (u *UI) MapRows() int {
	_, h := u.Size()
	rows := h - u.headerRows() - u.footerRows()
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (u *UI) headerRows() int {
	rows := len(u.summaryLines) + len(u.legendLines)
	if u.title != "" {
		rows++
	}
	return rows
}

func (u *UI) footerRows() int {
	rows := 0
	if len(u.phases) > 0 {
		rows += 2
	}
	if len(u.statusLines) > 0 {
		rows += 1 + len(u.statusLines)
	}
	return rows
}

// LayoutAndDraw redraws the entire UI with the current state.
// It should be called whenever the displayed information needs to be updated.
func (u *UI) LayoutAndDraw() {
	if u.s == nil {
		return
	}
	u.s.Clear()
	w, h := u.s.Size()

	currentY := 0

	// Title
	if u.title != "" {
		u.putStr(0, currentY, strings.Repeat("═", w))
		centerX := (w - len([]rune(u.title))) / 2
		if centerX < 0 {
			centerX = 0
		}
		u.putStr(centerX, currentY, u.title)
		currentY++
	}

	for _, lines := range [][]string{u.summaryLines, u.legendLines} {
		for _, line := range lines {
			if currentY >= h {
				break
			}
			u.putStr(0, currentY, line)
			currentY++
		}
	}

	// Progress map visualization (if provided)
	if len(u.progressMapLines) > 0 {
		rowsToShow := min(u.MapRows(), len(u.progressMapLines))
		for i := 0; i < rowsToShow && currentY < h; i++ {
			u.putStr(0, currentY, u.progressMapLines[i])
			currentY++
		}
	}

	// Phase line
	if len(u.phases) > 0 && currentY < h {
		u.putStr(0, currentY, strings.Repeat("─", w))
		u.putStr(2, currentY, " Phase ")
		currentY++
		b := strings.Builder{}
		for i, p := range u.phases {
			if i > 0 {
				b.WriteByte(' ')
			}
			check := ' '
			if u.phaseDoneMap[strings.ToLower(p)] {
				check = '✓'
			}
			fmt.Fprintf(&b, "[%c]%s", check, p)
		}
		u.putStr(0, currentY, b.String())
		currentY++
	}

	// Status block
	if len(u.statusLines) > 0 && currentY < h {
		u.putStr(0, currentY, strings.Repeat("─", w))
		header := " Status "
		if u.hint != "" {
			header += "(" + u.hint + ") "
		}
		u.putStr(2, currentY, header)
		currentY++
		for _, line := range u.statusLines {
			if currentY >= h {
				break
			}
			u.putStr(0, currentY, line)
			currentY++
		}
	}

	u.s.Show()
}

// SetPhaseDone marks the specified phase as completed.
// The phase name is case-insensitive.
func (u *UI) SetPhaseDone(p string) {
	u.phaseDoneMap[strings.ToLower(p)] = true
}

// SetPhases sets the list of phases to display.
// Phases will be shown with checkmarks as they are marked done via SetPhaseDone.
func (u *UI) SetPhases(labels []string) {
	u.phases = append([]string(nil), labels...)
}

// SetTitle sets the title displayed at the top of the UI.
func (u *UI) SetTitle(t string) {
	u.title = t
}

// SetHint sets a short text shown in the status header, such as the
// keys that stop the operation.
func (u *UI) SetHint(h string) {
	u.hint = h
}

// SetSummaryLines sets the summary/info lines displayed below the title.
func (u *UI) SetSummaryLines(lines []string) {
	u.summaryLines = append([]string(nil), lines...)
}

// SetLegend sets the legend lines displayed below the summary.
func (u *UI) SetLegend(lines []string) {
	u.legendLines = append([]string(nil), lines...)
}

// SetStatusLines sets the status lines displayed at the bottom of the UI.
func (u *UI) SetStatusLines(lines []string) {
	u.statusLines = append([]string(nil), lines...)
}

// SetProgressMap sets the visual progress map lines to display.
// Each string represents a row of the progress visualization.
// The UI simply renders what is provided - it does not track progress.
func (u *UI) SetProgressMap(lines []string) {
	u.progressMapLines = append([]string(nil), lines...)
}

// SetGlyphStyle sets the style in which a rune is drawn anywhere on
// the screen, e.g. to color the glyphs of failed blocks.
func (u *UI) SetGlyphStyle(r rune, style tcell.Style) {
	u.glyphStyles[r] = style
}

func (u *UI) eventLoop() {
	s := u.s
	go func() {
		for {
			select {
			case <-u.stopChan:
				return
			default:
			}
			switch ev := s.PollEvent().(type) {
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyCtrlC:
					u.RequestStop()
				case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
					u.RequestStop()
				case ev.Key() == tcell.KeyEscape:
					u.RequestStop()
				}
			case *tcell.EventResize:
				s.Sync()
			case *tcell.EventInterrupt:
				return
			case nil:
				return
			}
		}
	}()
}
