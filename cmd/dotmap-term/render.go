package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/dotmap/dotmap/internal/arc"
	"github.com/dotmap/dotmap/internal/frame"
	"github.com/dotmap/dotmap/internal/scene"
	"github.com/dotmap/dotmap/internal/util"
)

// liftRamp shades a dot by its share of the maximum lift.
var liftRamp = []rune(".:-=+*#%@")

var groupColors = []tcell.Color{
	tcell.ColorYellow,
	tcell.ColorFuchsia,
	tcell.ColorAqua,
	tcell.ColorLime,
	tcell.ColorOrange,
}

const markerRune = '◆'

var (
	dotStyle    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	arcStyle    = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
)

func liftRune(lift, maxLift float64) rune {
	if maxLift <= 0 || lift <= 0 {
		return liftRamp[0]
	}
	i := int(lift / maxLift * float64(len(liftRamp)-1))
	return liftRamp[min(max(i, 0), len(liftRamp)-1)]
}

func liftStyle(lift, maxLift float64) tcell.Style {
	if maxLift <= 0 || lift <= 0 {
		return dotStyle
	}
	v := int32(120 + min(lift/maxLift, 1)*135)
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(v, v, v))
}

// draw renders the scene top-down, then the status line on the last row.
func draw(scr tcell.Screen, s *scene.Scene, v view, st frame.Status, maxLift float64) {
	scr.Clear()
	spacing := s.Field.Config().Spacing

	for i := 0; i < s.Field.Len(); i++ {
		d := s.Field.Dot(i)
		if d.IsHotspot {
			continue
		}
		if col, row, ok := v.gridToCell(d.X, d.Y); ok {
			scr.SetContent(col, row, liftRune(d.Lift, maxLift), nil, liftStyle(d.Lift, maxLift))
		}
	}

	arcs := s.Arcs.Pairs()
	if seq := s.Arcs.Sequential(); seq != nil {
		arcs = append([]*arc.Arc{seq}, arcs...)
	}
	for _, a := range arcs {
		for _, p := range a.Points {
			if col, row, ok := v.gridToCell(p.X/spacing, p.Z/spacing); ok {
				scr.SetContent(col, row, '·', nil, arcStyle)
			}
		}
	}

	for gi, g := range s.Registry.Groups() {
		style := tcell.StyleDefault.Foreground(groupColors[gi%len(groupColors)]).Bold(true)
		for _, m := range g.Members {
			h := s.Registry.Hotspot(m)
			col, row, ok := v.gridToCell(h.Position.X/spacing, h.Position.Z/spacing)
			if !ok {
				continue
			}
			ms := style
			if h.ID == st.Selected {
				ms = ms.Reverse(true)
			}
			scr.SetContent(col, row, markerRune, nil, ms)
		}
	}

	drawText(scr, 0, v.rows, v.cols, statusLine(s, st), statusStyle)
	scr.Show()
}

func statusLine(s *scene.Scene, st frame.Status) string {
	if st.Selected != "" {
		if i, ok := s.Registry.Lookup(st.Selected); ok {
			h := s.Registry.Hotspot(i)
			return util.FormatTooltip(h.Label, h.Message, h.Type)
		}
	}
	if st.Hovered >= 0 && st.Hovered < s.Field.Len() {
		d := s.Field.Dot(st.Hovered)
		return fmt.Sprintf("dot %d (%g, %g) lift %.2f", st.Hovered, d.X, d.Y, d.Lift)
	}
	return fmt.Sprintf("%d dots, %d hotspots  [click] select  [esc] clear  [r] reload  [q] quit", st.Dots, st.Hotspots)
}

func drawText(scr tcell.Screen, x, y, width int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col >= x+width {
			break
		}
		scr.SetContent(col, y, r, nil, style)
		col++
	}
	for ; col < x+width; col++ {
		scr.SetContent(col, y, ' ', nil, style)
	}
}
