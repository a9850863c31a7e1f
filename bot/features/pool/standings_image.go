package pool

import (
	"bytes"
	"fmt"
	"time"

	"prizepool/bot/common"
	"prizepool/domain/entities"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	standingsWidth     = 360
	standingsPadding   = 15
	standingsRowHeight = 24
	standingsMinHeight = 140
	maxStandingsRows   = 15
	maxNameLength      = 16
)

// StandingRow is one participant line in the standings image
type StandingRow struct {
	Name    string
	Tickets uint64
	Invoker bool
}

type standingsColumn struct {
	header string
	x      float64
	rgb    [3]float64
}

var medalColors = [3][3]float64{
	{1, 0.84, 0},       // gold
	{0.75, 0.75, 0.75}, // silver
	{0.8, 0.5, 0.2},    // bronze
}

// GenerateStandingsImage renders an epoch's ticket holders, largest first, as a PNG.
// Rows beyond the first fifteen are folded into the footer.
func GenerateStandingsImage(epoch *entities.Epoch, rows []StandingRow) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithFields(log.Fields{
			"duration_ms": time.Since(start).Milliseconds(),
			"row_count":   len(rows),
		}).Debug("Standings image generation completed")
	}()

	shown := rows
	if len(shown) > maxStandingsRows {
		shown = shown[:maxStandingsRows]
	}

	// title + header + rows + footer
	height := 30 + 30 + len(shown)*standingsRowHeight + 35
	if height < standingsMinHeight {
		height = standingsMinHeight
	}

	dc := gg.NewContext(standingsWidth, height)
	for y := 0; y < height; y++ {
		t := float64(y) / float64(height)
		dc.SetRGB(0.02+t*0.03, 0.03+t*0.04, 0.06+t*0.1)
		dc.DrawLine(0, float64(y), standingsWidth, float64(y))
		dc.Stroke()
	}

	face, err := loadFont(gomono.TTF, 11)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	titleFace, err := loadFont(gobold.TTF, 13)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	dc.SetFontFace(titleFace)
	dc.SetRGB(1, 0.84, 0)
	drawSharpText(dc, fmt.Sprintf("Epoch #%d standings", epoch.ID), standingsPadding, 22)

	columns := []standingsColumn{
		{header: "#", x: standingsPadding, rgb: [3]float64{0.85, 0.85, 0.9}},
		{header: "Participant", x: standingsPadding + 25, rgb: [3]float64{1, 1, 1}},
		{header: "Tickets", x: standingsPadding + 175, rgb: [3]float64{0.85, 1, 0.85}},
		{header: "Odds", x: standingsPadding + 260, rgb: [3]float64{0.85, 0.85, 1}},
	}

	y := float64(50)
	dc.SetFontFace(face)
	dc.SetRGBA(0.3, 0.3, 0.4, 0.4)
	dc.DrawRectangle(0, y-15, standingsWidth, 20)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	for _, col := range columns {
		drawSharpText(dc, col.header, col.x, y)
	}
	dc.SetRGBA(0.6, 0.6, 0.7, 0.7)
	dc.SetLineWidth(1)
	dc.DrawLine(0, y+8, standingsWidth, y+8)
	dc.Stroke()

	y += 28
	for i, row := range shown {
		switch {
		case row.Invoker:
			dc.SetRGBA(0.3, 0.6, 1, 0.22)
		case i < len(medalColors):
			c := medalColors[i]
			dc.SetRGBA(c[0], c[1], c[2], 0.1-float64(i)*0.02)
		default:
			dc.SetRGBA(0.5, 0.5, 0.6, 0.02)
		}
		dc.DrawRectangle(0, y-15, standingsWidth, standingsRowHeight)
		dc.Fill()

		cells := []string{
			fmt.Sprintf("%d", i+1),
			truncateName(row.Name),
			common.FormatTickets(row.Tickets),
			formatOdds(row.Tickets, epoch.TotalTickets()),
		}

		if i < len(medalColors) {
			c := medalColors[i]
			dc.SetRGB(c[0], c[1], c[2])
			dc.DrawCircle(columns[0].x+4, y-4, 6)
			dc.Fill()
			dc.SetRGB(0, 0, 0)
			dc.DrawStringAnchored(cells[0], columns[0].x+4, y-5, 0.5, 0.4)
		} else {
			dc.SetRGB(columns[0].rgb[0], columns[0].rgb[1], columns[0].rgb[2])
			drawSharpText(dc, cells[0], columns[0].x, y)
		}

		for j := 1; j < len(columns); j++ {
			col := columns[j]
			dc.SetRGB(col.rgb[0], col.rgb[1], col.rgb[2])
			drawSharpText(dc, cells[j], col.x, y)
		}
		y += standingsRowHeight
	}

	footer := fmt.Sprintf("%s tickets sold", common.FormatTickets(epoch.TotalTickets()))
	if hidden := len(rows) - len(shown); hidden > 0 {
		footer = fmt.Sprintf("%s · %d more holders", footer, hidden)
	}
	dc.SetRGB(0.7, 0.7, 0.7)
	w, _ := dc.MeasureString(footer)
	drawSharpText(dc, footer, (standingsWidth-w)/2, float64(height)-15)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) > maxNameLength {
		return string(runes[:maxNameLength-1]) + "…"
	}
	return name
}

func formatOdds(tickets, total uint64) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", float64(tickets)*100/float64(total))
}

// drawSharpText draws text over a faint offset shadow
func drawSharpText(dc *gg.Context, text string, x, y float64) {
	dc.Push()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawString(text, x+0.5, y+0.5)
	dc.Pop()

	dc.DrawString(text, x, y)
}

func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
