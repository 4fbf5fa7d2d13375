// Package digest renders the weekly email from a metric set.
package digest

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ManuelReschke/Candor/internal/pkg/judgment"
	"github.com/ManuelReschke/Candor/internal/pkg/metrics"
	"github.com/gofiber/template/html/v2"
)

const (
	Contact    = "weekly@candor.so"
	weekLayout = "January 2, 2006"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	engine     *html.Engine
	engineOnce sync.Once
	engineErr  error
)

func loadEngine() (*html.Engine, error) {
	engineOnce.Do(func() {
		sub, err := fs.Sub(templateFS, "templates")
		if err != nil {
			engineErr = err
			return
		}
		engine = html.NewFileSystem(http.FS(sub), ".html")
		engineErr = engine.Load()
	})
	return engine, engineErr
}

// Email is a rendered weekly message.
type Email struct {
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// Line is one "Label: value" row of the metrics block.
type Line struct {
	Label string
	Value string
}

// Lines returns the five metric rows in display order.
func Lines(s metrics.Set) []Line {
	return []Line{
		{"Net Revenue Retention", formatValue(s.NRR, percent)},
		{"New Net ARR", formatValue(s.NewNetARR, Currency)},
		{"Burn Multiple", formatValue(s.BurnMultiple, multiple)},
		{"Core Action Conversion", formatValue(s.CoreActionConversion, percent)},
		{"Forward Signal", formatValue(s.ForwardSignal, signal)},
	}
}

// Render builds subject, plain text and HTML bodies. It has no side effects.
func Render(s metrics.Set, sentence string, health judgment.Health, weekOf time.Time) (Email, error) {
	week := weekOf.Format(weekLayout)
	lines := Lines(s)

	var text strings.Builder
	fmt.Fprintf(&text, "Week of %s\n\n", week)
	for _, l := range lines {
		fmt.Fprintf(&text, "%s: %s\n", l.Label, l.Value)
	}
	fmt.Fprintf(&text, "\n%s\n\n--\nCandor | %s\nReply to cancel.", sentence, Contact)

	eng, err := loadEngine()
	if err != nil {
		return Email{}, fmt.Errorf("load email templates: %w", err)
	}
	var body bytes.Buffer
	err = eng.Render(&body, "weekly", map[string]interface{}{
		"Week":     week,
		"Lines":    lines,
		"Judgment": sentence,
		"Contact":  Contact,
	})
	if err != nil {
		return Email{}, fmt.Errorf("render weekly email: %w", err)
	}

	return Email{
		Subject: Subject(s, health),
		Text:    text.String(),
		HTML:    body.String(),
	}, nil
}

// Subject picks the subject line by health label, then by the metric that
// drove it.
func Subject(s metrics.Set, health judgment.Health) string {
	nrr, hasNRR := s.NRR.Get()
	burn, hasBurn := s.BurnMultiple.Get()

	switch health {
	case judgment.HealthAtRisk:
		switch {
		case hasNRR && nrr < 90:
			return fmt.Sprintf("Your SaaS is losing ground - NRR at %.0f%%", nrr)
		case hasBurn && burn > 3:
			return "Burn Multiple hit " + plain(burn) + "x - this needs to change"
		}
		return "Your SaaS is at risk - read this now"
	case judgment.HealthFragile:
		switch {
		case hasNRR && nrr < 100:
			return "Your SaaS is growing - but it's fragile"
		case hasBurn && burn > 2:
			return "Growth is happening - but you're paying too much for it"
		}
		return "Your SaaS is fragile - one number needs attention"
	default:
		if hasNRR && nrr >= 110 {
			return fmt.Sprintf("Your SaaS is compounding - NRR at %.0f%%", nrr)
		}
		return "Your SaaS is healthy - here's this week's picture"
	}
}

// ParseLines reads the metric rows back out of a plain text body.
func ParseLines(text string) []Line {
	labels := map[string]bool{
		"Net Revenue Retention":  true,
		"New Net ARR":            true,
		"Burn Multiple":          true,
		"Core Action Conversion": true,
		"Forward Signal":         true,
	}

	var out []Line
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		label, value, ok := strings.Cut(sc.Text(), ": ")
		if ok && labels[label] {
			out = append(out, Line{Label: label, Value: value})
		}
	}
	return out
}
