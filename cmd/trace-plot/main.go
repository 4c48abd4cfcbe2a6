// Command trace-plot renders an exported trace CSV ("time (s)",
// "voltage (V)" columns) to a PNG for quick inspection.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/piec-lab/piec/internal/version"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "print version and exit")
		in          = flag.String("in", "", "trace CSV to render")
		out         = flag.String("out", "trace.png", "output PNG path")
		title       = flag.String("title", "", "plot title (defaults to the input filename)")
	)
	flag.Parse()
	if *showVersion {
		fmt.Println("trace-plot " + version.String())
		return
	}
	if *in == "" {
		log.Fatal("missing -in trace CSV")
	}

	pts, err := readTrace(*in)
	if err != nil {
		log.Fatalf("read %s: %v", *in, err)
	}

	p := plot.New()
	if *title != "" {
		p.Title.Text = *title
	} else {
		p.Title.Text = *in
	}
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "voltage (V)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		log.Fatalf("build line: %v", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Add(plotter.NewGrid())

	if err := p.Save(10*vg.Inch, 4*vg.Inch, *out); err != nil {
		log.Fatalf("save %s: %v", *out, err)
	}
	log.Printf("rendered %d samples to %s", len(pts), *out)
}

// readTrace loads the two-column trace CSV produced by the acquisition
// tools.
func readTrace(path string) (plotter.XYs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no samples in %s", path)
	}

	pts := make(plotter.XYs, 0, len(records)-1)
	for i, rec := range records[1:] { // skip header
		if len(rec) < 2 {
			return nil, fmt.Errorf("row %d: expected 2 columns, got %d", i+2, len(rec))
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d time: %w", i+2, err)
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d voltage: %w", i+2, err)
		}
		pts = append(pts, plotter.XY{X: t, Y: v})
	}
	return pts, nil
}
