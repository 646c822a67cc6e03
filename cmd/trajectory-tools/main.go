// Command trajectory-tools is the developer CLI for the temporal engine:
// plot renders a moving point's trajectory and speed curve to PNG, report
// writes an HTML speed report, and roundtrip verifies the binary frame of a
// temporal value.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/google/uuid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/trajectory.engine/internal/config"
	"github.com/banshee-data/trajectory.engine/internal/monitoring"
	"github.com/banshee-data/trajectory.engine/internal/temporal"
	"github.com/banshee-data/trajectory.engine/internal/timeutil"
	"github.com/banshee-data/trajectory.engine/internal/tpoint"
	"github.com/banshee-data/trajectory.engine/internal/units"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "engine config file")
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	clock := timeutil.RealClock{}
	start := clock.Now()
	switch args[0] {
	case "plot":
		err = runPlot(cfg, args[1:])
	case "report":
		err = runReport(cfg, args[1:])
	case "roundtrip":
		err = runRoundtrip(args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
		os.Exit(1)
	}
	monitoring.Logf("%s finished in %s", args[0], clock.Since(start))
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: trajectory-tools [-config file] <command> [args]

commands:
  plot <mfjson-file>       render trajectory and speed PNGs into a run directory
  report <mfjson-file>     write an HTML speed report into a run directory
  roundtrip <hexwkb>       parse a temporal frame, re-serialize and compare`)
}

// runDir creates a fresh per-run output directory, named by a run ID so
// repeated invocations never clobber each other.
func runDir(cfg *config.EngineConfig) (string, error) {
	dir := filepath.Join(*cfg.PlotOutputDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func loadMovingPoint(path string) (temporal.Temporal, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return tpoint.FromMFJSON(raw, false)
}

func runPlot(cfg *config.EngineConfig, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("plot needs exactly one mfjson file")
	}
	t, err := loadMovingPoint(args[0])
	if err != nil {
		return err
	}
	dir, err := runDir(cfg)
	if err != nil {
		return err
	}
	if err := plotTrajectory(t, filepath.Join(dir, "trajectory.png")); err != nil {
		return err
	}
	if err := plotSpeed(cfg, t, filepath.Join(dir, "speed.png")); err != nil {
		return err
	}
	monitoring.Logf("plots written to %s", dir)
	return nil
}

func plotTrajectory(t temporal.Temporal, path string) error {
	p := plot.New()
	p.Title.Text = "Trajectory"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	insts := t.Instants()
	pts := make(plotter.XYs, len(insts))
	for i, in := range insts {
		pts[i].X = in.Val.P.X
		pts[i].Y = in.Val.P.Y
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)
	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}

func plotSpeed(cfg *config.EngineConfig, t temporal.Temporal, path string) error {
	unit, err := units.ParseSpeedUnit(*cfg.SpeedUnits)
	if err != nil {
		return err
	}
	sp, err := tpoint.Speed(t)
	if err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Speed (%s)", unit)
	p.X.Label.Text = "seconds from start"
	p.Y.Label.Text = unit.String()
	insts := sp.Instants()
	origin := insts[0].T
	pts := make(plotter.XYs, len(insts))
	for i, in := range insts {
		pts[i].X = float64(in.T-origin) / 1e6
		pts[i].Y = unit.FromMPS(in.Val.F)
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

func runReport(cfg *config.EngineConfig, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("report needs exactly one mfjson file")
	}
	t, err := loadMovingPoint(args[0])
	if err != nil {
		return err
	}
	unit, err := units.ParseSpeedUnit(*cfg.SpeedUnits)
	if err != nil {
		return err
	}
	sp, err := tpoint.Speed(t)
	if err != nil {
		return err
	}
	dir, err := runDir(cfg)
	if err != nil {
		return err
	}
	line := charts.NewLine()
	line.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title: fmt.Sprintf("Speed and heading over time (%s, degrees)", unit),
	}))
	var xs []string
	var ys []opts.LineData
	for _, in := range sp.Instants() {
		xs = append(xs, temporal.TSTime(in.T).Format("15:04:05"))
		ys = append(ys, opts.LineData{Value: unit.FromMPS(in.Val.F)})
	}
	line.SetXAxis(xs).AddSeries("speed", ys)
	if az, err := tpoint.Azimuth(t); err == nil && az != nil {
		var hs []opts.LineData
		for _, in := range sp.Instants() {
			if v, ok := az.ValueAt(in.T, true); ok {
				hs = append(hs, opts.LineData{Value: units.Degrees(v.F)})
			} else {
				hs = append(hs, opts.LineData{Value: nil})
			}
		}
		line.AddSeries("heading", hs)
	}
	out := filepath.Join(dir, "speed-report.html")
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := line.Render(f); err != nil {
		return err
	}
	monitoring.Logf("report written to %s", out)
	return nil
}

func runRoundtrip(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("roundtrip needs a hexwkb argument")
	}
	t, err := temporal.ParseHexWKB(args[0])
	if err != nil {
		return err
	}
	again, err := temporal.HexWKB(t)
	if err != nil {
		return err
	}
	back, err := temporal.ParseHexWKB(again)
	if err != nil {
		return err
	}
	if !t.Equal(back) {
		return fmt.Errorf("frame does not round-trip: %s vs %s", t, back)
	}
	fmt.Printf("%s %s with %d instants: round-trip ok\n",
		t.Subtype(), t.BaseType(), t.NumInstants())
	return nil
}
