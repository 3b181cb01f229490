// Command genmock writes synthetic FAAM core files, one per logging
// generation, plus a secondary instrument CSV for merge testing. The files
// exercise the same normalization paths as archived flights.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -seconds 3600
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/faam-core-etl/internal/adapter/netcdf"
	"github.com/couchcryptid/faam-core-etl/internal/domain"
)

var flightDate = time.Date(2017, time.May, 17, 0, 0, 0, 0, time.UTC)

// takeoff is seconds past midnight of the first sample.
const takeoff = 36000

// generation is one synthetic core-file flavour.
type generation struct {
	name  string
	build func(p profile) (domain.Attributes, []domain.Variable)
}

var generations = []generation{
	{name: "modern", build: modernCore},
	{name: "flightdate", build: flightDateCore},
	{name: "legacy", build: legacyCore},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory")
	duration := flag.Int("seconds", 1800, "flight duration in seconds")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *out == "" || *duration < 10 {
		flag.Usage()
		return fmt.Errorf("missing or invalid flags: -out, -seconds")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	p := newProfile(*duration, *seed)
	w := netcdf.NewWriter(slog.New(slog.DiscardHandler))
	for _, g := range generations {
		attrs, vars := g.build(p)
		path := filepath.Join(*out, "core_faam_20170517_c012_"+g.name+".nc")
		if err := w.WriteFile(path, attrs, vars, true); err != nil {
			return fmt.Errorf("writing %s core: %w", g.name, err)
		}
		log.Printf("%s: %d variables, %d samples -> %s", g.name, len(vars), p.n, path)
	}

	csvPath := filepath.Join(*out, "chemistry_20170517_c012.csv")
	if err := writeSecondary(csvPath, p, *seed); err != nil {
		return fmt.Errorf("writing secondary records: %w", err)
	}
	log.Printf("secondary: %s", csvPath)
	return nil
}

// profile is a flight: taxi, climb, a racetrack at altitude, descent, taxi.
type profile struct {
	n             int
	lat, lon, alt []float64
	ias           []float64
	wow           []float64
	accel         []float64 // four samples per second
}

func newProfile(n int, seed uint64) profile {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	p := profile{
		n:     n,
		lat:   make([]float64, n),
		lon:   make([]float64, n),
		alt:   make([]float64, n),
		ias:   make([]float64, n),
		wow:   make([]float64, n),
		accel: make([]float64, 4*n),
	}
	ground := max(n/20, 2)
	for i := range n {
		frac := float64(i) / float64(n-1)
		p.lat[i] = 52.07 + 0.8*math.Sin(2*math.Pi*frac)
		p.lon[i] = -0.62 - 1.2*frac + 0.01*r.NormFloat64()
		switch {
		case i < ground || i >= n-ground:
			p.ias[i] = 8 + r.Float64()*5
			p.alt[i] = 110
			p.wow[i] = 1
		default:
			p.ias[i] = 120 + 10*r.Float64()
			p.alt[i] = 110 + 6000*math.Sin(math.Pi*frac)
		}
		for j := range 4 {
			p.accel[4*i+j] = 9.81 + 0.2*r.NormFloat64()
		}
	}
	// A dropout in the GIN feed.
	if n > 40 {
		p.lat[n/2] = math.NaN()
	}
	return p
}

func seconds(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(takeoff + i)
	}
	return out
}

func float32Var(name string, data []float64, units string) domain.Variable {
	return domain.Variable{Name: name, Data: data, Width: 1, Type: domain.Float32, Attrs: domain.Attributes{"units": units}}
}

func modernCore(p profile) (domain.Attributes, []domain.Variable) {
	attrs := domain.Attributes{
		"title":   "Data from c012 on 17-May-17",
		"TITLE":   "Data from c012 on 17-May-17",
		"history": "synthetic core file written by genmock",
	}
	return attrs, []domain.Variable{
		{Name: "Time", Data: seconds(p.n), Width: 1, Type: domain.Int32, Attrs: domain.Attributes{
			"units": "seconds since " + flightDate.Format("2006-01-02 15:04:05") + " +0000",
		}},
		float32Var("LAT_GIN", p.lat, "degree_north"),
		float32Var("LON_GIN", p.lon, "degree_east"),
		float32Var("ALT_GIN", p.alt, "m"),
		float32Var("IAS_RVSM", p.ias, "m s-1"),
		{Name: "WOW_IND", Data: p.wow, Width: 1, Type: domain.Int8, Attrs: domain.Attributes{"long_name": "Weight on wheels indicator"}},
		{Name: "ACLV_GIN", Data: p.accel, Width: 4, Type: domain.Float32, Attrs: domain.Attributes{"units": "m s-2"}},
	}
}

func flightDateCore(p profile) (domain.Attributes, []domain.Variable) {
	attrs := domain.Attributes{
		"Flight_Date":   flightDate.Format("02-Jan-06"),
		"FLIGHT_NUMBER": "c012",
	}
	return attrs, []domain.Variable{
		{Name: "time", Data: seconds(p.n), Width: 1, Type: domain.Int32, Attrs: domain.Attributes{"units": "seconds past midnight"}},
		float32Var("LAT_GPS", p.lat, "degree_north"),
		float32Var("LON_GPS", p.lon, "degree_east"),
		float32Var("GPS_ALT", p.alt, "m"),
		float32Var("IAS_RVSM", p.ias, "m s-1"),
	}
}

func legacyCore(p profile) (domain.Attributes, []domain.Variable) {
	attrs := domain.Attributes{
		"TITLE": "Data from c012 on " + flightDate.Format("02-Jan-06"),
		"DATE":  []float64{float64(flightDate.Day()), float64(flightDate.Month()), float64(flightDate.Year())},
	}
	flags := make([]float64, p.n)
	return attrs, []domain.Variable{
		{Name: "PARA0515", Data: seconds(p.n), Width: 1, Type: domain.Int32, Attrs: domain.Attributes{"units": "s"}},
		float32Var("PARA0610", p.lat, "deg"),
		{Name: "PARA0610FLAG", Data: flags, Width: 1, Type: domain.Int8},
		float32Var("PARA0611", p.lon, "deg"),
		float32Var("PARA0612", p.alt, "m"),
		float32Var("PARA0516", p.ias, "m s-1"),
	}
}

// writeSecondary writes an irregular chemistry stream roughly every 2.3 s.
func writeSecondary(path string, p profile, seed uint64) error {
	r := rand.New(rand.NewPCG(seed+1, seed))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "CO_PPB", "O3_PPB"}); err != nil {
		return err
	}
	start := flightDate.Add(takeoff * time.Second)
	for t := 0.0; t < float64(p.n); t += 2 + 0.6*r.Float64() {
		ts := start.Add(time.Duration(t * float64(time.Second)))
		row := []string{
			ts.Format(time.RFC3339Nano),
			strconv.FormatFloat(90+20*r.Float64(), 'f', 2, 64),
			strconv.FormatFloat(35+5*r.Float64(), 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
