// Command validate reloads core files (raw or exported) and checks the
// invariants the pipeline relies on: every variable lies on the time
// dimension, the time index is monotonic, a ground indicator is present, and
// the track is valid and simplifies idempotently.
//
// Usage:
//
//	go run ./cmd/validate -epsilon 0.01 data/mock/*.nc
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/faam-core-etl/internal/adapter/netcdf"
	"github.com/couchcryptid/faam-core-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	epsilon := flag.Float64("epsilon", domain.DefaultEpsilon, "simplification tolerance in degrees")
	stride := flag.Int("stride", domain.DefaultStride, "simplification stride")
	flag.Parse()

	if flag.NArg() == 0 || *stride < 1 {
		flag.Usage()
		os.Exit(1)
	}

	opts := domain.TrackOptions{Epsilon: *epsilon, Stride: *stride}
	if code := run(flag.Args(), opts); code != 0 {
		os.Exit(code)
	}
}

func run(paths []string, opts domain.TrackOptions) int {
	fmt.Println("=== FAAM Core File Validation ===")

	allPassed := true
	for _, path := range paths {
		ds, err := load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", path, err)
			return 1
		}
		tr := domain.BuildTrack(ds, opts)
		phases := validate(ds, tr)

		fmt.Printf("\n%s (flight %s, %s)\n", path, ds.FlightID(), ds.Date().Format("2006-01-02"))
		for _, p := range phases {
			status := "\033[32mPASS\033[0m"
			if !p.passed() {
				status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
				allPassed = false
			}
			fmt.Printf("  %-36s %s\n", p.name, status)
		}
		printStats(ds, tr)

		for _, p := range phases {
			if p.passed() {
				continue
			}
			fmt.Printf("\n--- %s ---\n", p.name)
			for i, e := range p.errors {
				fmt.Printf("  [%d] %s\n", i+1, e)
			}
		}
		_ = ds.Close()
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func load(path string) (*domain.Dataset, error) {
	src, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	return domain.NewNormalizer(slog.New(slog.DiscardHandler)).Normalize(src)
}

func validate(ds *domain.Dataset, tr *domain.Track) []*phase {
	return []*phase{
		checkDimensions(ds),
		checkIndex(ds),
		checkGroundIndicator(ds),
		checkTrack(tr),
	}
}

// checkDimensions verifies every variable has one row per second.
func checkDimensions(ds *domain.Dataset) *phase {
	p := &phase{name: "Time dimension"}
	for _, name := range ds.VariableNames() {
		v, _ := ds.Variable(name)
		if v.Len() != ds.Len() {
			p.errorf("%s: %d rows, expected %d", name, v.Len(), ds.Len())
		}
		if !domain.ValidWidth(v.Width) {
			p.errorf("%s: unsupported sub-sample width %d", name, v.Width)
		}
	}
	return p
}

func checkIndex(ds *domain.Dataset) *phase {
	p := &phase{name: "Time index"}
	index := ds.Index()
	if len(index) == 0 {
		p.errorf("empty time index")
		return p
	}
	for i := 1; i < len(index); i++ {
		if !index[i].After(index[i-1]) {
			p.errorf("index %d: %s does not follow %s", i, index[i].Format("15:04:05"), index[i-1].Format("15:04:05"))
		}
	}
	if !index[0].Truncate(24*time.Hour).Equal(ds.Date()) {
		p.errorf("first sample %s is not on the flight date %s", index[0], ds.Date().Format("2006-01-02"))
	}
	return p
}

func checkGroundIndicator(ds *domain.Dataset) *phase {
	p := &phase{name: "Ground indicator"}
	wow, ok := ds.Variable(domain.GroundIndicatorVariable)
	if !ok {
		p.errorf("%s missing", domain.GroundIndicatorVariable)
		return p
	}
	for i, x := range wow.FirstColumn() {
		if x != 0 && x != 1 && x != domain.FillValue {
			p.errorf("sample %d: %s=%g", i, domain.GroundIndicatorVariable, x)
		}
	}
	return p
}

// checkTrack verifies every fix is valid and that simplification keeps the
// endpoints and is a fixed point.
func checkTrack(tr *domain.Track) *phase {
	p := &phase{name: "Track"}
	coords := tr.Coordinates()
	for i, c := range coords {
		if !c.Valid() {
			p.errorf("point %d: invalid coordinate %+v", i, c)
		}
	}
	if len(coords) == 0 {
		return p
	}
	if len(coords) >= 2 && coords[0] == coords[len(coords)-1] {
		p.errorf("identical first and last points were not trimmed")
	}

	simplified := domain.Simplify(coords, tr.Options().Epsilon)
	if simplified[0] != coords[0] || simplified[len(simplified)-1] != coords[len(coords)-1] {
		p.errorf("simplification dropped an endpoint")
	}
	if again := domain.Simplify(simplified, tr.Options().Epsilon); !slices.Equal(again, simplified) {
		p.errorf("simplification is not idempotent: %d then %d points", len(simplified), len(again))
	}
	return p
}

func printStats(ds *domain.Dataset, tr *domain.Track) {
	fmt.Printf("  samples %d, track points %d, simplified %d\n", ds.Len(), tr.Len(), len(tr.Simplified()))
	if tr.Len() == 0 {
		return
	}
	alt := make([]float64, tr.Len())
	for i, c := range tr.Coordinates() {
		alt[i] = c.Alt
	}
	mean, std := stat.MeanStdDev(alt, nil)
	fmt.Printf("  altitude m: min %.0f, max %.0f, mean %.0f, sd %.0f\n", floats.Min(alt), floats.Max(alt), mean, std)
}
