// Command genarchive writes a deterministic mock day-file archive for local
// development and test fixtures. It produces the same directory layout the
// service fetches over HTTP, so a static file server pointed at the output
// directory is a complete fake archive:
//
//	go run ./cmd/genarchive -out ./testarchive -start 20130110 -days 10
//	python3 -m http.server 9000 -d ./testarchive
//	ARCHIVE_ROOT=http://localhost:9000 go run ./cmd/server
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/airsight-labs/airsight/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for the mock archive")
	start := flag.String("start", "20130110", "most recent day to generate (YYYYMMDD)")
	days := flag.Int("days", 10, "number of days to generate, walking backward")
	prefix := flag.String("prefix", "china_sites", "day file name prefix")
	stations := flag.Int("stations", 400, "grid stations per day")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	dates := domain.DatesBack(*start, *days, "")
	for _, date := range dates {
		if err := writeDay(*out, *prefix, date, *stations); err != nil {
			return err
		}
	}
	fmt.Printf("wrote %d day files under %s\n", len(dates), *out)
	return nil
}

// writeDay generates one day file over a 20x20 degree box. The generator is
// seeded from the date so repeated runs produce byte-identical fixtures.
func writeDay(out, prefix, date string, stations int) error {
	dir := filepath.Join(out, domain.MonthOf(date))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var seed int64
	for _, c := range date {
		seed = seed*10 + int64(c-'0')
	}
	rng := rand.New(rand.NewSource(seed))

	var b strings.Builder
	// Decorated header on purpose: the resolver has to cope with it.
	b.WriteString("lat,lon,PM2.5(微克每立方米),PM10, SO2 ,NO2,CO,O3,TEMP,RH,U,V\n")
	for i := 0; i < stations; i++ {
		lat := 25.0 + rng.Float64()*20
		lon := 105.0 + rng.Float64()*20
		pm25 := 20 + rng.Float64()*180
		if rng.Intn(20) == 0 {
			// Sprinkle missing measurements like the real archive.
			fmt.Fprintf(&b, "%.3f,%.3f,NA,%.1f,%.1f,%.1f,%.2f,%.1f,%.1f,%.1f,%.2f,%.2f\n",
				lat, lon, 30+rng.Float64()*200, rng.Float64()*80, rng.Float64()*120,
				rng.Float64()*3, rng.Float64()*160, -5+rng.Float64()*35, 20+rng.Float64()*75,
				-8+rng.Float64()*16, -8+rng.Float64()*16)
			continue
		}
		fmt.Fprintf(&b, "%.3f,%.3f,%.1f,%.1f,%.1f,%.1f,%.2f,%.1f,%.1f,%.1f,%.2f,%.2f\n",
			lat, lon, pm25, pm25*1.4+rng.Float64()*30, rng.Float64()*80, rng.Float64()*120,
			rng.Float64()*3, rng.Float64()*160, -5+rng.Float64()*35, 20+rng.Float64()*75,
			-8+rng.Float64()*16, -8+rng.Float64()*16)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s00.csv", prefix, date))
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
