package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/fireaq/fireaq/internal/api"
	"github.com/fireaq/fireaq/internal/aqi"
	"github.com/fireaq/fireaq/internal/firms"
	"github.com/fireaq/fireaq/internal/ingest"
	"github.com/fireaq/fireaq/internal/openaq"
	"github.com/fireaq/fireaq/internal/store"
	"github.com/fireaq/fireaq/internal/waqi"
)

// Los Angeles civic center, the reference point for fire distance.
const (
	losAngelesLat = 34.05
	losAngelesLon = -118.25
)

var cli struct {
	EnvFile kongdotenv.ENVFileConfig `kong:"optional,name='env-file',help='Load environment variables from a .env file.'"`

	DB              string `help:"Path to SQLite database." default:"data/fireaq.db"`
	Port            string `help:"HTTP server port." default:"8080"`
	City            string `help:"WAQI city feed to track." default:"losangeles"`
	BBox            string `help:"Hotspot search box as west,south,east,north (default covers LA County)." default:""`
	Scale           string `help:"AQI breakpoint preset (legacy or epa2024)." default:"epa2024"`
	FireWindowHours int    `help:"Hotspot lookback for impact assessment, in hours." default:"24"`

	Once          bool `help:"Ingest once and exit (for testing)."`
	NoPoll        bool `help:"Disable polling (server only, for local dev)."`
	Daily         bool `help:"Run daily roll-up jobs and exit."`
	BackfillDaily bool `help:"Backfill daily summaries from stored readings and exit."`

	FirmsMapKey  string `env:"FIRMS_MAP_KEY" help:"NASA FIRMS map key."`
	WaqiToken    string `env:"WAQI_TOKEN" help:"WAQI API token."`
	OpenaqAPIKey string `env:"OPENAQ_API_KEY" help:"OpenAQ API key."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("fireaq"),
		kong.Description("PM2.5 air quality and wildfire impact tracker."))

	if cli.FirmsMapKey == "" {
		log.Fatal("FIRMS_MAP_KEY environment variable required")
	}
	if cli.WaqiToken == "" {
		log.Fatal("WAQI_TOKEN environment variable required")
	}

	bbox := firms.LACounty
	if cli.BBox != "" {
		b, err := parseBBox(cli.BBox)
		if err != nil {
			log.Fatalf("bbox: %v", err)
		}
		bbox = b
	}

	scale, err := aqi.ScaleByName(cli.Scale)
	if err != nil {
		log.Fatalf("scale: %v", err)
	}
	if err := scale.Validate(); err != nil {
		log.Fatalf("scale %s: %v", cli.Scale, err)
	}

	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	fc := firms.NewClient(cli.FirmsMapKey)
	wc := waqi.NewClient(cli.WaqiToken)
	var oc *openaq.Client
	if cli.OpenaqAPIKey != "" {
		oc = openaq.NewClient(cli.OpenaqAPIKey)
	} else {
		log.Println("OPENAQ_API_KEY not set, skipping OpenAQ sensors")
	}

	scheduler := ingest.NewScheduler(st, fc, wc, oc, cli.City, bbox, cli.FireWindowHours)
	center := &firms.Coordinate{Latitude: losAngelesLat, Longitude: losAngelesLon}
	server := api.NewServer(st, cli.Port, scale, cli.City, center, cli.FireWindowHours)

	if cli.BackfillDaily {
		log.Println("backfilling daily summaries")
		if err := scheduler.BackfillDailySummaries(); err != nil {
			log.Fatalf("backfill summaries: %v", err)
		}
		log.Println("done")
		return
	}

	if cli.Daily {
		log.Println("running daily jobs")
		if err := scheduler.RunDailyJobs(); err != nil {
			log.Fatalf("daily jobs: %v", err)
		}
		log.Println("done")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cli.Once {
		log.Println("running single ingestion")
		if err := scheduler.IngestOnce(ctx); err != nil {
			log.Fatalf("ingest: %v", err)
		}
		log.Println("done")
		return
	}

	if !cli.NoPoll {
		go scheduler.Run(ctx)
	} else {
		log.Println("polling disabled (--no-poll)")
	}

	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// parseBBox reads "west,south,east,north" in degrees.
func parseBBox(s string) (firms.BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return firms.BBox{}, fmt.Errorf("want west,south,east,north, got %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return firms.BBox{}, fmt.Errorf("coordinate %q: %w", p, err)
		}
		vals[i] = v
	}
	return firms.BBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}, nil
}
