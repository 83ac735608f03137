// Command nearest prints a company's stores ranked by distance from a point.
//
//	nearest -suburl 1place -lat 47.92 -lng 106.91 -limit 5
//
// Without -lat/-lng the configured fallback point is used.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/career-locator/internal/core/config"
	"github.com/mohammed-shakir/career-locator/internal/core/httpclient"
	"github.com/mohammed-shakir/career-locator/internal/core/model"
	"github.com/mohammed-shakir/career-locator/internal/geo"
	"github.com/mohammed-shakir/career-locator/internal/logger"
	"github.com/mohammed-shakir/career-locator/internal/rank"
	"github.com/mohammed-shakir/career-locator/internal/storesource"
)

type options struct {
	Suburl  string
	Lat     string
	Lng     string
	Limit   int
	WithinK float64
	API     string
	Timeout time.Duration
}

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	var o options
	flag.StringVar(&o.Suburl, "suburl", cfg.DefaultSub, "Company suburl")
	flag.StringVar(&o.Lat, "lat", "", "Reference latitude")
	flag.StringVar(&o.Lng, "lng", "", "Reference longitude")
	flag.IntVar(&o.Limit, "limit", 10, "Max stores to print (0 = all)")
	flag.Float64Var(&o.WithinK, "within", 0, "Only stores within this many km (0 = no limit)")
	flag.StringVar(&o.API, "api", cfg.CareerAPIURL, "Career API base URL")
	flag.DurationVar(&o.Timeout, "timeout", cfg.APITimeout, "Career API timeout")
	flag.Parse()

	if err := run(context.Background(), cfg, o, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "nearest:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, o options, out io.Writer) error {
	ref, manual, err := reference(o.Lat, o.Lng, cfg.Fallback)
	if err != nil {
		return err
	}

	zl := logger.Build(logger.Config{Level: "warn", Console: true, Service: "nearest"}, os.Stderr)
	log := logger.NewSlog(&zl)

	api, err := storesource.NewClient(log, httpclient.NewOutbound(o.Timeout), o.API)
	if err != nil {
		return fmt.Errorf("career api: %w", err)
	}
	src := storesource.New(log, api, nil, storesource.Options{DefaultSuburl: cfg.DefaultSub})

	cat, loadErr := src.LoadOrFallback(ctx, o.Suburl)
	if loadErr != nil {
		fmt.Fprintf(out, "warning: %v (showing fallback catalog)\n", loadErr)
	}

	ranked := rank.Rank(ref, cat.Stores)
	if o.WithinK > 0 {
		ranked = rank.Within(ranked, o.WithinK, false)
	}
	if o.Limit > 0 && o.Limit < len(ranked) {
		ranked = ranked[:o.Limit]
	}

	origin := "fallback"
	if manual {
		origin = "manual"
	}
	fmt.Fprintf(out, "%s (%s), from %s [%s]\n", cat.Company.BrandName, cat.Source, ref, origin)
	return printRanked(out, ranked)
}

// reference parses -lat/-lng; both or neither must be given.
func reference(lat, lng string, fallback model.Coordinate) (model.Coordinate, bool, error) {
	if lat == "" && lng == "" {
		return fallback, false, nil
	}
	if lat == "" || lng == "" {
		return model.Coordinate{}, false, errors.New("-lat and -lng must be given together")
	}
	c, err := geo.ParseCoordinate(lat + "," + lng)
	if err != nil {
		return model.Coordinate{}, false, fmt.Errorf("reference point: %w", err)
	}
	return c, true, nil
}

func printRanked(out io.Writer, ranked []model.RankedStore) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTORE\tKM\tOPEN\tADDRESS")
	for i, r := range ranked {
		km := "-"
		if r.DistanceKm != nil {
			km = fmt.Sprintf("%.1f", geo.RoundKm(*r.DistanceKm))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", i+1, r.Store.Name, km, len(r.Store.Positions), r.Store.Address)
	}
	return tw.Flush()
}
