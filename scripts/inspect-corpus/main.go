package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mollybeach/ai-rug-checker/internal/stats"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

func main() {
	var (
		dataPath = flag.String("data", "data", "Data directory path")
		limit    = flag.Int("limit", 20, "Number of records to list (0 lists none)")
		rugOnly  = flag.Bool("rug-only", false, "List only records labeled as rug pulls")
		token    = flag.String("token", "", "Print one record as JSON")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open corpus")
	}
	defer store.Close()
	ctx := context.Background()

	if *token != "" {
		rec, err := store.Get(ctx, *token)
		if err != nil {
			log.Fatal().Err(err).Str("token", *token).Msg("lookup failed")
		}
		printJSON(rec)
		return
	}

	records, err := store.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load corpus")
	}
	printJSON(stats.Summarize(records, time.Now().UTC()))

	if *limit <= 0 {
		return
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UpdatedAt.After(records[j].UpdatedAt) })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOKEN\tCHAIN\tSYMBOL\tRUG\tVOL\tHOLD\tLIQ\tVOLAT\tSELL\tMCAP\tREASON")
	shown := 0
	for _, r := range records {
		if *rugOnly && !r.IsRugPull {
			continue
		}
		f := r.Features
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n",
			r.Token, r.Chain, r.Symbol, r.IsRugPull,
			f.VolumeAnomaly, f.HolderConcentration, f.LiquidityScore,
			f.PriceVolatility, f.SellPressure, f.MarketCapRisk, r.Reason)
		shown++
		if shown >= *limit {
			break
		}
	}
	w.Flush()
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode")
	}
	fmt.Println(string(data))
}
