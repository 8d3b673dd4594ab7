// Command importdata loads CSV exports from a directory into MongoDB.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"wanderlist/config"
	"wanderlist/db"
	"wanderlist/importer"
	"wanderlist/logging"
	"wanderlist/store"
)

func main() {
	var (
		dir  string
		only string
	)
	flag.StringVar(&dir, "dir", "data", "directory holding the CSV files")
	flag.StringVar(&only, "only", "", "comma-separated collections to import (default: all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo")
	}
	defer client.Disconnect(context.Background())

	var collections []string
	for _, c := range strings.Split(only, ",") {
		if c = strings.TrimSpace(c); c != "" {
			collections = append(collections, c)
		}
	}

	reports, err := importer.New(store.NewMongo(database)).ImportDir(ctx, dir, collections...)
	failed := 0
	for _, rep := range reports {
		for _, rowErr := range rep.Errors {
			log.Warn().Err(rowErr).Str("collection", rep.Collection).Msg("skipped row")
		}
		failed += rep.Skipped
	}
	if err != nil {
		log.Fatal().Err(err).Msg("import aborted")
	}
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.Error().Err(err).Msg("ensure indexes")
	}
	log.Info().Int("collections", len(reports)).Int("skipped", failed).Msg("import complete")
}
