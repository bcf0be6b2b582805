// Command collate exports the validated-record collation table as CSV,
// the same table the /api/collation endpoint serves, without needing a
// running server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/ghg-data/inventory.report/internal/collate"
	"github.com/ghg-data/inventory.report/internal/config"
	"github.com/ghg-data/inventory.report/internal/db"
	"github.com/ghg-data/inventory.report/internal/inventory"
	"github.com/ghg-data/inventory.report/internal/security"
)

func main() {
	var dbPath string
	var sector string
	var fromYear int
	var toYear int
	var outPath string
	var configPath string

	flag.StringVar(&dbPath, "db", "", "path to sqlite db (overrides config)")
	flag.StringVar(&sector, "sector", "", "restrict to one sector (IPPU, Waste); empty means all")
	flag.IntVar(&fromYear, "from", 0, "first reporting year (default: configured span back)")
	flag.IntVar(&toYear, "to", 0, "last reporting year (default: current year)")
	flag.StringVar(&outPath, "out", "", "output file (default: stdout)")
	flag.StringVar(&configPath, "config", "", "path to a JSON settings file")
	flag.Parse()

	cfg := config.EmptyAppConfig()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if dbPath == "" {
		dbPath = cfg.GetDatabasePath()
	}

	now := time.Now().Year()
	if toYear == 0 {
		toYear = now
	}
	if fromYear == 0 {
		fromYear = toYear - cfg.GetCollationSpanYears()
	}

	dbConn, err := db.NewDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	collator := collate.New(dbConn, inventory.Default())
	rows, err := collator.Collate(context.Background(), sector, fromYear, toYear)
	if err != nil {
		log.Fatalf("collation failed: %v", err)
	}

	out := os.Stdout
	if outPath != "" {
		if err := security.ValidateExportPath(outPath); err != nil {
			log.Fatalf("invalid output path: %v", err)
		}
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	if err := collate.WriteCSV(out, rows, fromYear, toYear); err != nil {
		log.Fatalf("write csv: %v", err)
	}
}
