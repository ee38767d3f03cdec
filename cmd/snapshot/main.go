package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"filing_snapshot/pkg/core/catalog"
	"filing_snapshot/pkg/core/correlate"
	"filing_snapshot/pkg/core/pipeline"
	"filing_snapshot/pkg/core/store"
)

// RunConfig is the YAML run definition: which tickers, which year, and how
// to carve the documents.
type RunConfig struct {
	FilingRoot       string          `yaml:"filing_root"`
	Tickers          []string        `yaml:"tickers"`
	FiscalYear       int             `yaml:"fiscal_year"`
	Workers          int             `yaml:"workers"`
	SectionItems     []string        `yaml:"section_items"`
	SectionMinLength int             `yaml:"section_min_length"`
	StatementsItem   string          `yaml:"statements_item"`
	NoteProbes       []NoteProbeYAML `yaml:"note_probes"`
}

type NoteProbeYAML struct {
	Name       string   `yaml:"name"`
	Keywords   []string `yaml:"keywords"`
	WindowSize int      `yaml:"window_size"`
}

func loadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("run config malformed: %w", err)
	}
	if cfg.FilingRoot == "" {
		return nil, fmt.Errorf("run config missing filing_root")
	}
	if len(cfg.Tickers) == 0 {
		return nil, fmt.Errorf("run config lists no tickers")
	}
	if cfg.FiscalYear == 0 {
		return nil, fmt.Errorf("run config missing fiscal_year")
	}
	return &cfg, nil
}

func main() {
	configPath := flag.String("config", "run.yaml", "path to the run config file")
	ticker := flag.String("ticker", "", "process only this ticker (overrides the config list)")
	year := flag.Int("year", 0, "fiscal year override")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	cfg, err := loadRunConfig(*configPath)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if *ticker != "" {
		cfg.Tickers = []string{*ticker}
	}
	if *year != 0 {
		cfg.FiscalYear = *year
	}

	fmt.Printf("🚀 Filing snapshot run: %d tickers, FY%d, root %s\n", len(cfg.Tickers), cfg.FiscalYear, cfg.FilingRoot)

	ctx := context.Background()

	var repo store.SnapshotRepository
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := store.NewPool(ctx, dbURL)
		if err != nil {
			log.Fatalf("Error: database connection failed: %v", err)
		}
		defer pool.Close()
		repo = store.NewSnapshotRepo(pool)
		fmt.Println("Persistence: Postgres")
	} else {
		fmt.Println("Persistence: disabled (DATABASE_URL not set)")
	}

	probes := make([]pipeline.NoteProbe, 0, len(cfg.NoteProbes))
	for _, p := range cfg.NoteProbes {
		probes = append(probes, pipeline.NoteProbe{
			Name:       p.Name,
			Keywords:   p.Keywords,
			WindowSize: p.WindowSize,
		})
	}

	cat := catalog.NewFSCatalog(cfg.FilingRoot)
	orchestrator := pipeline.NewOrchestrator(
		correlate.NewCorrelator(cat),
		cat,
		repo,
		pipeline.Config{
			SectionItems:     cfg.SectionItems,
			SectionMinLength: cfg.SectionMinLength,
			StatementsItem:   cfg.StatementsItem,
			NoteProbes:       probes,
			Workers:          cfg.Workers,
		},
	)

	results, failed := orchestrator.RunBatch(ctx, cfg.Tickers, cfg.FiscalYear)

	sort.Slice(results, func(i, j int) bool { return results[i].Ticker < results[j].Ticker })
	fmt.Println("\n================ RUN SUMMARY ================")
	for _, r := range results {
		fmt.Printf("%-8s FY%d  sections=%d skipped=%d tables=%d notes=%d context=%d  (%v)\n",
			r.Ticker, r.FiscalYear, r.SectionsExtracted, r.SectionsSkipped,
			r.TableBlocks, r.NoteWindows, r.ContextFilings, r.Elapsed)
	}
	if len(failed) > 0 {
		var tickers []string
		for t := range failed {
			tickers = append(tickers, t)
		}
		sort.Strings(tickers)
		fmt.Println("---------------- FAILURES -------------------")
		for _, t := range tickers {
			fmt.Printf("%-8s %v\n", t, failed[t])
		}
		os.Exit(1)
	}
	fmt.Println("[Done] All tickers processed.")
}
