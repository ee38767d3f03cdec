// pagescan discovers the page-number convention of a single document, caches
// it, and slices one TOC item out by page range. Used to vet a new issuer's
// document format before adding it to a batch run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"filing_snapshot/pkg/core/agent"
	"filing_snapshot/pkg/core/pageindex"
)

func main() {
	file := flag.String("file", "", "document to scan (markdown or plain text)")
	item := flag.String("item", "Item 7", "TOC item to slice out")
	cachePath := flag.String("cache", "page_patterns.json", "pattern cache file")
	signature := flag.String("signature", "", "format signature for the cache (default: file path)")
	provider := flag.String("provider", "gemini", "classifier backend (gemini or deepseek)")
	flag.Parse()

	if *file == "" {
		log.Fatal("Error: -file is required")
	}
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	fullText := string(data)

	sig := *signature
	if sig == "" {
		sig = *file
	}

	manager := agent.NewManager(agent.Config{ActiveProvider: *provider})
	backend, err := manager.ActiveProvider()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	cache := pageindex.NewPatternCache()
	if err := cache.Load(*cachePath); err != nil {
		log.Fatalf("Error: %v", err)
	}

	ctx := context.Background()

	entry, _ := cache.Get(sig)
	pattern := entry.PageRegex
	if pattern == "" {
		fmt.Println("No cached pattern, discovering...")
		pattern, err = pageindex.DiscoverPagePattern(ctx, backend, fullText)
		if err != nil {
			log.Fatalf("Error: pattern discovery failed: %v", err)
		}
		if err := cache.PutPattern(sig, pattern); err != nil {
			log.Fatalf("Error: %v", err)
		}
	}
	fmt.Printf("Page pattern: %q\n", pattern)

	toc := entry.TOC
	if len(toc) == 0 {
		fmt.Println("No cached TOC, extracting...")
		toc, err = pageindex.ExtractTOC(ctx, backend, fullText)
		if err != nil {
			log.Fatalf("Error: TOC extraction failed: %v", err)
		}
		cache.PutTOC(sig, toc)
	}
	fmt.Printf("TOC: %d entries\n", len(toc))

	if err := cache.Save(*cachePath); err != nil {
		log.Fatalf("Error: %v", err)
	}

	startMarker, endMarker, err := pageindex.ResolveItemPages(toc, *item)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	slice, err := pageindex.SlicePages(fullText, pattern, startMarker, endMarker)
	if err != nil {
		log.Fatalf("Error: slicing failed: %v", err)
	}

	fmt.Printf("\n%s: %d chars\n", *item, len(slice))
	preview := slice
	if len(preview) > 500 {
		preview = preview[:500]
	}
	fmt.Printf("---\n%s\n---\n", preview)
}
