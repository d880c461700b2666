package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/petrelchess/petrel/internal/book"
	"github.com/petrelchess/petrel/internal/engine"
	"github.com/petrelchess/petrel/internal/storage"
	"github.com/petrelchess/petrel/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	noStore    = flag.Bool("nostore", false, "do not persist options and statistics")
)

func main() {
	flag.Parse()
	log.SetOutput(os.Stderr)
	log.SetPrefix("petrel: ")

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatalf("could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	var store *storage.Store
	config := engine.DefaultConfig()

	if !*noStore {
		s, err := storage.Open()
		if err != nil {
			log.Printf("persistent store unavailable: %v", err)
		} else {
			store = s
			defer store.Close()

			opts, err := store.LoadOptions()
			if err != nil {
				log.Printf("loading saved options: %v", err)
			} else {
				config.HashSizeMB = opts.HashSizeMB
				config.UseBook = opts.UseBook
				config.BookPath = opts.BookPath
				config.ContemptFactor = opts.ContemptFactor
			}
		}
	}

	search, err := engine.NewSearch(config)
	if err != nil {
		log.Fatalf("engine setup: %v", err)
	}

	if config.UseBook && config.BookPath != "" {
		b, err := book.Load(config.BookPath)
		if err != nil {
			log.Printf("opening book %q: %v", config.BookPath, err)
		} else {
			search.SetBook(b)
		}
	}

	uci.New(search, store, os.Stdout).Run(os.Stdin)
}
