// Command plot-capture renders the target tracks of a recorded session.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hoangnv31/mmwave-tracking/internal/capture"
)

func main() {
	session := flag.String("session", "", "session directory holding replay_<k>.json files")
	output := flag.String("o", "tracks.png", "output path; the extension selects the format")
	flag.Parse()

	if *session == "" {
		log.Fatal("-session is required")
	}

	r, err := capture.NewReplayer(*session)
	if err != nil {
		log.Fatalf("failed to load session: %v", err)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *output, err)
	}
	defer f.Close()

	format := strings.TrimPrefix(filepath.Ext(*output), ".")
	if err := capture.PlotTracks(r.Entries(), f, format); err != nil {
		log.Fatalf("failed to plot %s: %v", *session, err)
	}
	log.Printf("✓ Created: %s (%d frames)", *output, r.Len())
}
