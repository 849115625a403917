// Seeder creates a demo media library tree for development: a few
// folder-based movies (one with a conventional cover image), some loose
// files, and a legacy preview. The video files are placeholders; point
// REELHOUSE_LIBRARY_ROOT at the generated tree to exercise the scanner
// and the API without real media.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

func main() {
	root := flag.String("root", "./demo-library", "Directory to create the demo library in")
	flag.Parse()

	fmt.Printf("Seeding demo library at %s...\n", *root)

	folderMovies := []string{
		"Big Buck Bunny (2008)",
		"Sintel (2010)",
		"Tears of Steel (2012)",
	}
	for _, name := range folderMovies {
		dir := filepath.Join(*root, name)
		mustMkdir(dir)
		mustWrite(filepath.Join(dir, name+".mp4"), 4096)
	}

	// A conventional cover image next to one of them
	mustWrite(filepath.Join(*root, "Big Buck Bunny (2008)", "poster.jpg"), 512)

	// Loose files directly under the root become file-based entries
	for _, name := range []string{"Home Video 1.mkv", "Home Video 2.mkv", "Concert.ts"} {
		mustWrite(filepath.Join(*root, name), 2048)
	}

	// A season-style folder with several episodes
	seasonDir := filepath.Join(*root, "Documentary Series", "Season 1")
	mustMkdir(seasonDir)
	for i := 1; i <= 3; i++ {
		mustWrite(filepath.Join(seasonDir, fmt.Sprintf("Episode %d.mp4", i)), 2048)
	}

	// A legacy preview in the old per-video layout, honored but never written
	legacyDir := filepath.Join(*root, "Sintel (2010)", ".reelhouse")
	mustMkdir(legacyDir)
	mustWrite(filepath.Join(legacyDir, "Sintel (2010)_preview.mp4"), 1024)

	fmt.Println("Done. Scan it with:")
	fmt.Printf("  curl -X POST localhost:3080/api/scan -d '{\"root\": %q}'\n", mustAbs(*root))
}

func mustMkdir(dir string) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("mkdir %s: %v", dir, err)
	}
}

func mustWrite(path string, size int) {
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		log.Fatalf("write %s: %v", path, err)
	}
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		log.Fatalf("abs %s: %v", path, err)
	}
	return abs
}
