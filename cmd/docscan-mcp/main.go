package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("docscan-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	// stdout carries the protocol.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.Debug() {
		log.Printf("docscan-mcp v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("detection: %+v", cfg.Detection)
		log.Printf("stability: %+v", cfg.Stability)
	}

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printHelp() {
	fmt.Println("docscan-mcp - MCP server that finds, straightens and captures paper documents")
	fmt.Println()
	fmt.Println("Usage: docscan-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  DOCSCAN_LOG_LEVEL=debug             Enable debug logging")
	fmt.Println("  DOCSCAN_CROP=perspective|bounds     How pages are cut out (default perspective)")
	fmt.Println("  DOCSCAN_PREVIEW_MAX_SIDE=1024       Longest side of returned images, 0 for full size")
	fmt.Println("  DOCSCAN_VAL_MIN=180                 Minimum brightness (0-255) counted as paper")
	fmt.Println("  DOCSCAN_SAT_MAX=40                  Maximum saturation (0-255) counted as paper")
	fmt.Println("  DOCSCAN_HUE_MIN, DOCSCAN_HUE_MAX    Hue window in degrees (default 0-360)")
	fmt.Println("  DOCSCAN_BLUR_SIZE=9                 Mask blur size, odd")
	fmt.Println("  DOCSCAN_MORPH_SIZE=7                Morphology element size, odd")
	fmt.Println("  DOCSCAN_MORPH_ITERATIONS=2          Close/open repetitions")
	fmt.Println("  DOCSCAN_MIN_AREA_FRACTION=0.10      Smallest page, as a fraction of the image")
	fmt.Println("  DOCSCAN_MAX_AREA_FRACTION=0.98      Largest page, as a fraction of the image")
	fmt.Println("  DOCSCAN_APPROX_EPSILON=0.02         Polygon tolerance, as a fraction of the perimeter")
	fmt.Println("  DOCSCAN_REFINE_CORNERS=true         Fit page edges for sub-blur corner accuracy")
	fmt.Println("  DOCSCAN_SHRINK_FACTOR=0             Pull corners toward the centre to trim the border")
	fmt.Println("  DOCSCAN_MAX_SIDE=1024               Downsample larger images before detection")
	fmt.Println("  DOCSCAN_STABLE_DISTANCE=10          Corner movement (px) still counted as stable")
	fmt.Println("  DOCSCAN_HOLD_SECONDS=3              Stable time before auto-capture")
	fmt.Println("  DOCSCAN_BRIGHTNESS=10               Brightness lift applied by enhancement")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client.")
}
