package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/s-elg/scannning-app/internal/pipeline"
	"github.com/s-elg/scannning-app/internal/server"
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
			fmt.Printf("docscan %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  Detector:   %s\n", detectorBackend)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		case "scan":
			os.Exit(runScan(os.Args[2:]))
		}
	}

	log := newLogger()
	log.WithFields(logrus.Fields{
		"version":  Version,
		"built":    BuildTime,
		"commit":   GitCommit,
		"detector": detectorBackend,
	}).Debug("Starting MCP server")

	cfg := pipeline.DefaultConfig()
	p, err := pipeline.New(cfg, log, pipeline.WithDetector(newDetector(cfg.Detector)))
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	server.Version = Version
	if err := server.New(p, log).Run(); err != nil {
		log.WithError(err).Fatal("Server error")
	}
}

func printUsage() {
	fmt.Println("docscan - document scanner and MCP server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  docscan [options]                 Serve MCP over stdin/stdout")
	fmt.Println("  docscan scan [flags] <photo>      Scan one photo to PDF or image")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  DOCSCAN_LOG_LEVEL=debug    Log level (trace, debug, info, warn, error)")
	fmt.Println()
	fmt.Println("In server mode docscan communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

// newLogger logs to stderr, since stdout carries the MCP protocol.
func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := logrus.InfoLevel
	if env := os.Getenv("DOCSCAN_LOG_LEVEL"); env != "" {
		parsed, err := logrus.ParseLevel(env)
		if err != nil {
			log.WithError(err).Warnf("Invalid DOCSCAN_LOG_LEVEL %q, using info", env)
		} else {
			level = parsed
		}
	}
	log.SetLevel(level)
	return log
}

// runScan implements the scan subcommand and returns the process exit code.
func runScan(args []string) int {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	var (
		output  string
		low     float64
		high    float64
		aspect  float64
		raw     bool
		verbose bool
	)
	def := pipeline.DefaultConfig()
	fs.StringVar(&output, "o", "", "Output file (.pdf, .png, .jpg). Default: <photo>.pdf")
	fs.Float64Var(&low, "low", def.Detector.LowThreshold, "Canny low threshold")
	fs.Float64Var(&high, "high", def.Detector.HighThreshold, "Canny high threshold")
	fs.Float64Var(&aspect, "aspect", def.Rectifier.AspectRatio, "Page height/width ratio")
	fs.BoolVar(&raw, "raw", false, "Skip enhancement and keep the rectified color page")
	fs.BoolVar(&verbose, "v", false, "Print debug information")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: docscan scan [flags] <photo>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	log := newLogger()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	input := fs.Arg(0)
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".pdf"
	}

	cfg := def
	cfg.Detector.LowThreshold = low
	cfg.Detector.HighThreshold = high
	cfg.Rectifier.AspectRatio = aspect
	cfg.SkipEnhance = raw

	p, err := pipeline.New(cfg, log, pipeline.WithDetector(newDetector(cfg.Detector)))
	if err != nil {
		log.WithError(err).Error("Invalid configuration")
		return 2
	}

	res, err := p.ScanFile(input, output)
	if err != nil {
		log.WithError(err).WithField("path", input).Error("Scan failed")
		return 1
	}

	page := res.Output()
	fmt.Printf("%s -> %s (%dx%d)\n", input, output, page.Width, page.Height)
	return 0
}
