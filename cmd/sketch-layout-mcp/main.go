package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/sketch-layout-mcp/internal/config"
	"github.com/ironsheep/sketch-layout-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("sketch-layout-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "sketch-layout-mcp: %v\n", err)
		os.Exit(1)
	}
	configureLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(cfg, server.WithVersion(Version))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create server")
	}

	if len(os.Args) > 1 && os.Args[1] == "build" {
		if err := runBuild(ctx, srv, os.Args[2:]); err != nil {
			logrus.WithError(err).Fatal("Build failed")
		}
		return
	}

	logrus.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
		"history": cfg.HistoryPath,
	}).Debug("Sketch layout MCP server starting")

	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		logrus.WithError(err).Fatal("Server error")
	}
}

func printHelp() {
	fmt.Println("sketch-layout-mcp - MCP server that turns webpage sketches into layouts")
	fmt.Println()
	fmt.Println("Usage: sketch-layout-mcp [options]")
	fmt.Println("       sketch-layout-mcp build <image> [filename]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  build            Build one sketch's layout, merge it into the history")
	fmt.Println("                   and, when configured, generate its page")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=path       YAML config file\n", config.EnvConfigPath)
	fmt.Printf("  %s=debug   Log level\n", config.EnvLogLevel)
	fmt.Printf("  %s=path      Layout history file\n", config.EnvHistoryPath)
	fmt.Printf("  %s=0.08  Section gap\n", config.EnvSectionGap)
	fmt.Println()
	fmt.Println("Without a command the server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

// configureLogging sends logs to stderr; stdout is for MCP protocol.
func configureLogging(cfg *config.Config) {
	logrus.SetOutput(os.Stderr)
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func runBuild(ctx context.Context, srv *server.Server, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: sketch-layout-mcp build <image> [filename]")
	}
	imagePath := args[0]
	filename := filepath.Base(imagePath)
	if len(args) > 1 {
		filename = args[1]
	}

	out, err := srv.Pipeline().Run(ctx, filename, imagePath, nil)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
