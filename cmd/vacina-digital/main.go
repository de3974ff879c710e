package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/LeviLucena/VacinaDigital/internal/card"
	"github.com/LeviLucena/VacinaDigital/internal/extraction"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("vacina-digital")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		providerName = fs.StringLong("provider", "openai", "Extraction provider: 'openai' or 'gemini'")
		openaiKey    = fs.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openaiModel  = fs.StringLong("openai-model", "gpt-4-turbo", "OpenAI vision model name")
		openaiURL    = fs.StringLong("openai-url", "https://api.openai.com", "OpenAI API base URL")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("VACINA_DIGITAL"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// A missing credential is not fatal: the gateway still runs and answers
	// every extraction request with a configuration error.
	var extractor extraction.Extractor
	var err error
	switch *providerName {
	case "openai":
		apiKey := *openaiKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			slog.Warn("OpenAI API key not configured; extraction requests will fail until one is provided")
		} else {
			slog.Info("Initializing OpenAI extractor...", "model", *openaiModel)
			extractor, err = extraction.NewOpenAI(apiKey, *openaiURL, *openaiModel)
			if err != nil {
				slog.Error("Failed to initialize OpenAI", "error", err)
				os.Exit(1)
			}
		}
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Warn("Gemini API key not configured; extraction requests will fail until one is provided")
		} else {
			slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
			extractor, err = extraction.NewGemini(apiKey, *geminiModel)
			if err != nil {
				slog.Error("Failed to initialize Gemini", "error", err)
				os.Exit(1)
			}
		}
	default:
		slog.Error("Invalid provider", "provider", *providerName, "valid", "openai or gemini")
		os.Exit(1)
	}
	if extractor != nil {
		defer extractor.Close()
	}

	// Single-binary deployment: sessions extract through the in-process
	// gateway service instead of a second HTTP hop.
	service := card.NewService(extractor)
	sessions := card.NewMemoryStore(card.NewServiceClient(service))
	server := card.NewServer(service, sessions)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "provider", *providerName)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
