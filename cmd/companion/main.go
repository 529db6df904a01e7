// Package main is the entry point for the kokoro companion agent.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	adkagent "google.golang.org/adk/agent"
	"google.golang.org/adk/cmd/launcher"
	"google.golang.org/adk/cmd/launcher/full"

	"github.com/easeaico/project-kokoro/internal/agent"
	"github.com/easeaico/project-kokoro/internal/category"
	"github.com/easeaico/project-kokoro/internal/config"
	"github.com/easeaico/project-kokoro/internal/emotion"
	"github.com/easeaico/project-kokoro/internal/handler"
	"github.com/easeaico/project-kokoro/internal/memory"
	"github.com/easeaico/project-kokoro/internal/mood"
	"github.com/easeaico/project-kokoro/internal/relationship"
	"github.com/easeaico/project-kokoro/internal/repository"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nshutting down...")
		cancel()
		// The launcher may be blocked on stdin; context cancellation cannot
		// interrupt it, so force exit after a short grace period.
		time.Sleep(500 * time.Millisecond)
		os.Exit(0)
	}()

	store, err := repository.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	categories := category.NewService(store.Categories)
	if err := categories.SeedDefaults(ctx); err != nil {
		log.Fatalf("failed to seed category taxonomy: %v", err)
	}
	vocabulary, err := categories.Known(ctx)
	if err != nil {
		log.Fatalf("failed to load category vocabulary: %v", err)
	}

	var embedder memory.Embedder
	if cfg.GoogleAPIKey != "" {
		e, err := memory.NewGenAIEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel)
		if err != nil {
			log.Fatalf("failed to create embedder: %v", err)
		}
		embedder = e
	} else {
		slog.Warn("GOOGLE_API_KEY not set, semantic retrieval disabled")
	}

	memories := memory.NewService(store.Memories, categories, embedder, cfg.TopK, cfg.SimilarityThreshold)
	moods := mood.NewEngine(store.Moods)
	relationships := relationship.NewTracker(store.Relationships, cfg.AdminTrustSeed)
	analyzer, err := emotion.NewAnalyzerForBackend(ctx, cfg.AnalyzerBackend, cfg.GoogleAPIKey, cfg.OpenAIAPIKey, cfg.AnalyzerModel)
	if err != nil {
		log.Fatalf("failed to create sentiment analyzer: %v", err)
	}
	pipeline := emotion.NewPipeline(analyzer, vocabulary, cfg.MemorizeThreshold)
	processor := handler.NewMessageHandler(pipeline, memories, moods, relationships)

	companion, err := agent.NewCompanionAgent(ctx, cfg, agent.Deps{
		Moods:         moods,
		Relationships: relationships,
		Memories:      memories,
		Processor:     processor,
		AdminIDs:      cfg.AdminIDs,
	})
	if err != nil {
		log.Fatalf("failed to initialize agent: %v", err)
	}

	launcherConfig := &launcher.Config{
		AgentLoader: adkagent.NewSingleLoader(companion),
	}
	l := full.NewLauncher()

	if err := l.Execute(ctx, launcherConfig, os.Args[1:]); err != nil {
		if err != context.Canceled && err != context.DeadlineExceeded {
			log.Fatalf("failed to run agent: %v\n\n%s", err, l.CommandLineSyntax())
		}
	}
}
