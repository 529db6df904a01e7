// Package main is the entry point for the kokoro memory and mood agent.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/easeaico/project-kokoro/internal/category"
	"github.com/easeaico/project-kokoro/internal/config"
	"github.com/easeaico/project-kokoro/internal/emotion"
	"github.com/easeaico/project-kokoro/internal/handler"
	"github.com/easeaico/project-kokoro/internal/memory"
	"github.com/easeaico/project-kokoro/internal/mood"
	"github.com/easeaico/project-kokoro/internal/relationship"
	"github.com/easeaico/project-kokoro/internal/repository"
	"github.com/easeaico/project-kokoro/internal/tool"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	senderID := flag.String("sender", "console", "sender id attached to typed messages")
	privileged := flag.Bool("admin", false, "treat the sender as privileged")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nshutting down...")
		cancel()
		// The REPL may be blocked on stdin; give in-flight work a moment
		// then exit.
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
		slog.Warn("GOOGLE_API_KEY not set, semantic search disabled")
	}

	memories := memory.NewService(store.Memories, categories, embedder, cfg.TopK, cfg.SimilarityThreshold)
	moods := mood.NewEngine(store.Moods)
	relationships := relationship.NewTracker(store.Relationships, cfg.AdminTrustSeed)

	analyzer, err := emotion.NewAnalyzerForBackend(ctx, cfg.AnalyzerBackend, cfg.GoogleAPIKey, cfg.OpenAIAPIKey, cfg.AnalyzerModel)
	if err != nil {
		log.Fatalf("failed to create sentiment analyzer: %v", err)
	}
	pipeline := emotion.NewPipeline(analyzer, vocabulary, cfg.MemorizeThreshold)

	h := handler.NewMessageHandler(pipeline, memories, moods, relationships)
	toolset := tool.NewMemoryToolset(memories, categories, *senderID)

	fmt.Printf("kokoro ready (sender=%s admin=%v backend=%s), type a message or /quit\n",
		*senderID, *privileged, cfg.AnalyzerBackend)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}
		if line == "/ping" {
			if err := store.Ping(ctx); err != nil {
				fmt.Printf("store unreachable: %v\n", err)
			} else {
				fmt.Println("store ok")
			}
			continue
		}
		if strings.HasPrefix(line, "/") {
			runCommand(ctx, toolset, line)
			continue
		}

		reply := h.Handle(ctx, line, *senderID, *privileged)
		printReply(reply)
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("stdin read failed: %v", err)
	}
}

// runCommand handles the REPL's slash commands: /tools lists the memory
// toolset, /call <name> <json-args> dispatches one invocation.
func runCommand(ctx context.Context, toolset *tool.MemoryToolset, line string) {
	fields := strings.SplitN(line, " ", 3)
	switch fields[0] {
	case "/tools":
		decls, err := toolset.Declarations(ctx)
		if err != nil {
			fmt.Printf("failed to list tools: %v\n", err)
			return
		}
		for _, d := range decls {
			fmt.Printf("%s - %s\n", d.Name, d.Description)
		}
	case "/call":
		if len(fields) < 2 {
			fmt.Println("usage: /call <tool> [json-args]")
			return
		}
		args := "{}"
		if len(fields) == 3 {
			args = fields[2]
		}
		result, err := toolset.Dispatch(ctx, fields[1], json.RawMessage(args))
		if err != nil {
			fmt.Printf("tool call failed: %v\n", err)
			return
		}
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Printf("failed to encode result: %v\n", err)
			return
		}
		fmt.Println(string(out))
	default:
		fmt.Println("unknown command; try /tools, /call, or /quit")
	}
}

func printReply(reply handler.Reply) {
	if !reply.Respond {
		fmt.Printf("[silent] mood=%s tone=%s\n", reply.Mood.PrimaryMood, reply.Tone)
		return
	}
	fmt.Printf("mood=%s intensity=%.2f tone=%s\n", reply.Mood.PrimaryMood, reply.Mood.MoodIntensity, reply.Tone)
	fmt.Printf("  style: %s\n", reply.Instruction)
	if reply.MemoryID != nil {
		fmt.Printf("  memorized as #%d\n", *reply.MemoryID)
	}
	if reply.Degraded {
		fmt.Println("  (degraded: analysis unavailable)")
	}
}
