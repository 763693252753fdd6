package main

import (
	"context"
	"log"
	"net/http"

	httpadapter "github.com/jothelearningguy/alignus/internal/adapters/http"
	"github.com/jothelearningguy/alignus/internal/adapters/llm"
	firestorestore "github.com/jothelearningguy/alignus/internal/adapters/storage/firestore"
	memstore "github.com/jothelearningguy/alignus/internal/adapters/storage/memory"
	"github.com/jothelearningguy/alignus/internal/app/analysis"
	"github.com/jothelearningguy/alignus/internal/app/chat"
	"github.com/jothelearningguy/alignus/internal/app/cooldown"
	"github.com/jothelearningguy/alignus/internal/app/dashboard"
	"github.com/jothelearningguy/alignus/internal/app/goals"
	"github.com/jothelearningguy/alignus/internal/app/lifecycle"
	"github.com/jothelearningguy/alignus/internal/config"
	"github.com/jothelearningguy/alignus/internal/domain"
	"github.com/jothelearningguy/alignus/internal/identity"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// LLM provider: mock, Gemini (Vertex), or OpenAI.
	var (
		classifier domain.SentimentClassifier
		insights   domain.InsightGenerator
	)

	switch cfg.LLMProvider {
	case config.ProviderGemini:
		log.Println("[LLM] Using Gemini (Vertex AI) client")
		gemini, err := llm.NewGeminiClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
		if err != nil {
			log.Fatalf("error initializing Gemini client: %v", err)
		}
		classifier = gemini
		insights = gemini

	case config.ProviderOpenAI:
		log.Println("[LLM] Using OpenAI client")
		oa := llm.NewOpenAIClient(cfg.OpenAIModel)
		classifier = oa
		insights = oa

	default:
		log.Println("[LLM] Using MOCK LLM client")
		mock := llm.NewMockLLM()
		classifier = mock
		insights = mock
	}

	// Storage: Firestore or Memory
	var (
		sessionStore domain.SessionStore
		messageStore domain.MessageStore
		goalStore    domain.GoalStore
		sessionFeed  domain.SessionWatcher
		messageFeed  domain.MessageWatcher
	)

	switch cfg.StorageBackend {
	case "firestore":
		if cfg.GCPProjectID == "" {
			log.Fatal("ALIGNUS_GCP_PROJECT is required for Firestore storage backend")
		}

		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}

		// 1 store, implements all the ports
		sessionStore = fsStore
		messageStore = fsStore
		goalStore = fsStore
		sessionFeed = fsStore
		messageFeed = fsStore

	default:
		log.Println("[STORE] Using in-memory storage")
		mem := memstore.NewStore()
		sessionStore = mem
		messageStore = mem
		goalStore = mem
		sessionFeed = mem
		messageFeed = mem
	}

	// Core services
	gate := cooldown.NewGate(sessionStore)
	analyzer := analysis.NewAnalyzer(insights, messageStore, cfg.CooldownThreshold, cfg.CooldownDuration)
	watcher := analysis.NewWatcher(sessionStore, sessionFeed, messageFeed, analyzer, gate)
	supervisor := analysis.NewSupervisor(ctx, watcher)
	defer supervisor.Close()

	lifecycleSvc := lifecycle.NewService(sessionStore)
	chatSvc := chat.NewService(sessionStore, messageStore, classifier, gate)
	goalsSvc := goals.NewService(goalStore)
	dashboardSvc := dashboard.NewService(messageStore)

	// HTTP server
	handler := httpadapter.NewServer(lifecycleSvc, chatSvc, goalsSvc, dashboardSvc, identity.NewIssuer(), supervisor)

	port := ":" + cfg.Port
	log.Println("Alignus API listening on port:", port)
	if err := http.ListenAndServe(port, handler); err != nil {
		log.Fatal(err)
	}
}
