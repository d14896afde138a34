package main

import (
	"context"
	"log"
	"net/http"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/x402-demos/agent-launchpad/api"
	"github.com/x402-demos/agent-launchpad/api/handlers"
	"github.com/x402-demos/agent-launchpad/chain"
	"github.com/x402-demos/agent-launchpad/config"
	"github.com/x402-demos/agent-launchpad/core"
	"github.com/x402-demos/agent-launchpad/runtime"
	"github.com/x402-demos/agent-launchpad/storage"
	"github.com/x402-demos/agent-launchpad/tools"
	"github.com/x402-demos/agent-launchpad/x402"
)

func main() {
	cfg := config.Load()

	// Messaging first: an embedded broker for single-binary deployments,
	// otherwise connect to an external one.
	if cfg.EmbedNATS {
		startEmbeddedNATS()
	}
	core.SetupNATS(cfg.NATSURL)
	defer core.NatsBrokerInstance.Close()

	db, err := storage.Open(storage.DefaultConfig(cfg.DataDir))
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer db.Close()

	agents := storage.NewAgentStore(db)
	purchases := storage.NewPurchaseStore(db)
	stock := storage.NewStockStore(db)

	// Chain access is optional: without it the launchpad still serves free
	// agents, but funding and paid purchases report errors.
	var transferer chain.Transferer
	var funder handlers.Funder
	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	chainClient, err := chain.NewClient(dialCtx, cfg.ChainRPCURL, cfg.ChainID, cfg.MasterKey)
	cancel()
	if err != nil {
		log.Printf("Warning: chain unavailable: %v (transfers disabled)", err)
	} else {
		defer chainClient.Close()
		transferer = chainClient
		funder = chainClient
	}
	payer := x402.NewClient(transferer)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	registry := tools.NewRegistry()
	tools.RegisterHTTPTool(registry, httpClient)
	tools.RegisterLLMTool(registry, cfg.OpenAIKey)
	tools.RegisterSearchTool(registry, cfg.SerpKey)
	tools.RegisterGitHubTools(registry, httpClient)
	tools.RegisterCoinbaseTool(registry, httpClient)
	tools.RegisterAmadeusTools(registry, httpClient, cfg.AmadeusClientID, cfg.AmadeusClientSecret)
	tools.RegisterStoreTools(registry, purchases, stock)

	rt := runtime.New(registry, transferer, payer, stock, cfg.StoreBaseURL)
	h := handlers.New(agents, purchases, stock, rt, registry, funder, core.NatsBrokerInstance)

	log.Printf("Agent launchpad listening on :%d", cfg.Port)
	if err := api.StartServer(cfg.Port, h); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func startEmbeddedNATS() {
	ns, err := natsserver.NewServer(&natsserver.Options{Port: 4222})
	if err != nil {
		log.Printf("Warning: failed to create embedded NATS server: %v", err)
		return
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		log.Println("Warning: embedded NATS server not ready, continuing without it")
	}
}
