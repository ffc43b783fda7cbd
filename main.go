package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/analytics"
	"github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/catalog"
	composerx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/composer"
	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	escalationx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/escalation"
	"github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/evidence"
	"github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/generation"
	guardx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/guard"
	"github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/observability"
	"github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/orchestrator"
	"github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/orders"
	recorderx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/recorder"
	statex "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/state"
	"github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/pkg/config"
	logx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/pkg/logger"
	"github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/pkg/openaix"
	"github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/transport"
)

type AppConfig struct {
	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	VectorDBPath     string `envconfig:"VECTOR_DB_PATH"`
	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"fashion_assistant"`
}

func main() {
	logCfg := config.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	appCfg := config.MustNew[AppConfig]("")

	openaiCfg := config.MustNew[openaix.Config]("OPENAI")
	openaiClient := openaix.NewClient(*openaiCfg)
	if openaiClient == nil {
		log.Fatal().Msg("openai client failed to initialize")
	}

	redisCfg := config.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
	store, err := statex.NewUpstashRedisStore(*redisCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("session store failed to initialize")
	}

	metrics := observability.NewMetrics(appCfg.MetricsNamespace)

	guardCfg := config.MustNew[guardx.Config]("GUARD")
	guard := guardx.New(*guardCfg, guardx.WithDegradedHook(func(op string) {
		metrics.DegradedOps.WithLabelValues(op).Inc()
	}))

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(appCfg.DatabaseURL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	vectorDB, err := openVectorDB(appCfg.VectorDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("vector db failed to open")
	}

	retriever, err := evidence.NewChromemRetriever(
		vectorDB,
		evidence.OpenAIEmbeddingFunc(openaiClient, openaiCfg.EmbeddingModel),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("retriever failed to initialize")
	}

	vision := evidence.NewVisionExtractor(openaiClient, openaiCfg.VisionModel)
	generator := generation.NewOpenAIGenerator(openaiClient, generation.Config{
		Model:       openaiCfg.Model,
		MaxTokens:   openaiCfg.MaxCompletionToken,
		Temperature: openaiCfg.Temperature,
	})

	orderStore := orders.NewStore(db)
	browser := catalog.NewBrowser(db)
	sink := analytics.NewSink(db)

	composer := composerx.New(generator, orderStore, browser, guard)
	gate := escalationx.NewGate(buildNotifier())
	rec := recorderx.New(store, sink)

	orch, err := orchestrator.New(store, vision, retriever, composer, gate, rec, guard,
		orchestrator.WithMetrics(metrics))
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator failed to initialize")
	}

	syncCatalog(browser, retriever)

	whatsappCfg := config.MustNew[transport.Config]("WHATSAPP")
	sender := transport.NewGraphSender(*whatsappCfg)
	media := transport.NewMediaFetcher(*whatsappCfg)
	server := transport.NewServer(*whatsappCfg, orch, sender, media)

	log.Info().Str("addr", whatsappCfg.ListenAddr).Msg("listening")
	if err := http.ListenAndServe(whatsappCfg.ListenAddr, server.Router()); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func openVectorDB(path string) (*chromem.DB, error) {
	if path == "" {
		return chromem.NewDB(), nil
	}
	return chromem.NewPersistentDB(path, false)
}

// buildNotifier returns nil when no handoff webhook is configured; the gate
// logs the gap and still swaps in the handoff notice.
func buildNotifier() contractx.Notifier {
	cfg := config.MustNew[escalationx.NotifierConfig]("ESCALATION")
	if cfg.URL == "" {
		log.Warn().Msg("escalation webhook not configured, notifications disabled")
		return nil
	}
	notifier, err := escalationx.NewWebhookNotifier(*cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("escalation notifier failed to initialize")
	}
	return notifier
}

func syncCatalog(browser *catalog.Browser, retriever *evidence.ChromemRetriever) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n, err := browser.SyncIndex(ctx, retriever)
	if err != nil {
		log.Warn().Err(err).Int("indexed", n).Msg("catalog index sync incomplete")
		return
	}
	log.Info().Int("indexed", n).Msg("catalog index synced")
}
