package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"querymind/adapters/fallback"
	"querymind/adapters/llm"
	"querymind/adapters/postgres"
	"querymind/app"
	"querymind/domain/anomaly"
	"querymind/domain/core"
	"querymind/domain/result"
	"querymind/internal"
	"querymind/internal/cache"
	"querymind/internal/config"
	"querymind/ui"
)

// demoSchema describes the apple-store transactions dataset the seed
// command creates. A deployment over another dataset swaps this descriptor.
func demoSchema() *result.Schema {
	return &result.Schema{
		Table: "transactions",
		Columns: []result.Column{
			{Name: "id", Type: result.TypeInteger},
			{Name: "product_id", Type: result.TypeInteger},
			{Name: "product_name", Type: result.TypeText},
			{Name: "category", Type: result.TypeText},
			{Name: "region", Type: result.TypeText},
			{Name: "qty_sold", Type: result.TypeInteger},
			{Name: "unit_price", Type: result.TypeReal},
			{Name: "revenue", Type: result.TypeReal},
			{Name: "notes", Type: result.TypeText},
			{Name: "ts", Type: result.TypeDate},
		},
	}
}

func main() {
	// Load .env if present; real deployments use environment variables.
	_ = godotenv.Load()

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	logger := internal.NewDefaultLogger()

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	schema := demoSchema()
	dataset := core.DatasetID(schema.Table)

	llmConfig := llm.Config{
		Model:       appConfig.AI.Model,
		APIKey:      appConfig.AI.APIKey,
		BaseURL:     appConfig.AI.BaseURL,
		Temperature: appConfig.AI.Temperature,
		MaxTokens:   appConfig.AI.MaxTokens,
		Timeout:     appConfig.AI.Timeout,
	}

	generator, err := llm.NewGeneratorAdapter(llmConfig)
	if err != nil {
		log.Fatalf("failed to create SQL generator: %v", err)
	}

	executor := postgres.NewExecutor(db, appConfig.Engine.ExecutorTimeout)
	statistics, err := postgres.NewStatisticsReader(db, schema.Table, appConfig.Engine.ExecutorTimeout)
	if err != nil {
		log.Fatalf("failed to create statistics reader: %v", err)
	}

	fallbackValidator := fallback.NewValidator(appConfig.Engine.FallbackVocabulary)
	validator, err := llm.NewValidatorAdapter(llmConfig, fallbackValidator, statistics)
	if err != nil {
		log.Fatalf("failed to create semantic validator: %v", err)
	}

	detector := anomaly.NewDetector(anomaly.Config{
		CoverageFloor: appConfig.Engine.CoverageFloor,
	})

	cacheManager, err := cache.NewManager(core.SystemClock{}, cache.Config{
		MaxEntries: appConfig.Engine.CacheMaxEntries,
	})
	if err != nil {
		log.Fatalf("failed to create cache manager: %v", err)
	}

	service := app.NewReflectionService(generator, executor, validator, detector, cacheManager, logger)

	gin.SetMode(appConfig.Server.GinMode)
	server := ui.NewServer(service, schema, dataset)
	if err := server.Run(appConfig.Server.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
