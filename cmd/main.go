package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ai-shortlist/infrastructure"
	"ai-shortlist/interfaces"
	"ai-shortlist/shortlist"
)

func main() {
	// Load .env
	_ = godotenv.Load()

	logger, err := newLogger(envBool("LOG_JSON"), envBool("LOG_DEBUG"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	store, err := infrastructure.NewMySQLStore(os.Getenv("DB_DSN"), logger)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}

	completer, err := buildCompleter(ctx, logger)
	if err != nil {
		logger.Fatal("configuring model provider", zap.Error(err))
	}

	extractor := infrastructure.NewDocumentExtractor(logger)
	evaluator := shortlist.NewEvaluator(completer, logger)

	workers := 1
	if raw := os.Getenv("SHORTLIST_WORKERS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			workers = n
		}
	}

	orchestrator := shortlist.NewOrchestrator(store, extractor, evaluator, logger, workers)

	// Async runs are optional; the synchronous endpoints work without the
	// queue.
	var queue interfaces.RunPublisher
	rmq, err := infrastructure.NewRabbitMQ(os.Getenv("RABBITMQ_URL"), logger)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, async shortlisting disabled", zap.Error(err))
	} else {
		defer rmq.Close()
		queue = rmq

		err = rmq.ConsumeRuns(func(req infrastructure.ShortlistRequest) {
			logger.Info("worker processing shortlist request", zap.Uint("job_id", req.JobID))
			result, err := orchestrator.Run(context.Background(), req.JobID)
			if err != nil {
				logger.Error("queued shortlisting run failed",
					zap.Uint("job_id", req.JobID),
					zap.Error(err),
				)
				return
			}
			logger.Info("queued shortlisting run finished",
				zap.Uint("job_id", req.JobID),
				zap.Int("analyzed", result.TotalAnalyzed),
				zap.Int("failed", result.TotalFailed),
			)
		})
		if err != nil {
			logger.Fatal("starting queue consumer", zap.Error(err))
		}
	}

	router := gin.Default()
	interfaces.NewHTTPHandler(router, orchestrator, queue, logger)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	logger.Info("server starting", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// buildCompleter selects the model-inference provider. A missing
// credential is an operator error and aborts startup.
func buildCompleter(ctx context.Context, logger *zap.Logger) (shortlist.Completer, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("AI_PROVIDER")))
	switch provider {
	case "openai":
		return infrastructure.NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_MODEL"))
	case "vertex":
		return infrastructure.NewVertexClient(ctx,
			os.Getenv("VERTEX_PROJECT"),
			os.Getenv("VERTEX_LOCATION"),
			os.Getenv("VERTEX_MODEL"),
		)
	default:
		var models []string
		if raw := os.Getenv("GEMINI_MODELS"); raw != "" {
			for _, m := range strings.Split(raw, ",") {
				if m = strings.TrimSpace(m); m != "" {
					models = append(models, m)
				}
			}
		}
		return infrastructure.NewGeminiClient(os.Getenv("GEMINI_API_KEY"), models, logger)
	}
}

func newLogger(json, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"

	if json {
		encoding = "json"
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "msg",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}
	return cfg.Build()
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes"
}
