package middleware

import (
	"net/http"

	"github.com/readingbooks/backend/internal/util"

	"github.com/labstack/echo/v4"

	"github.com/readingbooks/backend/pkg/ai"
	oll "github.com/readingbooks/backend/pkg/ai/ollama"
	oai "github.com/readingbooks/backend/pkg/ai/openai"
	"github.com/readingbooks/backend/pkg/graph"
	"github.com/readingbooks/backend/pkg/loader"
	"github.com/readingbooks/backend/pkg/logger"
)

type App struct {
	AiClient    ai.Client
	GraphClient *graph.Client
	Registry    *loader.Registry
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(registry *loader.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			backend := util.GetEnvString("LLM_BACKEND", "ollama")
			var aiClient ai.Client

			switch backend {
			case "openai":
				aiClient = oai.NewClient(oai.NewClientParams{
					ExtractionModel: util.GetEnvString("LLM_MODEL", "gpt-4o-mini"),

					ChatURL: util.GetEnv("OPENAI_URL"),
					ChatKey: util.GetEnv("OPENAI_API_KEY"),
				})
			default:
				client, err := oll.NewClient(oll.NewClientParams{
					ExtractionModel: util.GetEnvString("LLM_MODEL", "llama3.1"),

					BaseURL: util.GetEnv("OLLAMA_URL"),
					ApiKey:  util.GetEnv("OLLAMA_API_KEY"),

					MaxConcurrentRequests: int64(util.GetEnvInt("LLM_PARALLEL_REQ", 15)),
				})
				if err != nil {
					logger.Error("Failed to create Ollama client", "err", err)
					return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
				}
				aiClient = client
			}

			graphClient, err := graph.NewClient(graph.NewClientParams{
				AiClient: aiClient,
				Registry: registry,

				MaxChunkChars: util.GetEnvInt("CHUNK_SIZE", graph.DefaultMaxChunkChars),
				OverlapChars:  util.GetEnvInt("CHUNK_OVERLAP", graph.DefaultOverlapChars),
				MaxParallel:   util.GetEnvInt("CHUNK_PARALLEL", graph.DefaultMaxParallel),
				MaxTries:      util.GetEnvInt("CHUNK_TRIES", graph.DefaultMaxTries),
			})
			if err != nil {
				logger.Error("Failed to create pipeline client", "err", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
			}

			app := &App{
				AiClient:    aiClient,
				GraphClient: graphClient,
				Registry:    registry,
			}
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
