// Package app wires the application together: configuration, database,
// Genkit, pipelines, skill registry, and orchestrator.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/policy-agent/internal/config"
	"github.com/koopa0/policy-agent/internal/llm"
	"github.com/koopa0/policy-agent/internal/orchestrator"
	"github.com/koopa0/policy-agent/internal/policy"
	"github.com/koopa0/policy-agent/internal/skill"
	"github.com/koopa0/policy-agent/internal/storage"
)

// App holds the initialized application components.
// Construct with Setup and release with Close.
type App struct {
	Config *config.Config
	Genkit *genkit.Genkit
	Pool   *pgxpool.Pool

	Embedder  llm.Embedder
	Completer llm.Completer

	Store        *policy.Store
	Ingestor     *policy.Ingestor
	Answerer     *policy.Answerer
	Files        *storage.Local
	Registry     *skill.Registry
	Orchestrator *orchestrator.Orchestrator

	logger    *slog.Logger
	dbCleanup func()
}

// Close releases application resources. Safe to call on a partially
// initialized App.
func (a *App) Close() error {
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	return nil
}
