package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	completionx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/agents/completion"
	orchestratorx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/agents/orchestrator"
	capabilityx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/capability"
	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	llmx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/llm"
	memoryx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/memory"
	schedulex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/schedule"
	statex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/state"
	configx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/pkg/config"
	llmclientx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/pkg/llmclient"
	_ "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/pkg/logger/autoload"
	mailerx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/pkg/mailer"
	notifyx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/pkg/notify"
	postgresx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/pkg/postgres"
	serverx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgCfg := configx.MustNew[postgresx.Config]("POSTGRES")
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	notifyCfg := configx.MustNew[notifyx.Config]("NOTIFY")
	smtpCfg := configx.MustNew[mailerx.Config]("SMTP")
	serverCfg := configx.MustNew[serverx.Config]("SERVER")

	db := postgresx.MustNew(*pgCfg)
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("postgres unreachable")
	}

	repo := schedulex.NewRepo(db)
	if err := repo.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("init schedule schema")
	}
	seeded, err := repo.SeedDoctors(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}
	if seeded > 0 {
		log.Info().Int("doctors", seeded).Msg("seeded roster")
	}

	memStore := memoryx.NewBunStore(db)
	if err := memStore.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("init memory schema")
	}

	sessions := statex.NewInMemoryStore()

	notifier, err := notifyx.New(*notifyCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("configure notifier")
	}

	gateway, err := capabilityx.New(capabilityx.Deps{
		DB:        db,
		Repo:      repo,
		Validator: schedulex.NewValidator(),
		Memory:    memStore,
		Mailer:    mailerx.New(*smtpCfg),
		Notifier:  notifier,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build capability gateway")
	}

	models, err := completionx.NewRegistry(ctx, *llmCfg, capabilityx.Catalog())
	if err != nil {
		log.Fatal().Err(err).Msg("build model registry")
	}

	agent, err := orchestratorx.New(sessions, models, gateway, memStore, repo, orchestratorx.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	handler, err := serverx.New(serverx.Deps{
		Agent:     agent,
		Gateway:   gateway,
		Directory: repo,
		LLM:       llmclientx.NewClient(llmCfg.ClientConfigFor(contractx.AgentTypePatient)),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build http handler")
	}

	limiter := serverx.NewRateLimiter(serverCfg.RatePerMinute)
	go sweep(ctx, memStore, sessions, limiter)

	router := serverx.NewRouter(handler, limiter, serverCfg.AllowedOrigins)
	if err := serverx.Run(ctx, *serverCfg, router); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

// sweep reclaims expired conversation state and stale rate-limiter
// clients every hour.
func sweep(ctx context.Context, memory memoryx.Store, sessions statex.Store, limiter *serverx.RateLimiter) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := memory.CleanupExpired(ctx); err != nil {
				log.Warn().Err(err).Msg("memory cleanup failed")
			} else if n > 0 {
				log.Info().Int("records", n).Msg("expired memory cleaned")
			}
			if n, err := sessions.SweepExpired(ctx); err != nil {
				log.Warn().Err(err).Msg("session sweep failed")
			} else if n > 0 {
				log.Info().Int("sessions", n).Msg("expired transcripts swept")
			}
			limiter.Cleanup(time.Now())
		}
	}
}
