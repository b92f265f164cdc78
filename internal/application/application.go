package application

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/rawstudio/ticketbot/internal/bot"
	"github.com/rawstudio/ticketbot/internal/config"
	"github.com/rawstudio/ticketbot/internal/database"
	"github.com/rawstudio/ticketbot/internal/discord"
	"github.com/rawstudio/ticketbot/internal/events"
	"github.com/rawstudio/ticketbot/internal/handler"
	"github.com/rawstudio/ticketbot/internal/router"
	"github.com/rawstudio/ticketbot/internal/store"
	"github.com/rawstudio/ticketbot/internal/ticket"
	"github.com/rawstudio/ticketbot/internal/token"
)

// App is the composed bot process: Discord gateway, webhook HTTP server and
// reminder sweep sharing one controller and one store. Everything is
// constructed once here and passed down explicitly.
type App struct {
	cfg       *config.Config
	bot       *bot.Bot
	ctrl      *ticket.Controller
	publisher *events.KafkaPublisher
	httpSrv   *http.Server
	log       *logrus.Entry
}

func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logrus.WithField("component", "app")

	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	st := store.New(db)

	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}

	tokens := token.NewService(cfg.JWTSecret)
	publisher := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopicTicket)
	ctrl := ticket.NewController(st, tokens, discord.NewGateway(session), publisher, cfg,
		logrus.WithField("component", "lifecycle"))

	b := bot.New(session, ctrl, st, cfg, logrus.WithField("component", "bot"))

	selection := handler.NewSelectionHandler(ctrl, cfg.WebhookSecret)
	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.New(selection),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:       cfg,
		bot:       b,
		ctrl:      ctrl,
		publisher: publisher,
		httpSrv:   httpSrv,
		log:       log,
	}, nil
}

// Run starts the gateway, the webhook server and the sweep, then blocks
// until ctx is cancelled and shuts everything down.
func (a *App) Run(ctx context.Context) error {
	if err := a.bot.Open(); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	a.log.Info("discord gateway connected")

	go func() {
		a.log.WithField("addr", a.httpSrv.Addr).Info("webhook server listening")
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.WithError(err).Error("webhook server failed")
		}
	}()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	go a.ctrl.RunSweeper(sweepCtx)

	<-ctx.Done()
	a.log.Info("shutting down")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("http shutdown")
	}
	if err := a.bot.Close(); err != nil {
		a.log.WithError(err).Warn("gateway close")
	}
	if err := a.publisher.Close(); err != nil {
		a.log.WithError(err).Warn("event publisher close")
	}
	return nil
}
