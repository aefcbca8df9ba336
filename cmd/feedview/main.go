package main

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/feedview/internal/feedapi"
	"github.com/example/feedview/internal/gateway"
	"github.com/example/feedview/internal/platform/analytics"
	"github.com/example/feedview/internal/platform/auth"
	"github.com/example/feedview/internal/platform/config"
	"github.com/example/feedview/internal/platform/httpserver"
	"github.com/example/feedview/internal/platform/logging"
	"github.com/example/feedview/internal/platform/natsconn"
	"github.com/example/feedview/internal/platform/run"
	"github.com/example/feedview/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	gwCfg, err := gateway.LoadConfig()
	if err != nil {
		log.Error("load gateway config", zap.Error(err))
		run.Exit(1)
	}

	client := feedapi.New(gwCfg.FeedAPIBaseURL)

	// NATS is optional; without it the analytics publisher is a no-op.
	var js nats.JetStreamContext
	if gwCfg.NATSURL != "" {
		nc, err := natsconn.Connect(natsconn.Options{URL: gwCfg.NATSURL})
		if err != nil {
			log.Error("connect nats", zap.Error(err))
			run.Exit(1)
		}
		defer nc.Close()
		js, err = nc.JetStream()
		if err != nil {
			log.Error("init jetstream", zap.Error(err))
			run.Exit(1)
		}
	}
	events := analytics.New(js, log)

	reg := session.NewRegistry(client, gwCfg.SessionTTL, log)

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc: func() error { return client.Health(context.Background()) },
	})

	verifier := auth.TokenVerifier{Secret: []byte(gwCfg.JWTSecret)}
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))

		r.Post("/v1/views/{post_id}", gateway.OpenView(reg, events))
		r.Delete("/v1/views/{view_id}", gateway.CloseView(reg))
		r.Get("/v1/views/{view_id}/comments", gateway.GetComments(reg))
		r.Post("/v1/views/{view_id}/comments/load", gateway.LoadComments(reg, events))
		r.Post("/v1/views/{view_id}/comments", gateway.CreateReply(reg, events))
		r.Put("/v1/views/{view_id}/reaction", gateway.SetReaction(reg, events))
		r.Delete("/v1/views/{view_id}/reaction", gateway.ClearReaction(reg, events))
		r.Post("/v1/views/{view_id}/reaction/toggle", gateway.ToggleReaction(reg, events))

		r.Get("/v1/feed", gateway.ListFeed(client))
		r.Post("/v1/feed", gateway.CreateFeedPost(client))
		r.Get("/v1/search/posts", gateway.SearchPosts(client, events))
		r.Get("/v1/me", gateway.GetCurrentUser(client))
		r.Get("/v1/users/{user_id}", gateway.GetUserProfile(client))
		r.Get("/v1/users/{user_id}/posts", gateway.ListUserPosts(client))
		r.Get("/v1/chats", gateway.ListChats(client))
		r.Get("/v1/chats/dm/{other_user_id}/messages", gateway.ListDirectMessages(client))
		r.Post("/v1/chats/dm/{other_user_id}/messages", gateway.SendDirectMessage(client))
		r.Post("/v1/media/upload-url", gateway.GenerateUploadURL(client))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}
