package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	goredis "github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"partyquiz-client/internal/config"
	"partyquiz-client/internal/infra/memory"
	infrapg "partyquiz-client/internal/infra/postgres"
	infraredis "partyquiz-client/internal/infra/redis"
	"partyquiz-client/internal/session"
	"partyquiz-client/internal/transport/ws"
)

// buildSession wires a session from config: identity store (Postgres or
// Redis when configured, in-memory otherwise), connection manager and
// command caller. The returned cleanup releases the store's resources.
func buildSession(cfg config.Config, endpointFlag string) (*session.Session, func(), error) {
	finalEndpoint := endpointFlag
	if finalEndpoint == "" {
		finalEndpoint = cfg.Service.Endpoint
	}

	cleanup := func() {}
	var store session.IdentityStore = memory.NewIdentityStore()
	switch {
	case cfg.Postgres.URL != "":
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		store = infrapg.NewIdentityStore(db)
		cleanup = func() { _ = db.Close() }
	case cfg.Redis.Addr != "":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = infraredis.NewIdentityStore(client, config.Duration(cfg.Redis.TTL, 0))
		cleanup = func() { _ = client.Close() }
	}

	sess := session.New(session.Options{
		Manager:  ws.NewManager(finalEndpoint),
		Caller:   ws.NewCaller(config.Duration(cfg.Service.CallTimeout, ws.DefaultCallTimeout)),
		Store:    store,
		Limits:   cfg.Limits(),
		QuizName: cfg.Quiz.Name,
	})
	return sess, cleanup, nil
}

// startPump runs the event pump for the current connection in the
// background. The pump returns once the connection is lost; reconnecting
// stays a console decision.
func startPump(ctx context.Context, sess *session.Session) {
	go func() {
		err := sess.Pump(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Printf("disconnected: %v", err)
		fmt.Println("Connection lost. Press enter to reconnect.")
	}()
}

// reconnect acknowledges a lost connection and dials again.
func reconnect(ctx context.Context, sess *session.Session) error {
	sess.AckError()
	if err := sess.Connect(ctx); err != nil {
		return err
	}
	startPump(ctx, sess)
	log.Printf("reconnected")
	return nil
}
