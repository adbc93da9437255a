package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/directory"
	promexport "github.com/MrEthical07/authgate/metrics/export/prometheus"
	"github.com/MrEthical07/authgate/middleware"
	"github.com/MrEthical07/authgate/sender"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
)

// app is a built engine with its HTTP surface and the resources to release
// on shutdown.
type app struct {
	engine  *authgate.Engine
	handler http.Handler
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func serve(ctx context.Context, fc *fileConfig, dev bool, logger logr.Logger) error {
	var devRedis *miniredis.Miniredis
	if dev {
		var err error
		devRedis, err = miniredis.Run()
		if err != nil {
			return fmt.Errorf("starting dev redis: %w", err)
		}
		defer devRedis.Close()
		fc.Redis = redisConfig{Addrs: []string{devRedis.Addr()}}

		if fc.JWT.Secret == "" && fc.JWT.SecretFile == "" && fc.JWT.PrivateKeyFile == "" {
			secret := make([]byte, 32)
			if _, err := rand.Read(secret); err != nil {
				return err
			}
			fc.JWT.Secret = hex.EncodeToString(secret)
			logger.Info("dev mode: generated signing secret; tokens will not survive a restart")
		}
	}

	a, err := newApp(ctx, fc, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:         fc.Server.Addr,
		Handler:      a.handler,
		ReadTimeout:  fc.Server.ReadTimeout,
		WriteTimeout: fc.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", fc.Server.Addr, "dev", dev)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), fc.Server.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func newApp(ctx context.Context, fc *fileConfig, logger logr.Logger) (*app, error) {
	cfg, err := fc.engineConfig()
	if err != nil {
		return nil, err
	}

	a := &app{}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    fc.Redis.Addrs,
		Password: fc.Redis.Password,
		DB:       fc.Redis.DB,
	})
	a.closers = append(a.closers, func() { _ = rdb.Close() })

	var (
		tenants authgate.TenantProvider
		users   authgate.UserProvider
	)
	if fc.Database.URL != "" {
		pool, err := directory.Connect(ctx, fc.Database.URL)
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, pool.Close)
		tenants = directory.NewPostgresTenants(pool)
		users = directory.NewPostgresUsers(pool)
	} else {
		st, err := directory.NewStaticTenants(fc.Tenants)
		if err != nil {
			return fail(err)
		}
		su, err := directory.NewStaticUsers(fc.Users)
		if err != nil {
			return fail(err)
		}
		tenants, users = st, su
	}

	b := authgate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithTenantProvider(tenants).
		WithUserProvider(users).
		WithLogger(logger)

	senders, err := buildSenders(fc, logger)
	if err != nil {
		return fail(err)
	}
	for ch, s := range senders {
		b.WithCodeSender(ch, s)
	}

	sink, err := auditSink(fc.Audit.Sink, logger)
	if err != nil {
		return fail(err)
	}
	if sink != nil {
		b.WithAuditSink(sink)
	}

	engine, err := b.Build()
	if err != nil {
		return fail(err)
	}
	a.engine = engine
	a.closers = append(a.closers, engine.Close)

	var metrics http.Handler
	if fc.Metrics.Enabled {
		metrics, err = promexport.Handler(promexport.NewCollector(engine))
		if err != nil {
			return fail(err)
		}
	}

	a.handler = newRouter(engine, middleware.Config{
		TenantHeader:      fc.Server.TenantHeader,
		TrustForwardedFor: fc.Server.TrustForwardedFor,
	}, metrics)
	return a, nil
}

func buildSenders(fc *fileConfig, logger logr.Logger) (map[authgate.Channel]authgate.CodeSender, error) {
	out := make(map[authgate.Channel]authgate.CodeSender, len(fc.Senders))
	for name, sc := range fc.Senders {
		ch := authgate.Channel(name)
		if !ch.Valid() {
			return nil, fmt.Errorf("senders: unknown channel %q", name)
		}
		s, err := sender.FromConfig(ch, sc, logger)
		if err != nil {
			return nil, fmt.Errorf("senders.%s: %w", name, err)
		}
		out[ch] = s
	}
	return out, nil
}

func auditSink(kind string, logger logr.Logger) (authgate.AuditSink, error) {
	switch kind {
	case "":
		return nil, nil
	case "log":
		return authgate.NewLogSink(logger), nil
	case "stdout":
		return authgate.NewJSONWriterSink(os.Stdout), nil
	default:
		return nil, fmt.Errorf("audit.sink: unknown sink %q", kind)
	}
}
