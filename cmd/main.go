// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"qtree-api/internal/api"
	"qtree-api/internal/catalog"
	"qtree-api/internal/config"
	"qtree-api/internal/geoip"
	"qtree-api/internal/logger"
	"qtree-api/internal/memory"
	"qtree-api/internal/metrics"
	"qtree-api/internal/middleware"
	"qtree-api/internal/migrate"
	"qtree-api/internal/store"
	"qtree-api/internal/utils"
)

func main() {
	config.LoadEnvFiles()
	l := logger.Setup()
	l.Debug("log_init_ok")
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat := catalog.New(cfg.Catalog)
	sum, err := cat.Setup(ctx)
	if err != nil {
		l.Error("catalog_setup_error", "err", err)
		os.Exit(1)
	}
	if sum.Built == 0 {
		l.Warn("catalog_empty", "base_dir", cfg.Catalog.BaseDir)
	}
	mon := memory.New(cfg.MemoryLimit)
	l.Info("memory_monitor", "virtual", mon.Memory(), "resident", mon.Resident(), "limit", mon.Limit())

	deps := api.Deps{
		Catalog:    cat,
		Monitor:    mon,
		CacheTTL:   cfg.CacheTTL,
		NearRadius: cfg.NearRadius,
		AdminToken: cfg.AdminToken,
	}

	// 响应缓存：优先 Redis，不可用时回退进程内 LRU
	if rc := utils.OpenRedisFromEnv(); rc != nil {
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
			deps.Cache = api.NewLRU(4096)
		} else {
			l.Info("redis_ping_ok")
			deps.Cache = api.NewRedisCache(rc)
		}
		defer rc.Close()
	} else {
		l.Info("redis_disabled")
		deps.Cache = api.NewLRU(4096)
	}

	if cfg.StatsDBEnable {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			l.Error("db_ping_error", "err", err)
		} else if err := migrate.EnsureSchema(ctx, db); err != nil {
			l.Error("schema_error", "err", err)
		} else {
			l.Info("db_open_ok")
			deps.Stats = store.AttachDB(db)
		}
	}

	if _, err := os.Stat(cfg.GeoIPPath); err == nil {
		if gr, err := geoip.Open(cfg.GeoIPPath); err == nil {
			defer gr.Close()
			deps.Locator = gr
		} else {
			l.Error("geoip_open_error", "path", cfg.GeoIPPath, "err", err)
		}
	} else {
		l.Debug("geoip_skip", "path", cfg.GeoIPPath)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, api.BuildRoutes(deps)))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler, cfg.RateLimitEnabled, cfg.RateLimitQPS)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	if cfg.TLS.Enable {
		if err := utils.EnsureSelfSignedCert(cfg.TLS.CertPath, cfg.TLS.KeyPath); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		if cfg.TLS.Redirect {
			go redirectToHTTPS(cfg.TLS.RedirectAddr, cfg.Addr)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLS.CertPath)
		err = s.ListenAndServeTLS(cfg.TLS.CertPath, cfg.TLS.KeyPath)
	} else {
		l.Info("listening", "addr", cfg.Addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("listen_error", "err", err)
	}
	cat.Shutdown()
}

// redirectToHTTPS：HTTP 请求 301 到 HTTPS 服务端口
func redirectToHTTPS(redirAddr, httpsAddr string) {
	l := logger.L()
	port := strings.TrimPrefix(httpsAddr, ":")
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if i := strings.LastIndex(host, ":"); i != -1 {
			host = host[:i]
		}
		if port != "" {
			host += ":" + port
		}
		target := "https://" + host + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		l.Debug("http_redirect", "from", r.Host, "to", target)
	})
	l.Info("http_redirect_listening", "addr", redirAddr, "to", "https"+httpsAddr)
	_ = http.ListenAndServe(redirAddr, logger.AccessMiddleware(l)(h))
}
