package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

/**
 * @file: http.go
 * @description: http server
 */

type Http struct {
	Host            string
	Port            int
	Mode            string
	ContextPath     string
	ExternalBaseURL string `mapstructure:"externalBaseUrl"`
	ExposeMetrics   bool
	AccessLog       bool
	ReadTimeout     int
	WriteTimeout    int
	IdleTimeout     int
	ShutdownTimeout int
	TLS             TLS
	Auth            Auth
}

type TLS struct {
	CertFile string
	KeyFile  string
}

type Auth struct {
	SecretKey    string
	AccessExpire time.Duration
}

// NewHttp starts the http server and returns a shutdown hook.
func NewHttp(cfg Http, engine *gin.Engine) func() {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	go func() {
		fmt.Printf("[Init] http server start at: %s\n", srv.Addr)
		var err error
		if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
			err = srv.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("[Error] http server error: %v\n", err)
			os.Exit(1)
		}
	}()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	return createShutdownHook(srv, cfg.ShutdownTimeout, sc)
}

func createShutdownHook(srv *http.Server, shutdownTimeout int, sc chan os.Signal) func() {
	return func() {
		<-sc
		if shutdownTimeout <= 0 {
			shutdownTimeout = 10
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(shutdownTimeout)*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("[Error] http server shutdown: %v\n", err)
		}
		fmt.Println("[Exit] http server stopped")
	}
}
