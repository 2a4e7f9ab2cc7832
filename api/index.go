package handler

import (
	"context"
	"net/http"

	"github.com/wadjakorntonsri/shortlink/pkg/app"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
)

var mux http.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Initialize(logger.Config(cfg.Log)); err != nil {
		panic(err)
	}

	// Note: On Vercel, db.sqlite is ephemeral unless DATABASE_URL points at Turso or Postgres
	application, err := app.New(context.Background(), cfg)
	if err != nil {
		panic(err)
	}
	mux = application.Handler
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
