package api

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fireaq/fireaq/internal/aqi"
	"github.com/fireaq/fireaq/internal/firms"
	"github.com/fireaq/fireaq/internal/imagegen"
	"github.com/fireaq/fireaq/internal/report"
	"github.com/fireaq/fireaq/internal/store"
)

//go:embed templates/*
var templateFS embed.FS

type Server struct {
	store           *store.Store
	port            string
	scale           aqi.Scale
	city            string
	center          *firms.Coordinate
	fireWindowHours int
	narrator        *report.Narrator
	cardCache       *imagegen.Cache
	tmpl            *template.Template
}

func NewServer(st *store.Store, port string, scale aqi.Scale, city string, center *firms.Coordinate, fireWindowHours int) *Server {
	funcs := template.FuncMap{
		"deref": func(f *float64) float64 {
			if f == nil {
				return 0
			}
			return *f
		},
	}
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

	// The narrator is optional; without an API key the plain summary is served.
	var narrator *report.Narrator
	if n, err := report.NewNarrator(); err != nil {
		log.Printf("narrative generation disabled: %v", err)
	} else {
		narrator = n
	}

	return &Server{
		store:           st,
		port:            port,
		scale:           scale,
		city:            city,
		center:          center,
		fireWindowHours: fireWindowHours,
		narrator:        narrator,
		cardCache:       imagegen.NewCache("data/cards"),
		tmpl:            tmpl,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/aqi-card.png", s.handleAQICard)
	mux.HandleFunc("/api/current", s.handleAPICurrent)
	mux.HandleFunc("/api/fires", s.handleAPIFires)
	mux.HandleFunc("/api/summary", s.handleAPISummary)
	mux.HandleFunc("/api/forecast", s.handleAPIForecast)
	mux.HandleFunc("/api/history", s.handleAPIHistory)
	mux.HandleFunc("/api/daily", s.handleAPIDaily)
	mux.HandleFunc("/api/detections", s.handleAPIDetections)
	mux.HandleFunc("/api/data", s.handleAPIData)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
