package main

import (
	"log/slog"
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
)

// startPprof serves the profiling endpoints on their own listener when addr
// is set. It is kept off the API port.
func startPprof(addr string) {
	if addr == "" {
		return
	}
	go func() {
		slog.Info("pprof listener started", "addr", addr)
		if err := http.ListenAndServe(addr, pprofRouter()); err != nil {
			slog.Error("pprof listener stopped", "error", err)
		}
	}()
}

func pprofRouter() *mux.Router {
	h := mux.NewRouter()
	h.Handle("/", http.RedirectHandler("/debug/pprof/", http.StatusTemporaryRedirect))
	h.Handle("/debug/pprof/cmdline", http.HandlerFunc(pprof.Cmdline))
	h.Handle("/debug/pprof/profile", http.HandlerFunc(pprof.Profile))
	h.Handle("/debug/pprof/symbol", http.HandlerFunc(pprof.Symbol))
	h.Handle("/debug/pprof/trace", http.HandlerFunc(pprof.Trace))
	h.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	return h
}
