// Package server exposes a navigator over HTTP and pushes its events to
// websocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/milk9111/gridsystem/grid"
	"github.com/milk9111/gridsystem/levels"
	"github.com/milk9111/gridsystem/navigator"
	"github.com/milk9111/gridsystem/pathfinding"
	"github.com/milk9111/gridsystem/ruletile"
	"github.com/milk9111/gridsystem/scene"
)

type Server struct {
	nav         *navigator.Navigator
	hub         *Hub
	router      chi.Router
	unsubscribe func()
}

func New(nav *navigator.Navigator) *Server {
	s := &Server{nav: nav, hub: NewHub()}
	s.unsubscribe = nav.Subscribe(func(ev navigator.Event) { s.hub.Broadcast(ev) })
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/grid", s.gridInfo)
		r.Get("/navmesh", s.navmesh)
		r.Post("/bake", s.bake)
		r.Get("/path", s.path)
		r.Get("/tiles", s.tiles)

		r.Get("/cells/{x}/{y}", s.getCell)
		r.Put("/cells/{x}/{y}", s.putCell)
		r.Delete("/cells/{x}/{y}", s.deleteCell)

		r.Get("/agents", s.agents)
		r.Post("/agents/{name}/route", s.route)
	})
	r.Get("/ws", s.hub.ServeWS)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Hub() *Hub {
	return s.hub
}

// Close detaches from the navigator and drops websocket clients.
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.Close()
}

// Run serves on addr until ctx is cancelled. When tick is positive agents
// are stepped by step seconds on every tick.
func (s *Server) Run(ctx context.Context, addr string, tick time.Duration, step float64) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	if tick > 0 {
		go func() {
			t := time.NewTicker(tick)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					s.nav.Step(step)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"level":   s.nav.Level(),
		"version": s.nav.Version(),
	})
}

type gridResponse struct {
	Level    string    `json:"level"`
	Kind     grid.Kind `json:"kind"`
	Size     grid.Size `json:"size"`
	CellSize float64   `json:"cell_size"`
	Layers   []string  `json:"layers"`
	Baked    bool      `json:"baked"`
	Dirty    bool      `json:"dirty"`
	Version  uint64    `json:"version"`
}

func (s *Server) gridInfo(w http.ResponseWriter, r *http.Request) {
	geom := s.nav.Geometry()
	respondJSON(w, http.StatusOK, gridResponse{
		Level:    s.nav.Level(),
		Kind:     geom.Kind,
		Size:     geom.Size,
		CellSize: geom.CellSize,
		Layers:   s.nav.Layers().Names(),
		Baked:    s.nav.Baked(),
		Dirty:    s.nav.Dirty(),
		Version:  s.nav.Version(),
	})
}

func (s *Server) navmesh(w http.ResponseWriter, r *http.Request) {
	if !s.nav.Baked() {
		respondError(w, http.StatusConflict, navigator.ErrNotBaked.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.nav.Snapshot())
}

func (s *Server) bake(w http.ResponseWriter, r *http.Request) {
	ev, err := s.nav.Bake()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, ev)
}

// maskParam resolves a comma separated layer list. An empty list does no
// filtering.
func (s *Server) maskParam(raw string) pathfinding.CullingMask {
	if raw == "" {
		return pathfinding.AllMask
	}
	return s.nav.Layers().Mask(strings.Split(raw, ",")...)
}

func (s *Server) path(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	to, err := grid.ParseCoord(q.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid to coordinate")
		return
	}
	closest, _ := strconv.ParseBool(q.Get("closest"))

	// An agent supplies its own start, mask and footprint.
	if agent := q.Get("agent"); agent != "" {
		p, err := s.nav.FindPathFor(agent, to, closest)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}
		respondJSON(w, http.StatusOK, p)
		return
	}
	from, err := grid.ParseCoord(q.Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid from coordinate")
		return
	}
	if !s.nav.Baked() {
		respondError(w, http.StatusConflict, navigator.ErrNotBaked.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.nav.FindPath(from, to, s.maskParam(q.Get("layers")), closest))
}

type tileResponse struct {
	Coord grid.Coord `json:"coord"`
	ruletile.Tile
}

func (s *Server) tiles(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("palette")
	if name == "" {
		name = "stone"
	}
	palette, err := ruletile.LoadPalette(name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	tiles, err := s.nav.Tiles(palette)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	out := make([]tileResponse, 0, len(tiles))
	for c, t := range tiles {
		out = append(out, tileResponse{Coord: c, Tile: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Coord.Y != out[j].Coord.Y {
			return out[i].Coord.Y < out[j].Coord.Y
		}
		return out[i].Coord.X < out[j].Coord.X
	})
	respondJSON(w, http.StatusOK, out)
}

func cellParam(r *http.Request) (grid.Coord, bool) {
	x, err := strconv.Atoi(chi.URLParam(r, "x"))
	if err != nil {
		return grid.Coord{}, false
	}
	y, err := strconv.Atoi(chi.URLParam(r, "y"))
	if err != nil {
		return grid.Coord{}, false
	}
	return grid.C(x, y), true
}

func (s *Server) getCell(w http.ResponseWriter, r *http.Request) {
	c, ok := cellParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid cell coordinate")
		return
	}
	info, err := s.nav.Cell(c)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) putCell(w http.ResponseWriter, r *http.Request) {
	c, ok := cellParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid cell coordinate")
		return
	}
	var p levels.Placement
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid placement body")
		return
	}
	if err := s.nav.Place(c, p); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	info, _ := s.nav.Cell(c)
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) deleteCell(w http.ResponseWriter, r *http.Request) {
	c, ok := cellParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid cell coordinate")
		return
	}
	if !s.nav.Remove(c) {
		respondError(w, http.StatusNotFound, "cell is empty")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) agents(w http.ResponseWriter, r *http.Request) {
	agents := s.nav.Agents()
	if agents == nil {
		agents = []navigator.AgentInfo{}
	}
	respondJSON(w, http.StatusOK, agents)
}

type routeRequest struct {
	To      grid.Coord `json:"to"`
	Closest bool       `json:"closest"`
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid route body")
		return
	}
	p, err := s.nav.Send(chi.URLParam(r, "name"), req.To, req.Closest)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, navigator.ErrUnknownAgent):
		return http.StatusNotFound
	case errors.Is(err, navigator.ErrNotBaked):
		return http.StatusConflict
	case errors.Is(err, scene.ErrOutOfBounds), errors.Is(err, scene.ErrNoLayer), errors.Is(err, levels.ErrInvalidLevel):
		return http.StatusBadRequest
	case errors.Is(err, scene.ErrOccupied):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
