// Package api exposes settlement.Settlement over HTTP: a chi.Router
// wrapping the engine's state-mutating operations and read-only
// queries, plus a paginated audit query backed by database.Database.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/wlvchandler/rollup-settlement-core/database"
	"github.com/wlvchandler/rollup-settlement-core/settlement"
)

type Server struct {
	r    chi.Router
	log  *slog.Logger
	db   *database.Database
	eng  *settlement.Settlement
	opts ServerOpts
}

type ServerOpts struct {
	Logger     *slog.Logger
	Database   *database.Database
	Settlement *settlement.Settlement
	Port       string
}

func NewServer(opts ServerOpts) (Server, error) {
	s := Server{
		r:    chi.NewRouter(),
		log:  opts.Logger,
		db:   opts.Database,
		eng:  opts.Settlement,
		opts: opts,
	}
	return s, nil
}

func (s *Server) StartServer() {
	s.log.Info("Server started, listening on http://localhost:" + s.opts.Port)
	s.routes()
	if err := http.ListenAndServe(":"+s.opts.Port, s.r); err != nil {
		s.log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

// Response is the envelope every handler writes a body as.
type Response struct {
	StatusCode int         `json:"status_code"`
	Err        bool        `json:"error"`
	Response   interface{} `json:"response"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Fprintf(w, "%s", err.Error())
	}
}

func ERROR(w http.ResponseWriter, statusCode int, err error) {
	w.WriteHeader(statusCode)
	encErr := json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
	if encErr != nil {
		fmt.Fprintf(w, "%s", encErr.Error())
	}
}

// statusFor maps an error returned by a settlement.Settlement method to
// an HTTP status: precondition violations are the caller's fault (400),
// everything else is ours (500).
func statusFor(err error) int {
	if errorsIsPrecondition(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
