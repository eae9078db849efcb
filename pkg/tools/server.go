package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/core/config"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/emr"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/registry"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/client"
)

// Server dispatches tool calls to the analytics layer over HTTP.
type Server struct {
	registry *registry.Registry
	router   *mux.Router
	logger   *log.Entry
}

// NewServer wires the tool routes against a client registry.
func NewServer(reg *registry.Registry) *Server {
	s := &Server{
		registry: reg,
		router:   mux.NewRouter(),
		logger:   log.WithField("component", "dispatch"),
	}
	s.router.HandleFunc("/tools", s.handleList).Methods(http.MethodGet)
	s.router.HandleFunc("/tools/{tool}", s.handleTool).Methods(http.MethodPost)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on the configured address until ctx is cancelled.
func Start(ctx context.Context, conf config.DispatchConfig, reg *registry.Registry) error {
	listenAddr := fmt.Sprintf("%s:%d", conf.Address, conf.Port)
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return errors.WithMessage(err, "cannot open listening address "+listenAddr)
	}

	server := http.Server{Handler: NewServer(reg)}

	log.WithField("address", listenAddr).Info("Tool dispatch server listening")
	go func() {
		<-ctx.Done()
		if err := server.Close(); err != nil {
			log.WithError(err).Error("Could not close tool dispatch server")
		}
	}()

	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(toolHandlers))
	for name := range toolHandlers {
		names = append(names, name)
	}
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": names})
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["tool"]
	handler, ok := toolHandlers[name]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown tool %q", name), http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "could not read request body", http.StatusBadRequest)
		return
	}

	var base struct {
		Server string `json:"server"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &base); err != nil {
			http.Error(w, "request body is not valid JSON", http.StatusBadRequest)
			return
		}
	}

	c, err := s.registry.GetOrDefault(base.Server)
	if err != nil {
		s.writeError(w, name, err)
		return
	}

	result, err := handler(r.Context(), c, body)
	if err != nil {
		s.writeError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeError renders any taxonomy error as a short plain-text message
// with a status that reflects whose fault it was.
func (s *Server) writeError(w http.ResponseWriter, tool string, err error) {
	status := http.StatusInternalServerError

	var confErr *registry.ConfigurationError
	var notFound *client.NotFoundError
	var statusErr *client.HTTPStatusError
	var validationErr *client.ValidationError
	var bootstrapErr *emr.BootstrapStateError
	switch {
	case errors.As(err, &confErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &statusErr), errors.As(err, &validationErr), errors.As(err, &bootstrapErr):
		status = http.StatusBadGateway
	}

	s.logger.WithError(err).WithField("tool", tool).Warn("Tool call failed")
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Could not encode tool response")
	}
}
