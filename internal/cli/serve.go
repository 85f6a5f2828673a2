package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/structkit/schemaloc/pkg/errors"
	"github.com/structkit/schemaloc/pkg/schema"
)

// serveCommand creates the HTTP resolution server command.
func (c *CLI) serveCommand() *cobra.Command {
	flags := &resolveFlags{}
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose schema resolution over HTTP",
		Long: `Serve schema resolution on an HTTP endpoint.

	GET /schemas/{name}/{version}?match={type}

Each request resolves through its own session context, so responses never
leak cached instances across requests. The response body is the resolved
reference graph as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			return c.runServe(cfg, addr)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&addr, "addr", "a", ":8650", "listen address")
	return cmd
}

func (c *CLI) runServe(cfg *Config, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           c.newServeHandler(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	c.Logger.Info("listening", "addr", addr, "paths", cfg.SearchPaths)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

// newServeHandler builds the chi router serving resolution requests.
func (c *CLI) newServeHandler(cfg *Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			l := c.Logger.With("request_id", middleware.GetReqID(req.Context()))
			next.ServeHTTP(w, req.WithContext(withLogger(req.Context(), l)))
		})
	})

	r.Get("/schemas/{name}/{version}", func(w http.ResponseWriter, req *http.Request) {
		c.handleGetSchema(w, req, cfg)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

// schemaResponse is the JSON shape returned for a resolved schema.
type schemaResponse struct {
	Name       string           `json:"name"`
	Version    string           `json:"version"`
	References []schemaResponse `json:"references,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *CLI) handleGetSchema(w http.ResponseWriter, req *http.Request, cfg *Config) {
	name := chi.URLParam(req, "name")
	version := chi.URLParam(req, "version")

	v, err := schema.ParseVersion(version)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidVersion, err, "version"))
		return
	}

	mt := cfg.MatchType()
	if m := req.URL.Query().Get("match"); m != "" {
		mt, err = schema.ParseMatchType(m)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidMatchType, err, "match"))
			return
		}
	}

	// One session context per request: no instance sharing across requests.
	rc, err := c.newContext(cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	key := schema.Key{Name: name, Version: v}
	logger := loggerFromContext(req.Context())
	s, found, err := rc.GetSchema(req.Context(), key, mt)
	if err != nil {
		logger.Warn("resolution failed", "key", key.String(), "err", err)
		status := http.StatusUnprocessableEntity
		if errors.Is(err, errors.ErrCodeInvalidKey) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	if !found {
		// Absence is a soft result, not a resolution error.
		logger.Debug("not found", "key", key.String(), "match", mt.String())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(errorResponse{
			Code:    "NOT_FOUND",
			Message: fmt.Sprintf("schema %s not found", key),
		})
		return
	}

	logger.Debug("resolved", "key", s.Key.String(), "schemas", rc.SchemaCount())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toResponse(s))
}

func toResponse(s *schema.Schema) schemaResponse {
	resp := schemaResponse{
		Name:    s.Key.Name,
		Version: s.Key.Version.String(),
	}
	for _, ref := range s.References {
		resp.References = append(resp.References, toResponse(ref))
	}
	return resp
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    code,
		Message: errors.UserMessage(err),
	})
}
