package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wiki-mcp/wiki-mcp-go/internal/config"
	"github.com/wiki-mcp/wiki-mcp-go/mwapi"
	"github.com/wiki-mcp/wiki-mcp-go/wikitools"
)

func newRootCmd() *cobra.Command {
	var flags config.Config

	cmd := &cobra.Command{
		Use:     "wiki-mcp",
		Short:   "MCP server exposing MediaWiki search, read and edit tools",
		Version: wikitools.ServerVersion,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&flags.APIURL, "api-url", "", "MediaWiki api.php endpoint URL (env MW_API_ENDPOINT)")
	cmd.Flags().StringVar(&flags.Username, "username", "", "wiki username for authenticated edits (env MW_USERNAME)")
	cmd.Flags().StringVar(&flags.Password, "password", "", "wiki password (env MW_PASSWORD)")
	cmd.Flags().StringVar(&flags.ListenAddr, "listen", "", "serve MCP over HTTP on this address instead of stdio")
	cmd.Flags().StringVar(&flags.TLSCertFile, "tls-cert", "", "TLS certificate file for the HTTP listener")
	cmd.Flags().StringVar(&flags.TLSKeyFile, "tls-key", "", "TLS key file for the HTTP listener")

	return cmd
}

func run(ctx context.Context, flags config.Config) error {
	// Best-effort .env load; never overrides already-set variables.
	_ = godotenv.Load()

	cfg, err := config.Resolve(flags)
	if err != nil {
		return err
	}

	client, err := mwapi.NewClient(cfg.APIURL,
		mwapi.WithUserAgent(wikitools.ServerName+"/"+wikitools.ServerVersion),
		mwapi.WithCredentials(cfg.Username, cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("building API client: %w", err)
	}

	// A failed startup login keeps the server alive in read-only capability.
	if cfg.Anonymous() {
		log.Info().Msg("no credentials configured, running anonymously")
	} else if _, err := client.Login(ctx); err != nil {
		log.Warn().Err(err).Msg("login failed, continuing without authentication")
	} else {
		log.Info().Str("username", cfg.Username).Msg("logged in")
	}

	srv := wikitools.New(client)

	if cfg.ListenAddr != "" {
		return serveHTTP(ctx, cfg, srv)
	}

	log.Info().Str("endpoint", cfg.APIURL).Msg("serving MCP over stdio")
	return srv.ServeStdio()
}

func serveHTTP(ctx context.Context, cfg config.Config, srv *wikitools.Server) error {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))
	r.Handle("/mcp", srv.StreamableHTTPHandler())

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			log.Info().Str("addr", cfg.ListenAddr).Msg("serving MCP over HTTPS")
			serverErrors <- httpSrv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			log.Info().Str("addr", cfg.ListenAddr).Msg("serving MCP over HTTP")
			serverErrors <- httpSrv.ListenAndServe()
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("could not stop server gracefully")
			return httpSrv.Close()
		}
		return nil
	}
}
