package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/codeplay/internal/logging"
	"github.com/conneroisu/codeplay/internal/playground"
	"github.com/conneroisu/codeplay/internal/server"
	"github.com/conneroisu/codeplay/internal/snippet"
	"github.com/conneroisu/codeplay/internal/storage"
	"github.com/conneroisu/codeplay/internal/validation"
	"github.com/conneroisu/codeplay/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the playground server",
	Long: `Start the playground: an editor page, a sandboxed live preview and a
console, served over HTTP with live updates over a WebSocket.

With --source the editor follows a file on disk. Every save replaces the
editor contents and re-renders the preview.

Examples:
  codeplay serve                       # Serve on localhost:8080 and open a browser
  codeplay serve --port 3000 --no-open # Custom port, no browser
  codeplay serve --source demo.jsx     # Mirror demo.jsx into the editor
  codeplay serve --storage sqlite      # Keep the snippet in a SQLite database`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("no-open", false, "Don't open a browser automatically")
	serveCmd.Flags().String("source", "", "File whose contents drive the editor")
	serveCmd.Flags().String("storage", "", "Storage driver (memory, file, sqlite)")
	serveCmd.Flags().String("storage-path", "", "Storage file location")

	AddFlagValidation(serveCmd.Flags(), "port", ValidatePort)
	AddFlagValidation(serveCmd.Flags(), "source", ValidateFileExists)
	AddFlagValidation(serveCmd.Flags(), "storage", ValidateOneOf(storage.DriverMemory, storage.DriverFile, storage.DriverSQLite))

	bindFlags(serveCmd, map[string]string{
		"port":         "server.port",
		"host":         "server.host",
		"source":       "playground.source",
		"storage":      "storage.driver",
		"storage-path": "storage.path",
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noOpen, _ := cmd.Flags().GetBool("no-open"); noOpen {
		cfg.Server.Open = false
	}

	logger := newLogger(cmd)

	kv, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", cfg.Storage.Driver, err)
	}
	defer kv.Close()

	srv := server.New(server.Options{Config: cfg, KV: kv, Logger: logger})
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting playground: %w", err)
	}

	if cfg.Playground.Source != "" {
		fw, err := watchSource(ctx, srv.Session(), cfg.Playground.Source, logger)
		if err != nil {
			return err
		}
		defer fw.Stop()
	}

	return srv.ListenAndServe(ctx, func(addr string) {
		url := cfg.Server.URL()
		fmt.Fprintf(cmd.OutOrStdout(), "Playground running at %s\n", url)
		if !cfg.Server.Open {
			return
		}
		if err := server.OpenBrowser(url); err != nil {
			logger.Warn(ctx, err, "Could not open browser", "url", url)
		}
	})
}

// watchSource mirrors path into the session. The file's extension, when
// recognised, also selects the editor language.
func watchSource(ctx context.Context, session *playground.Session, path string, logger logging.Logger) (*watcher.FileWatcher, error) {
	fw, err := watcher.NewFileWatcher(path, watcher.DefaultDelay, logger)
	if err != nil {
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}

	lang := snippet.ParseLanguage(strings.TrimPrefix(filepath.Ext(path), "."))
	fw.AddHandler(func(event watcher.ChangeEvent, contents string) error {
		if lang.Supported() {
			session.SetLanguage(lang)
		}
		session.Edit(validation.SanitizeInput(contents))
		logger.Debug(ctx, "Source file changed", "path", event.Path, "event", event.Type.String())
		return nil
	})

	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return nil, err
	}
	return fw, nil
}
