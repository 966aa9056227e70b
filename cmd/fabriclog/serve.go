package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/vivaneiona/fabriclog"
	"github.com/vivaneiona/fabriclog/web"
)

var (
	serveAddr  string
	serveQuiet bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extraction and save form",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		sink, err := a.settings.NewSink(ctx, a.log)
		if err != nil {
			return err
		}

		store := fabriclog.NewSessionStore(a.extractor, sink, fabriclog.WithSessionLogger(a.log))
		srv, err := web.New(store, web.Config{
			MaxImagePx: a.settings.MaxImagePx,
			FetchPages: a.settings.FetchPages,
			Log:        a.log,
		})
		if err != nil {
			return err
		}

		addr := a.settings.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		if !serveQuiet {
			figure.NewFigure("fabriclog", "small", true).Print()
			fmt.Fprintf(cmd.OutOrStdout(), "\nForm at http://localhost%s/\n\n", displayAddr(addr))
		}

		errc := make(chan error, 1)
		go func() { errc <- srv.Start(addr) }()

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			a.log.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().BoolVarP(&serveQuiet, "quiet", "q", false, "skip the startup banner")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default FABRICLOG_ADDR or :8080)")
	rootCmd.AddCommand(serveCmd)
}

// displayAddr turns a listen address into the host part of a local URL.
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return addr
	}
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ":" + addr
}
