package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/paperledger/api"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP JSON server",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := buildEngine(opts.cfg)
			if err != nil {
				return err
			}
			defer closer()

			srv := api.NewServer(eng, api.Options{
				Addr:         opts.cfg.Server.Addr(),
				Timeout:      opts.cfg.Server.Timeout(),
				RateLimitRPS: opts.cfg.Server.RateLimitRPS,
			})

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				log.Info().Str("signal", sig.String()).Msg("shutting down")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}
