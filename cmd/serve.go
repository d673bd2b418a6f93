package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-arrower/productstore"
)

const shutdownTimeout = 10 * time.Second

// App is started by the `serve` command and shut down on SIGINT or SIGTERM.
type App interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// NewAppFunc builds the App from the loaded configuration.
type NewAppFunc func(ctx context.Context, conf *productstore.Config) (App, error)

// Serve returns a `serve` command, loading the configuration with vip.
// It blocks until the context of the command is done or the process receives SIGINT or SIGTERM.
func Serve(vip *productstore.Viper, newApp NewAppFunc) *cobra.Command {
	var configFile string

	command := &cobra.Command{
		Use:   "serve",
		Short: "Start the http server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configFile != "" {
				vip.SetConfigFile(configFile)

				if err := vip.ReadInConfig(); err != nil {
					return fmt.Errorf("could not read config file: %w", err)
				}
			}

			conf := productstore.Config{}
			if err := vip.Unmarshal(&conf); err != nil {
				return err //nolint:wrapcheck // already wrapped
			}

			app, err := newApp(cmd.Context(), &conf)
			if err != nil {
				return fmt.Errorf("could not initialise: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err = app.Start(ctx); err != nil {
				return errors.Join(fmt.Errorf("could not start: %w", err), app.Shutdown(context.Background()))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "serving on :%d\n", conf.HTTP.Port)

			<-ctx.Done()

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err = app.Shutdown(ctx); err != nil { //nolint:contextcheck // the serving ctx is already done
				return fmt.Errorf("could not shutdown gracefully: %w", err)
			}

			return nil
		},
	}

	command.Flags().StringVarP(&configFile, "config", "c", "", "path to the config file")

	return command
}
