package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/keycustody/pkg/authenticator"
	"github.com/doodlesbykumbi/keycustody/pkg/config"
	"github.com/doodlesbykumbi/keycustody/pkg/datakey"
	"github.com/doodlesbykumbi/keycustody/pkg/db"
	"github.com/doodlesbykumbi/keycustody/pkg/keys"
	"github.com/doodlesbykumbi/keycustody/pkg/server"
	"github.com/doodlesbykumbi/keycustody/pkg/server/endpoints"
	gormstore "github.com/doodlesbykumbi/keycustody/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/keycustody/pkg/token"
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if p, err := strconv.Atoi(defaultPort()); err == nil {
		return p
	}
	return 8000
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the key custody API server",
	Long: `Run the key custody API server

To run the server requires DATABASE_URL and a token secret, either from
CUSTODY_TOKEN_SECRET or token_secret in custody.yml. When CUSTODY_DATA_KEY is
set, newly generated key material is wrapped with it before being stored.

By default, database migrations are run on startup. Use --no-migrate to skip.
With --watch-config, edits to custody.yml rotate the token secret and lifetime
without a restart.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Validate configuration first (fail fast)
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}

		if db.URL() == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}

		cipher, wrapping, err := datakey.FromEnv()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to initiate cipher:", err)
			os.Exit(1)
		}

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Println("Running database migrations...")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		dbConfig := db.Config{}
		if wrapping {
			dbConfig.Cipher = cipher
			log.Println("Key material will be wrapped with CUSTODY_DATA_KEY")
		}
		database, err := db.Connect(dbConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		issuer, err := token.NewIssuer(tokenConfig(cfg))
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to create token issuer:", err)
			os.Exit(1)
		}

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		s := server.NewServer(server.Options{
			Authenticator: authenticator.New(
				gormstore.NewUserStore(database),
				authenticator.WithBcryptCost(cfg.BcryptCost),
			),
			Tokens:      issuer,
			Keys:        keys.NewService(gormstore.NewKeyStore(database), keys.WithMaxAge(cfg.CiphertextMaxAge())),
			HealthStore: gormstore.NewHealthStore(database),
			Config:      cfg,
		}, host, port)

		endpoints.RegisterAll(s)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if watch, _ := cmd.Flags().GetBool("watch-config"); watch {
			dir := config.Dir()
			log.Printf("Watching %s for configuration changes", cfg.ConfigFilePath())
			go func() {
				err := config.Watch(ctx, dir, func(next *config.CustodyConfig) {
					if err := issuer.Rotate(tokenConfig(next)); err != nil {
						log.Printf("config: token settings not applied: %v", err)
						return
					}
					log.Printf("config: token settings reloaded from %s", next.ConfigFilePath())
				})
				if err != nil {
					log.Printf("config: watch stopped: %v", err)
				}
			}()
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Shutdown(shutdownCtx); err != nil {
				log.Printf("Shutdown failed: %v", err)
			}
		}()

		log.Printf("Running server at http://%s...\n", s.Addr())
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	},
}

func tokenConfig(cfg *config.CustodyConfig) token.Config {
	return token.Config{
		Secret:    []byte(cfg.TokenSecret),
		TTL:       cfg.TokenTTL(),
		Algorithm: cfg.TokenAlgorithm,
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("watch-config", false, "reload token settings when custody.yml changes")
}
