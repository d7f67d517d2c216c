// README: Entry point; loads config, opens the embedded store, wires the
// services, and runs the notification reminder ticker until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"navette/internal/app"
	"navette/internal/config"
	"navette/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		logrus.Fatalf("open store: %v", err)
	}
	defer a.Close()

	if cfg.SeedDemo {
		if err := seed.Demo(ctx, a.DB); err != nil {
			logrus.Fatalf("seed: %v", err)
		}
	}

	go a.Run(ctx)

	logrus.WithField("data_dir", cfg.Data.Dir).Info("navette core ready")
	<-ctx.Done()
	logrus.Info("shutting down")
}
