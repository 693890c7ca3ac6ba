// Command cookiedeck runs the subscription resale service.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/cookiedeck/cookiedeck/internal/app"
	"github.com/cookiedeck/cookiedeck/internal/config"
	"github.com/cookiedeck/cookiedeck/internal/logging"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to the configuration file")
	flag.Parse()

	cfg, errLoad := config.Load(config.ResolveConfigPath(configPath))
	if errLoad != nil {
		log.Fatalf("load config: %v", errLoad)
	}
	logging.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := "serve"
	if args := flag.Args(); len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "serve":
		if errRun := app.RunServer(ctx, cfg); errRun != nil {
			log.Fatalf("server: %v", errRun)
		}
	case "migrate":
		if errMigrate := app.Migrate(ctx, cfg); errMigrate != nil {
			log.Fatalf("migrate: %v", errMigrate)
		}
		log.Info("migrations applied")
	default:
		log.Fatalf("unknown command %q (expected serve or migrate)", command)
	}
}
