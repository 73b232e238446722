package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/echo-gravitas/openhamclock/pkg/config"
	"github.com/echo-gravitas/openhamclock/pkg/logging"
	"github.com/echo-gravitas/openhamclock/pkg/wizard"
)

var (
	configPath  = flag.String("config", "rigbridge.yaml", "Configuration file path")
	runWizard   = flag.Bool("wizard", false, "Run the interactive configuration wizard and save the result")
	showVersion = flag.Bool("version", false, "Show version information")

	// configuration overrides
	flagDevice   = flag.String("device", "", "Serial device path (overrides config)")
	flagBaud     = flag.Int("baud", 0, "Serial baud rate (overrides config)")
	flagBrand    = flag.String("brand", "", "Radio brand: yaesu, kenwood, elecraft, icom (overrides config)")
	flagHTTPPort = flag.Int("http-port", 0, "HTTP listen port (overrides config)")
	flagSimulate = flag.Bool("sim", false, "Run without hardware against a simulated radio")
)

const (
	Version = "0.9.0"
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("rig-bridge version %s\n", Version)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = &config.Config{}
		cfg.ApplyDefaults()
		if !*runWizard {
			log.Printf("No config file at %s, starting from defaults (try --wizard)", *configPath)
		}
	} else if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *runWizard {
		if err := wizard.New().Run(cfg); err != nil {
			log.Fatalf("Wizard failed: %v", err)
		}
		if err := cfg.Save(*configPath); err != nil {
			log.Fatalf("Failed to save configuration: %v", err)
		}
		fmt.Printf("Configuration written to %s\n", *configPath)
	}

	applyOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logging.InitGlobalLogger(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseGlobalLogger()

	logging.Infof("main", "rig-bridge version %s starting...", Version)
	if cfg.Simulate {
		logging.Info("main", "Radio: simulated")
	} else {
		logging.Infof("main", "Radio: %s on %s @ %d baud", cfg.RadioName(), cfg.Radio.Device, cfg.Radio.BaudRate)
	}
	logging.Infof("main", "Web interface: http://%s:%d", cfg.Web.BindAddress, cfg.Web.Port)

	daemon, err := NewDaemon(cfg)
	if err != nil {
		logging.Errorf("main", "Failed to create daemon: %v", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	daemon.Start()
	logging.Info("main", "rig-bridge started successfully")

	<-sigChan
	logging.Info("main", "Shutting down...")
	daemon.Stop()
	logging.Info("main", "rig-bridge stopped")
}

// applyOverrides copies command-line flags over the loaded file.
func applyOverrides(cfg *config.Config) {
	if *flagDevice != "" {
		cfg.Radio.Device = *flagDevice
	}
	if *flagBaud > 0 {
		cfg.Radio.BaudRate = *flagBaud
	}
	if *flagBrand != "" {
		cfg.Radio.Brand = *flagBrand
	}
	if *flagHTTPPort > 0 {
		cfg.Web.Port = *flagHTTPPort
	}
	if *flagSimulate {
		cfg.Simulate = true
	}
}
