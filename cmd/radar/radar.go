package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hoangnv31/mmwave-tracking/internal/capture"
	"github.com/hoangnv31/mmwave-tracking/internal/config"
	"github.com/hoangnv31/mmwave-tracking/internal/db"
	"github.com/hoangnv31/mmwave-tracking/internal/devicecfg"
	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
	"github.com/hoangnv31/mmwave-tracking/internal/monitoring"
	"github.com/hoangnv31/mmwave-tracking/internal/serialmux"
	"github.com/hoangnv31/mmwave-tracking/internal/version"
)

var (
	configPath   = flag.String("config", "", "Path to a JSON service config file")
	dataPort     = flag.String("data-port", "", "Data UART the device streams frames on (overrides config)")
	cliPort      = flag.String("cli-port", "", "CLI UART used to upload the device config (overrides config)")
	cfgScript    = flag.String("cfg", "", "Device .cfg script to upload before reading frames (overrides config)")
	listen       = flag.String("listen", "", "Listen address for the debug HTTP server (overrides config)")
	dbPath       = flag.String("db", "", "SQLite frame log path (overrides config)")
	captureDir   = flag.String("capture-dir", "", "Directory to record replay files to (overrides config)")
	logLevel     = flag.String("log-level", "", "Minimum decode diagnostic level: debug, info, warn, error")
	devMode      = flag.Bool("dev", false, "Run in dev mode with synthetic frames instead of a device")
	replayDir    = flag.String("replay", "", "In dev mode, play back the frames recorded in this session directory")
	devInterval  = flag.Duration("dev-interval", 100*time.Millisecond, "Frame period in dev mode")
	disableRadar = flag.Bool("disable-radar", false, "Run without radar hardware")
	showVersion  = flag.Bool("version", false, "Print the version and exit")
)

// loadConfig reads the config file, if any, and applies command-line
// overrides for every flag that was set explicitly.
func loadConfig(path string, set map[string]bool) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if set["data-port"] {
		p := cfg.GetDataPort()
		p.Path = *dataPort
		cfg.DataPort = &p
	}
	if set["cli-port"] {
		p := cfg.GetCLIPort()
		p.Path = *cliPort
		cfg.CLIPort = &p
	}
	overrideString := func(name string, v string, dst **string) {
		if set[name] {
			s := v
			*dst = &s
		}
	}
	overrideString("cfg", *cfgScript, &cfg.DeviceConfig)
	overrideString("listen", *listen, &cfg.Listen)
	overrideString("db", *dbPath, &cfg.DBPath)
	overrideString("capture-dir", *captureDir, &cfg.CaptureDir)
	overrideString("log-level", *logLevel, &cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configureDevice uploads the .cfg script over the CLI port. The port is
// returned open; the device keeps using it after configuration.
func configureDevice(ctx context.Context, cfg *config.Config) (*devicecfg.Uploader, serialmux.SerialPorter, error) {
	lines, err := devicecfg.LoadScript(cfg.GetDeviceConfig())
	if err != nil {
		return nil, nil, err
	}
	cli := cfg.GetCLIPort()
	port, err := serialmux.OpenPort(serialmux.NewRealSerialPortFactory(), cli.Path, cli.PortOptions)
	if err != nil {
		return nil, nil, err
	}
	uploader := devicecfg.NewUploader(port, cfg.GetUploadOptions())
	if _, err := uploader.Upload(ctx, lines); err != nil {
		port.Close()
		return nil, nil, err
	}
	log.Printf("uploaded %d config lines to %s", len(lines), cli.Path)
	return uploader, port, nil
}

// Main
func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	log.Printf("starting %s", version.String())

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := loadConfig(*configPath, set)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Create a wait group for the HTTP server, serial monitor, and frame handler routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dataCfg := cfg.GetDataPort()
	decoderOpts := []mmwave.Option{
		mmwave.WithReporter(monitoring.NewDecodeReporter(dataCfg.Path, cfg.GetLogLevel())),
		mmwave.WithMaxPacketLength(cfg.GetMaxPacketLength()),
	}

	var uploader *devicecfg.Uploader
	var radarMux serialmux.FrameMuxInterface
	switch {
	case *disableRadar:
		radarMux = serialmux.NewDisabledFrameMux()
	case *devMode:
		next, err := devSource(*replayDir)
		if err != nil {
			log.Fatalf("failed to create dev source: %v", err)
		}
		radarMux = serialmux.NewMockFrameMux(*devInterval, next, decoderOpts...)
	default:
		if cfg.GetDeviceConfig() != "" {
			var cliConn serialmux.SerialPorter
			uploader, cliConn, err = configureDevice(ctx, cfg)
			if err != nil {
				log.Fatalf("failed to configure device: %v", err)
			}
			defer cliConn.Close()
		}
		radarMux, err = serialmux.NewRealFrameMux(dataCfg.Path, dataCfg.PortOptions, decoderOpts...)
		if err != nil {
			log.Fatalf("failed to create radar port: %v", err)
		}
	}
	defer radarMux.Close()

	frameDB, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer frameDB.Close()

	// run the monitor routine to manage IO on the serial port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := radarMux.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("failed to monitor serial port: %v", err)
		}
		log.Print("monitor routine terminated")
		// nothing more will be decoded; shut the remaining routines down
		stop()
	}()

	// log every decoded frame to the database
	wg.Add(1)
	go func() {
		defer wg.Done()
		serialmux.Dispatch(ctx, radarMux, "frame log", func(f *mmwave.Frame) error {
			_, err := frameDB.RecordFrame(f, time.Now())
			return err
		})
	}()

	if dir := cfg.GetCaptureDir(); dir != "" {
		recorder, err := capture.NewRecorder(dir, cfg.GetFramesPerFile())
		if err != nil {
			log.Fatalf("failed to create recorder: %v", err)
		}
		log.Printf("recording frames to %s", recorder.Path())

		wg.Add(1)
		go func() {
			defer wg.Done()
			serialmux.Dispatch(ctx, radarMux, "capture", recorder.Record)
			if err := recorder.Close(); err != nil {
				log.Printf("failed to close recorder: %v", err)
			}
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		radarMux.AttachAdminRoutes(mux)
		frameDB.AttachAdminRoutes(mux)
		if uploader != nil {
			uploader.AttachAdminRoutes(mux)
		}

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			monitoring.Logf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    cfg.GetListen(),
			Handler: h,
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			// Force close the server if graceful shutdown fails
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
