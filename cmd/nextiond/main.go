package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/speters/gonextion/nextion"
)

// To be set via go build -ldflags "-X main.buildVersion=$(git describe --dirty) -X main.buildDate=$(date -u +%FT%TZ)"
var buildVersion = "unspecified"
var buildDate = "unknown"

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	o := defaultOptions()

	root := &cobra.Command{
		Use:           "nextiond",
		Short:         "Control a Nextion touch display over its serial link",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if o.configFile != "" {
				if err := o.applyFile(o.configFile, cmd.Flags().Changed); err != nil {
					return err
				}
			}
			setupLogging(o.verbose)
			if cmd.Name() == "version" {
				return nil
			}
			return o.validate()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.connect, "connect", "c", "", "connection string, use socket://[host]:[port] for TCP or [serialDevice] for direct serial connection")
	pf.IntVarP(&o.baud, "baud", "b", defaultBaud, "baud rate of the serial link")
	pf.StringVar(&o.configFile, "config", "", "TOML config `file`")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "verbose logging")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Keep the display connected and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), &o)
		},
	}
	serve.Flags().StringVarP(&o.http, "http", "s", ":8000", "start http server at [bindtohost][:]port")
	serve.Flags().DurationVar(&o.reconnectDelay, "reconnect-delay", defaultReconnectDelay, "wait before reconnecting a lost display")

	send := &cobra.Command{
		Use:   "send <command>...",
		Short: "Send raw commands to the display and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(&o, args)
		},
	}

	monitor := &cobra.Command{
		Use:   "monitor",
		Short: "Log events sent by the display",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd.Context(), &o)
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nextiond %s (%s)\n", buildVersion, buildDate)
		},
	}

	root.AddCommand(serve, send, monitor, version)
	return root
}

func setupLogging(verbose bool) {
	if verbose {
		log.SetLevel(log.DebugLevel)
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
		return
	}
	log.SetLevel(log.InfoLevel)
}

// signalContext is canceled on the usual termination signals
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}

// logHandlers logs every event the display sends
func logHandlers() *nextion.Handlers {
	return &nextion.Handlers{
		Connected: func() { log.Infof("Display connection established") },
		Touch: func(e nextion.TouchEvent) {
			log.Infof("Touch event on page %d by component id %d with state %v", e.Page, e.ID, e.State)
		},
		PageChanged: func(e nextion.PageEvent) {
			if e.NoPage {
				log.Warnf("Page event without page number")
				return
			}
			log.Infof("Page changed: %d", e.Page)
		},
		ReceivedData: func(f nextion.Frame) { log.Debugf("Received data: '%v'", f) },
		Error:        func(err error) { log.Errorf("Display connection error: %v", err) },
		Close:        func() { log.Infof("Display connection closed") },
	}
}

// requestPage asks a freshly connected display for its page, failures are only logged
func requestPage(dev *nextion.Device) {
	if err := dev.RequestPage(); err != nil {
		log.Warnf("Could not request current page: %v", err)
	}
}

func runSend(o *options, args []string) error {
	dev, err := nextion.NewDevice(o.connect, o.baud, logHandlers())
	if err != nil {
		return err
	}
	if err := dev.Connect(); err != nil {
		return err
	}
	defer dev.Close()

	for _, a := range args {
		if err := dev.RawCmd(a); err != nil {
			return err
		}
	}
	return nil
}

func runMonitor(ctx context.Context, o *options) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	dev, err := nextion.NewDevice(o.connect, o.baud, logHandlers())
	if err != nil {
		return err
	}
	if err := dev.Connect(); err != nil {
		return err
	}
	requestPage(dev)

	select {
	case <-ctx.Done():
		dev.Close()
	case <-dev.Done():
	}
	return nil
}

func runServe(ctx context.Context, o *options) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h := newHub()
	defer h.close()
	dev, err := nextion.NewDevice(o.connect, o.baud, h.handlers(logHandlers()))
	if err != nil {
		return err
	}
	dev.Metrics = nextion.NewMetrics(reg)

	a := &api{dev: dev, hub: h, gatherer: reg}
	srv := &http.Server{Addr: listenAddr(o.http), Handler: a.router()}
	go func() {
		log.Infof("HTTP server listening on %v", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err)
			stop()
		}
	}()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()

	for {
		if !dev.Connected() {
			if err := dev.Connect(); err == nil {
				requestPage(dev)
			}
		}
		if dev.Connected() {
			select {
			case <-dev.Done():
				log.Warnf("Lost connection to %v, reconnecting in %v", dev.Link(), o.reconnectDelay)
			case <-ctx.Done():
				dev.Close()
				return nil
			}
		}
		select {
		case <-time.After(o.reconnectDelay):
		case <-ctx.Done():
			return nil
		}
	}
}
