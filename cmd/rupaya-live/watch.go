package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/rupaya/live/pkg/events"
	"github.com/rupaya/live/pkg/logging"
	"github.com/rupaya/live/pkg/notify"
	"github.com/rupaya/live/pkg/pubsub"
	"github.com/rupaya/live/pkg/transport"
)

func handleWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	token := fs.String("token", "", "Session token")
	asJSON := fs.Bool("json", false, "Print every event as a JSON line")
	reconnect := fs.Bool("reconnect", false, "Reopen dropped connections with backoff")
	if err := fs.Parse(args); err != nil {
		return err
	}
	groups := fs.Args()
	if len(groups) == 0 {
		return fmt.Errorf("usage: rupaya-live watch [flags] <group_id>...")
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *reconnect {
		cfg.Reconnect.Enabled = true
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	factory, err := transport.NewWSFactory(transportConfig(cfg), logger)
	if err != nil {
		return err
	}

	sinks := notify.Multi{notify.NewLogSink(logger)}
	if !*asJSON {
		sinks = append(sinks, notify.NewTerminalSink(os.Stdout))
	}
	m := pubsub.NewManager(factory, credentialSource(*token, cfg.Client.APIBaseURL),
		pubsub.WithLogger(logger),
		pubsub.WithNotificationSink(sinks),
		pubsub.WithReconnect(reconnectPolicy(cfg)),
	)
	defer m.Close()

	printer := newEventPrinter(os.Stdout, *asJSON, logger)
	for _, g := range groups {
		if _, err := m.Subscribe(g, printer.handle); err != nil {
			return err
		}
	}
	if dormant := m.Dormant(); len(dormant) > 0 {
		logger.ComponentWarn(logging.ComponentClient, "no connection for some groups; log in or set RUPAYA_TOKEN, then send SIGHUP",
			zap.Strings("groups", dormant))
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigs)

	for sig := range sigs {
		if sig != syscall.SIGHUP {
			logger.ComponentInfo(logging.ComponentClient, "shutting down", zap.String("signal", sig.String()))
			return nil
		}
		n := m.Resume()
		logger.ComponentInfo(logging.ComponentClient, "resume requested",
			zap.Int("reopened", n),
			zap.Strings("still_dormant", m.Dormant()))
	}
	return nil
}

// eventPrinter is the listener the watch command registers on every group.
type eventPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	asJSON bool
	logger *logging.ColoredLogger
}

func newEventPrinter(w io.Writer, asJSON bool, logger *logging.ColoredLogger) *eventPrinter {
	return &eventPrinter{w: w, asJSON: asJSON, logger: logger}
}

type eventLine struct {
	Group string          `json:"group"`
	Event json.RawMessage `json:"event"`
}

func (p *eventPrinter) handle(msg events.Message) {
	if p.asJSON {
		line, err := json.Marshal(eventLine{Group: msg.Key, Event: msg.Raw})
		if err != nil {
			p.logger.ComponentWarn(logging.ComponentClient, "failed to encode event", zap.Error(err))
			return
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		_, _ = fmt.Fprintf(p.w, "%s\n", line)
		return
	}

	p.logger.ComponentDebug(logging.ComponentClient, "event received",
		zap.String("group", msg.Key),
		zap.String("type", string(msg.Type)))

	line := fmt.Sprintf("[%s] %s", msg.Key, msg.Type)
	if msg.Invalidates() {
		line += " (balances changed)"
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.w, line)
}
