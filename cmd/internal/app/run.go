package app

import (
	"context"
	"flag"
	"io"
	"os/signal"
	"syscall"
)

// Serve is the "filefly serve" entrypoint.
// It returns an error instead of calling os.Exit to keep defers effective.
func Serve(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to filefly.yaml (optional; FILEFLY_* env overrides it)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}
	log, logFile, err := OpenLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := New(ctx, cfg, log)
	if err != nil {
		log.Error("server.init.fail", "err", err)
		return err
	}
	return a.Run(ctx)
}
