package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/moyoez/qrdrop/api"
	"github.com/moyoez/qrdrop/envelope"
	"github.com/moyoez/qrdrop/notify"
	"github.com/moyoez/qrdrop/optical"
	"github.com/moyoez/qrdrop/store"
	"github.com/moyoez/qrdrop/tool"
	"github.com/moyoez/qrdrop/transfer"
	"github.com/moyoez/qrdrop/types"
)

const usage = `usage: qrdrop [flags] <command> [args]

commands:
  send <category> <file>     render file as a QR code PNG (-out, default qr.png)
  import <category> <file>   copy file into the store under a generated name
  list [category]            list stored files
  delete <category> <name>   delete a stored file
  receive                    read decoded QR text from stdin until a file is received
  serve                      start the control API`

type app struct {
	cfg      tool.Config
	appCfg   tool.AppConfig
	store    *store.Store
	renderer *optical.Renderer
}

func newApp(cfg tool.Config, appCfg tool.AppConfig) (*app, error) {
	st, err := store.New(appCfg.Root)
	if err != nil {
		return nil, err
	}
	if n, err := st.SweepProvisional(); err != nil {
		tool.DefaultLogger.Warnf("Failed to sweep partial files: %v", err)
	} else if n > 0 {
		tool.DefaultLogger.Infof("Removed %d partial file(s) left by an interrupted receive", n)
	}

	level, err := optical.ParseLevel(appCfg.QR.Level)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		appCfg:   appCfg,
		store:    st,
		renderer: optical.NewRenderer(appCfg.QR.Size, level),
	}, nil
}

func (a *app) newReceiver(surface transfer.CaptureSurface) *transfer.Receiver {
	return transfer.NewReceiver(a.store, surface, transfer.Options{
		RenameOnReceive: a.appCfg.Receive.RenameOnReceive,
		RejectCooldown:  a.appCfg.Receive.RejectCooldown,
		FramesPerSecond: a.appCfg.Receive.FramesPerSecond,
		OnResult:        notify.New(a.appCfg.Notify.URL).Hook(),
	})
}

func needArgs(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("expected %d argument(s), got %d\n\n%s", n, len(args), usage)
	}
	return nil
}

func (a *app) send(args []string) error {
	if err := needArgs(args, 2); err != nil {
		return err
	}
	category, err := types.ParseCategory(args[0])
	if err != nil {
		return err
	}
	env, err := envelope.BuildFromFile(args[1], category)
	if err != nil {
		return err
	}
	png, err := a.renderer.PNG(env)
	if err != nil {
		if errors.Is(err, types.ErrPayloadTooLarge) {
			return fmt.Errorf("%w: at most about %d bytes fit at this level", err, a.renderer.MaxFileSize(env.FileName, category))
		}
		return err
	}

	out := a.cfg.UseOut
	if out == "" {
		out = "qr.png"
	}
	if err := os.WriteFile(out, png, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	tool.DefaultLogger.Infof("Wrote QR code for %s (%s) to %s", env.FileName, store.ReadableSize(env.FileSize), out)
	return nil
}

func (a *app) importFile(args []string) error {
	if err := needArgs(args, 2); err != nil {
		return err
	}
	category, err := types.ParseCategory(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	rec, err := a.store.Import(f, category, filepath.Base(args[1]))
	if err != nil {
		return err
	}
	fmt.Printf("%s/%s\n", category, rec.Name)
	return nil
}

func (a *app) list(args []string) error {
	var (
		records []types.FileRecord
		err     error
	)
	if len(args) > 0 {
		category, perr := types.ParseCategory(args[0])
		if perr != nil {
			return perr
		}
		records, err = a.store.List(category)
	} else {
		records, err = a.store.ListAll()
	}
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Printf("%-14s %-32s %10s  %s\n", rec.Category, rec.Name, store.ReadableSize(rec.SizeBytes), rec.LastModified.Format(time.DateTime))
	}
	return nil
}

func (a *app) deleteFile(args []string) error {
	if err := needArgs(args, 2); err != nil {
		return err
	}
	category, err := types.ParseCategory(args[0])
	if err != nil {
		return err
	}
	deleted, err := a.store.Delete(types.FileRecord{Category: category, Name: args[1]})
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%s/%s: %w", category, args[1], os.ErrNotExist)
	}
	return nil
}

func (a *app) receive(ctx context.Context) error {
	surface := transfer.NewLineSurface(os.Stdin)
	receiver := a.newReceiver(surface)
	frames, readErr := surface.Frames(ctx)

	tool.DefaultLogger.Info("Scanning: waiting for decoded QR text on stdin")
	res, err := receiver.Listen(ctx, frames)
	if errors.Is(err, transfer.ErrSurfaceClosed) {
		if rerr := readErr(); rerr != nil {
			return fmt.Errorf("failed to read frames: %w", rerr)
		}
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s/%s\n", res.Message(), res.Record.Category, res.Record.Name)
	return nil
}

func (a *app) serve(ctx context.Context) error {
	server := api.NewServer(a.appCfg.API.Listen, a.store, a.renderer, a.newReceiver(nil))
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tool.DefaultLogger.Info("Shutting down control API")
		return server.Shutdown(shutdownCtx)
	}
}

func (a *app) run(ctx context.Context) error {
	if len(a.cfg.Args) == 0 {
		return errors.New(usage)
	}
	command, args := a.cfg.Args[0], a.cfg.Args[1:]
	switch command {
	case "send":
		return a.send(args)
	case "import":
		return a.importFile(args)
	case "list":
		return a.list(args)
	case "delete":
		return a.deleteFile(args)
	case "receive":
		return a.receive(ctx)
	case "serve":
		return a.serve(ctx)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
}

func main() {
	cfg := tool.SetFlags()
	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	cfg.Apply(&appCfg)

	if err := tool.InitLogger(appCfg.LogDir); err != nil {
		tool.DefaultLogger.Warnf("Failed to open log file, logging to stdout only: %v", err)
	}
	tool.SetLogLevel(cfg.Log)

	a, err := newApp(cfg, appCfg)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := a.run(ctx); err != nil {
		if msg := types.UserMessage(err); types.KindOf(err) != types.KindNone {
			tool.DefaultLogger.Errorf("%s: %v", msg, err)
		} else {
			tool.DefaultLogger.Errorf("%v", err)
		}
		stop()
		os.Exit(1)
	}
}
