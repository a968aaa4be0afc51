package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/zenkj/ossfs"
	"github.com/zenkj/ossfs/attr"
	"github.com/zenkj/ossfs/bridge"
	"github.com/zenkj/ossfs/debug"
	"github.com/zenkj/ossfs/filter"
	ossfsfuse "github.com/zenkj/ossfs/fuse"
	"github.com/zenkj/ossfs/store"

	_ "github.com/zenkj/ossfs/store/s3"
)

var (
	mountpoint   string = ""
	configFile   string = "config.json"
	rawLogLevel  string = slog.LevelInfo.String()
	debugAddress string = ""
	allowOther   bool   = false
)

func init() {
	flag.StringVar(&mountpoint, "mountpoint", mountpoint, "directory where the bucket is mounted")
	flag.StringVar(&configFile, "config", configFile, "configuration file")
	flag.StringVar(&rawLogLevel, "log-level", rawLogLevel, "log level")
	flag.StringVar(&debugAddress, "debug-address", debugAddress, "optional listening address of the debug http endpoint")
	flag.BoolVar(&allowOther, "allow-other", allowOther, "permit other users to access the mount")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	flag.Parse()

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(rawLogLevel)); err != nil {
		slog.ErrorContext(ctx, "could not parse log level", slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}

	slog.SetLogLoggerLevel(logLevel)

	if mountpoint == "" {
		slog.ErrorContext(ctx, "missing -mountpoint flag")
		os.Exit(1)
	}

	rawConfig, err := os.ReadFile(configFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.ErrorContext(ctx, "could not read configuration file", slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}

	conf := config{
		Cache: cacheConfig{
			Backend: "memory",
		},
	}

	if rawConfig != nil {
		if err := json.Unmarshal(rawConfig, &conf); err != nil {
			slog.ErrorContext(ctx, "could not parse configuration file", slog.Any("error", errors.WithStack(err)))
			os.Exit(1)
		}
	}

	if err := env.ParseWithOptions(&conf, env.Options{Prefix: "OSSFS_"}); err != nil {
		slog.ErrorContext(ctx, "could not parse environment variables", slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}

	validate := validator.New()
	if err := validate.StructCtx(ctx, &conf); err != nil {
		slog.ErrorContext(ctx, "could not validate config", slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}

	slog.InfoContext(ctx, "creating object store client", "type", conf.Store.Type)

	var storeOptions any
	if conf.Store.Options != nil {
		storeOptions = conf.Store.Options.Value
	}

	objects, err := store.New(store.Type(conf.Store.Type), storeOptions)
	if err != nil {
		slog.ErrorContext(ctx, "could not create object store client", slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}

	attrs, err := createAttrStore(ctx, conf.Cache)
	if err != nil {
		slog.ErrorContext(ctx, "could not create attribute cache", slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}

	bridgeOptions := bridge.Options{
		Store:     objects,
		Attrs:     attrs,
		StatProbe: conf.Mount.StatProbe,
	}

	if conf.Filter != "" {
		slog.InfoContext(ctx, "enabling entry filter", "filter", conf.Filter)

		entryFilter, err := filter.New(conf.Filter)
		if err != nil {
			slog.ErrorContext(ctx, "could not compile filter", slog.Any("error", errors.WithStack(err)))
			os.Exit(1)
		}

		bridgeOptions.Filter = entryFilter
	}

	b, err := bridge.New(bridgeOptions)
	if err != nil {
		slog.ErrorContext(ctx, "could not create bridge", slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}

	ops := ossfs.Chain(b, func(next bridge.Operations) bridge.Operations {
		return ossfs.WithLogger(next, slog.Default())
	})

	if debugAddress != "" {
		go serveDebug(ctx, debugAddress, attrs)
	}

	server, err := ossfsfuse.Mount(ossfsfuse.Options{
		Mountpoint: mountpoint,
		Bridge:     ops,
		Identity:   ossfsfuse.CurrentIdentity(),
		AllowOther: allowOther || conf.Mount.AllowOther,
		Logger:     slog.Default(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "could not mount filesystem", slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()

		slog.Info("unmounting", "mountpoint", mountpoint)

		if err := server.Unmount(); err != nil {
			slog.Error("could not unmount filesystem", slog.Any("error", errors.WithStack(err)))
		}
	}()

	server.Wait()
}

func createAttrStore(ctx context.Context, conf cacheConfig) (attr.Store, error) {
	switch conf.Backend {
	case "sqlite":
		slog.InfoContext(ctx, "using persistent attribute cache", "path", conf.Path)
		return attr.NewSQLiteStore(conf.Path), nil
	default:
		if conf.TTL > 0 {
			slog.InfoContext(ctx, "bounding attribute cache staleness", "ttl", time.Duration(conf.TTL))
		}
		return attr.NewMemoryStore(time.Duration(conf.TTL)), nil
	}
}

func serveDebug(ctx context.Context, address string, attrs attr.Store) {
	server := &http.Server{
		Addr:    address,
		Handler: debug.NewHandler(attrs, slog.Default()),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	slog.InfoContext(ctx, "debug endpoint listening", "address", address)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.ErrorContext(ctx, "debug endpoint failed", slog.Any("error", errors.WithStack(err)))
	}
}
