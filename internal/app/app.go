package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/five82/varlens/internal/api"
	"github.com/five82/varlens/internal/config"
	"github.com/five82/varlens/internal/deeplink"
	"github.com/five82/varlens/internal/prefs"
	"github.com/five82/varlens/internal/querycache"
	"github.com/five82/varlens/internal/state"
	"github.com/five82/varlens/internal/ui"
	"github.com/five82/varlens/internal/variants"
	"github.com/five82/varlens/internal/window"
)

// Options configure a varlens runtime. Non-empty overrides replace the
// matching config file values.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/varlens/prefs.toml

	APIURL    string
	ProjectID string
	AppID     string

	Mode   string
	Search string
	Link   string // deep link URL or query string
}

// Runtime holds the long-lived objects of one varlens process.
type Runtime struct {
	Config   config.Config
	Prefs    prefs.Prefs
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Client   *api.Client
	Cache    *querycache.Cache
	Windows  *window.Store
	Session  *variants.Session
	Health   *state.Store
}

// Open loads configuration and wires the query layer. The session is not
// started; callers decide between Start for live views and the blocking
// Load* methods for one-shot commands.
func Open(opts Options) (*Runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load varlens config: %w", err)
	}
	applyOverrides(&cfg, opts)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	mode, ok := variants.ParseMode(opts.Mode)
	if !ok {
		return nil, fmt.Errorf("unknown list mode %q", opts.Mode)
	}
	link, err := deeplink.ParseURL(opts.Link)
	if err != nil {
		return nil, err
	}

	// Preferences never block startup.
	userPrefs, _ := prefs.Load(opts.PrefsPath)

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	client, err := api.NewClient(cfg.APIURL, cfg.ProjectID, cfg.RequestTimeout)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cache := querycache.New(querycache.Config{
		FetchTimeout: cfg.RequestTimeout,
		Logger:       logger.Named("cache"),
		Metrics:      querycache.NewMetrics(reg),
	})

	pageSize := cfg.PageSize
	if userPrefs.PageSize > 0 {
		pageSize = userPrefs.PageSize
	}
	windows, err := window.NewStore(pageSize, cfg.CacheSize)
	if err != nil {
		cache.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("init window store: %w", err)
	}

	session, err := variants.NewSession(cache, client, windows, logger.Named("session"), variants.Options{
		AppID:  cfg.AppID,
		Mode:   mode,
		Search: opts.Search,
		Link:   link,
	})
	if err != nil {
		cache.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("init session: %w", err)
	}

	logger.Info("varlens runtime opened",
		zap.String("api_url", cfg.APIURL),
		zap.String("app_id", cfg.AppID),
		zap.String("mode", string(mode)),
		zap.Int("page_size", pageSize),
		zap.Int("priority_ids", len(link.PriorityIDs)),
	)

	return &Runtime{
		Config:   cfg,
		Prefs:    userPrefs,
		Logger:   logger,
		Registry: reg,
		Client:   client,
		Cache:    cache,
		Windows:  windows,
		Session:  session,
		Health:   state.NewStore(nil),
	}, nil
}

// Close releases the session and the cache, then flushes the logger.
func (r *Runtime) Close() {
	if r == nil {
		return
	}
	r.Session.Close()
	r.Cache.Close()
	_ = r.Logger.Sync()
}

// Run boots the varlens TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	rt, err := Open(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if rt.Config.MetricsAddr != "" {
		stop, err := serveMetrics(rt.Config.MetricsAddr, rt.Registry, rt.Logger.Named("metrics"))
		if err != nil {
			return err
		}
		defer stop()
	}

	rt.Session.Start()

	refresher := NewRefresher(rt.Session, rt.Cache, rt.Health, rt.Config.PollInterval, rt.Logger.Named("refresh"))
	done := refresher.Start(ctx)

	err = ui.Run(ui.Options{
		Context:   ctx,
		Session:   rt.Session,
		Health:    rt.Health,
		PollTick:  ui.DefaultUIInterval,
		ThemeName: rt.Prefs.Theme,
		PrefsPath: opts.PrefsPath,
		Prefs:     rt.Prefs,
		Logger:    rt.Logger.Named("ui"),
	})
	cancel()
	<-done
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func applyOverrides(cfg *config.Config, opts Options) {
	if v := strings.TrimSpace(opts.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(opts.ProjectID); v != "" {
		cfg.ProjectID = v
	}
	if v := strings.TrimSpace(opts.AppID); v != "" {
		cfg.AppID = v
	}
}
