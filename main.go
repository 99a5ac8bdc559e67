package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"

	"github.com/Zachkp/pulse-folio/internal/activity"
	"github.com/Zachkp/pulse-folio/internal/config"
	"github.com/Zachkp/pulse-folio/internal/content"
	"github.com/Zachkp/pulse-folio/internal/live"
	"github.com/Zachkp/pulse-folio/internal/pulse"
	"github.com/Zachkp/pulse-folio/internal/stream"
)

// App holds the server's shared components.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *content.Store
	posts   *content.Cache
	images  content.ImageBuilder
	board   *activity.Board
	sampler *activity.Sampler
	pulses  *live.Handler
	relay   *stream.Relay
	admin   *adminState
}

// ProjectCard is a project as the home page shows it.
type ProjectCard struct {
	ID       string
	Title    string
	Blurb    string
	Commits  int
	BPM      int
	Zone     activity.Zone
	Color    string
	Estimate bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	store, err := content.Open(cfg.ContentDBPath)
	if err != nil {
		logger.Error("failed to open content database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if _, err := os.Stat(cfg.ContentSeed); err == nil {
		n, err := store.Seed(context.Background(), cfg.ContentSeed)
		if err != nil {
			logger.Error("failed to seed posts", "path", cfg.ContentSeed, "error", err)
			os.Exit(1)
		}
		logger.Info("posts seeded", "path", cfg.ContentSeed, "count", n)
	}

	app, err := newApp(cfg, logger, store)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	if cfg.NATSURL != "" {
		nc, err := stream.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn("nats unavailable, running standalone", "error", err)
		} else {
			defer nc.Drain()
			app.relay = stream.NewRelay(nc, cfg.NATSSubject, uuid.NewString(), app.board, logger)
			if err := app.relay.Start(); err != nil {
				logger.Warn("nats subscribe failed", "error", err)
			}
			defer app.relay.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// activity is sampled once per process; admins can trigger more
	go app.resample(ctx)

	r := gin.Default()
	r.LoadHTMLGlob("templates/*")
	r.Static("/static", "./static")
	setupRoutes(r, app)
	setupAdminRoutes(r, app)

	server := &http.Server{Addr: ":" + strconv.Itoa(cfg.Port), Handler: r}
	go func() {
		logger.Info("server running", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("server stopped")
}

func newApp(cfg *config.Config, logger *slog.Logger, store *content.Store) (*App, error) {
	projects := activity.Projects(cfg.GitHubOwner, cfg.GitHubRepos)

	sampler := activity.NewSampler(cfg.GitHubAPIURL, projects, logger)
	sampler.Token = cfg.GitHubToken
	sampler.Timeout = cfg.SamplerTimeout

	admin, err := newAdminState(store.DB(), cfg, logger)
	if err != nil {
		return nil, err
	}

	board := activity.NewBoard(projects)
	return &App{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		posts:   content.NewCache(store, cfg.ContentCacheTTL, logger),
		images:  content.ImageBuilder{BaseURL: cfg.ImageCDNURL, ProjectID: cfg.ImageProjectID, Dataset: cfg.ImageDataset},
		board:   board,
		sampler: sampler,
		pulses:  live.NewHandler(board, cfg.PulseFPS, cfg.PulseIntensity, logger),
		admin:   admin,
	}, nil
}

// resample queries commit activity, publishes it and records it.
func (a *App) resample(ctx context.Context) *activity.Snapshot {
	records := a.sampler.Sample(ctx)
	snap := a.board.Publish(records)

	if err := a.admin.recordSamples(records); err != nil {
		a.logger.Error("recording activity samples", "error", err)
	}
	if a.relay != nil {
		if err := a.relay.Publish(records); err != nil {
			a.logger.Warn("relaying activity", "error", err)
		}
	}
	return snap
}

func (a *App) projectCards() []ProjectCard {
	snap := a.board.Current()
	cards := make([]ProjectCard, 0, len(a.sampler.Projects))
	for _, p := range a.sampler.Projects {
		rec, _ := snap.Lookup(p.ID)
		text := projectCopy[p.ID]
		title := text[0]
		if title == "" {
			title = p.Repo
		}
		zone := rec.Zone()
		cards = append(cards, ProjectCard{
			ID:       p.ID,
			Title:    title,
			Blurb:    text[1],
			Commits:  rec.CommitsPerWeek,
			BPM:      rec.BPM(),
			Zone:     zone,
			Color:    zone.Color(),
			Estimate: rec.Fallback,
		})
	}
	return cards
}

func setupRoutes(r *gin.Engine, app *App) {
	// Home page route
	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"aboutMeContent": AboutMe,
			"projects":       app.projectCards(),
		})
	})

	// Blog index, grouped by category
	r.GET("/blog", func(c *gin.Context) {
		posts, err := app.posts.Posts(c.Request.Context())
		if err != nil {
			c.HTML(http.StatusOK, "blog.html", gin.H{"error": content.LoadErrorMessage})
			return
		}
		c.HTML(http.StatusOK, "blog.html", gin.H{
			"groups": content.GroupByCategory(posts),
			"images": app.images,
		})
	})

	r.GET("/blog/:slug", func(c *gin.Context) {
		post, err := app.posts.BySlug(c.Request.Context(), c.Param("slug"))
		switch {
		case errors.Is(err, content.ErrNotFound):
			c.HTML(http.StatusNotFound, "post.html", gin.H{"error": "Post not found."})
			return
		case err != nil:
			c.HTML(http.StatusOK, "post.html", gin.H{"error": content.LoadErrorMessage})
			return
		}
		c.HTML(http.StatusOK, "post.html", gin.H{
			"post":  post,
			"image": app.images.URL(post.MainImage, 1200),
		})
	})

	r.GET("/api/activity", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"updated_at": app.board.Current().UpdatedAt,
			"projects":   app.projectCards(),
			"streams":    app.pulses.Active(),
		})
	})

	// Single rendered frame, for clients without websockets
	r.GET("/pulse/:project/frame.png", func(c *gin.Context) {
		rec, ok := app.board.Current().Lookup(c.Param("project"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown project"})
			return
		}

		session := pulse.NewSession(rec.CommitsPerWeek, app.cfg.PulseIntensity, nil)
		phase := 0.6
		if v, err := strconv.ParseFloat(c.Query("phase"), 64); err == nil && v >= 0 && v < 1 {
			phase = v
		}
		raster := pulse.NewRaster(pulse.Width, pulse.Height)
		start := time.Now()
		session.Step(raster, start)
		session.Step(raster, start.Add(time.Duration(phase*float64(session.BeatInterval()))))

		c.Header("Cache-Control", "no-store")
		c.Header("Content-Type", "image/png")
		c.Status(http.StatusOK)
		if err := raster.EncodePNG(c.Writer); err != nil {
			app.logger.Error("encoding frame", "error", err)
		}
	})

	// Live frame stream with layout feedback
	r.GET("/pulse/:project/ws", func(c *gin.Context) {
		app.pulses.Serve(c.Writer, c.Request, c.Param("project"))
	})
}
