// admin.go - activity history and admin dashboard
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/pulse-folio/internal/activity"
	"github.com/Zachkp/pulse-folio/internal/config"
)

// SampleRow is one stored activity sample.
type SampleRow struct {
	ID        int       `json:"id"`
	ProjectID string    `json:"project_id"`
	Commits   int       `json:"commits"`
	BPM       int       `json:"bpm"`
	Fallback  bool      `json:"fallback"`
	SampledAt time.Time `json:"sampled_at"`
}

// ProjectStat summarizes a project's stored samples.
type ProjectStat struct {
	ProjectID     string  `json:"project_id"`
	Samples       int64   `json:"samples"`
	AvgCommits    float64 `json:"avg_commits"`
	FallbackRatio float64 `json:"fallback_ratio"`
}

type AdminStats struct {
	TotalSamples   int64             `json:"total_samples"`
	SamplesToday   int64             `json:"samples_today"`
	TotalPosts     int64             `json:"total_posts"`
	ActiveStreams  int64             `json:"active_streams"`
	Projects       []ProjectStat     `json:"projects"`
	RecentSamples  []SampleRow       `json:"recent_samples"`
	CurrentRecords []activity.Record `json:"current_records"`
}

type adminState struct {
	db       *sql.DB
	logger   *slog.Logger
	token    string
	salt     string
	username string
	password string
}

func newAdminState(db *sql.DB, cfg *config.Config, logger *slog.Logger) (*adminState, error) {
	a := &adminState{
		db:       db,
		logger:   logger,
		token:    generateAdminToken(),
		salt:     generateAdminToken(),
		username: cfg.AdminUsername,
		password: cfg.AdminPassword,
	}
	if err := a.initActivityHistory(); err != nil {
		return nil, err
	}

	logger.Info("admin access available", "path", "/admin/login")
	if gin.Mode() == gin.DebugMode {
		logger.Debug("admin token (dev only)", "token", a.token)
		if cfg.AdminPassword == "admin123" {
			logger.Warn("using default admin password, set ADMIN_PASSWORD")
		}
	}

	go a.cleanupOldSamples()
	return a, nil
}

func generateAdminToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic(fmt.Sprintf("failed to generate admin token: %v", err))
	}
	return hex.EncodeToString(bytes)
}

// Hash client IP for logs (consistent per IP)
func (a *adminState) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + a.salt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

// Middleware to check admin authentication
func (a *adminState) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("admin_token")
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *adminState) initActivityHistory() error {
	_, err := a.db.Exec(`
	CREATE TABLE IF NOT EXISTS activity_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL,
		commits INTEGER NOT NULL,
		bpm INTEGER NOT NULL,
		fallback INTEGER NOT NULL DEFAULT 0,
		sampled_at DATETIME NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create activity_samples table: %w", err)
	}
	_, err = a.db.Exec(`CREATE INDEX IF NOT EXISTS idx_activity_samples_project ON activity_samples(project_id, sampled_at)`)
	if err != nil {
		return fmt.Errorf("create activity_samples index: %w", err)
	}
	return nil
}

// recordSamples stores one sampling round.
func (a *adminState) recordSamples(records []activity.Record) error {
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		sampledAt := r.SampledAt
		if sampledAt.IsZero() {
			sampledAt = time.Now()
		}
		_, err := tx.Exec(`
			INSERT INTO activity_samples (project_id, commits, bpm, fallback, sampled_at)
			VALUES (?, ?, ?, ?, ?)
		`, r.ProjectID, r.CommitsPerWeek, r.BPM(), r.Fallback, sampledAt.UTC())
		if err != nil {
			return fmt.Errorf("insert sample %s: %w", r.ProjectID, err)
		}
	}
	return tx.Commit()
}

// Drop samples older than a year
func (a *adminState) cleanupOldSamples() {
	result, err := a.db.Exec(`DELETE FROM activity_samples WHERE sampled_at < ?`,
		time.Now().AddDate(-1, 0, 0).UTC())
	if err != nil {
		a.logger.Error("cleaning up old samples", "error", err)
		return
	}
	if n, _ := result.RowsAffected(); n > 0 {
		a.logger.Info("removed old activity samples", "count", n)
	}
}

func (a *adminState) getAdminStats(app *App) (*AdminStats, error) {
	stats := &AdminStats{
		ActiveStreams:  app.pulses.Active(),
		CurrentRecords: app.board.Current().Records,
	}

	if err := a.db.QueryRow("SELECT COUNT(*) FROM activity_samples").Scan(&stats.TotalSamples); err != nil {
		return nil, err
	}

	dayAgo := time.Now().Add(-24 * time.Hour).UTC()
	err := a.db.QueryRow("SELECT COUNT(*) FROM activity_samples WHERE sampled_at >= ?", dayAgo).
		Scan(&stats.SamplesToday)
	if err != nil {
		return nil, err
	}

	if err := a.db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&stats.TotalPosts); err != nil {
		return nil, err
	}

	rows, err := a.db.Query(`
		SELECT project_id, COUNT(*), AVG(commits), AVG(fallback)
		FROM activity_samples
		GROUP BY project_id
		ORDER BY project_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ps ProjectStat
		if err := rows.Scan(&ps.ProjectID, &ps.Samples, &ps.AvgCommits, &ps.FallbackRatio); err != nil {
			continue
		}
		stats.Projects = append(stats.Projects, ps)
	}

	recent, err := a.recentSamples(50)
	if err != nil {
		return nil, err
	}
	stats.RecentSamples = recent
	return stats, nil
}

func (a *adminState) recentSamples(limit int) ([]SampleRow, error) {
	rows, err := a.db.Query(`
		SELECT id, project_id, commits, bpm, fallback, sampled_at
		FROM activity_samples
		ORDER BY sampled_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []SampleRow
	for rows.Next() {
		var s SampleRow
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Commits, &s.BPM, &s.Fallback, &s.SampledAt); err != nil {
			continue
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// Setup all admin routes
func setupAdminRoutes(r *gin.Engine, app *App) {
	a := app.admin

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")

		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
		if userOK && passOK {
			c.SetCookie("admin_token", a.token, 3600*24, "/admin", "", false, true)
			a.logger.Info("admin login", "client", a.hashIP(c.ClientIP()))
			c.Redirect(http.StatusFound, "/admin/dashboard")
			return
		}

		a.logger.Warn("failed admin login", "client", a.hashIP(c.ClientIP()))
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"error": "Invalid credentials",
		})
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie("admin_token", "", -1, "/admin", "", false, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(a.authMiddleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := a.getAdminStats(app)
		if err != nil {
			a.logger.Error("loading admin stats", "error", err)
			c.HTML(http.StatusInternalServerError, "admin-dashboard.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats": stats,
		})
	})

	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := a.getAdminStats(app)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	// Re-run the activity sampler outside the startup round
	adminGroup.POST("/resample", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*app.sampler.Timeout+time.Second)
		defer cancel()

		snap := app.resample(ctx)
		a.logger.Info("manual resample", "client", a.hashIP(c.ClientIP()), "records", len(snap.Records))
		c.JSON(http.StatusOK, snap)
	})

	adminGroup.POST("/posts/refresh", func(c *gin.Context) {
		app.posts.Invalidate()
		c.JSON(http.StatusOK, gin.H{"message": "Post cache cleared"})
	})
}
