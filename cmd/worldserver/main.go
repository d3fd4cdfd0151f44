package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/openwow/wowgo/internal/ai"
	"github.com/openwow/wowgo/internal/config"
	"github.com/openwow/wowgo/internal/db"
	"github.com/openwow/wowgo/internal/model"
	"github.com/openwow/wowgo/internal/world"
)

const WorldConfigPath = "config/worldserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := WorldConfigPath
	if p := os.Getenv("WOWGO_WORLD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadWorldServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading world config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	slog.Info("wowgo world server starting",
		"bind", cfg.BindAddress,
		"port", cfg.Port,
		"tick", cfg.TickInterval.Std())

	// Connect to database
	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	// Run migrations
	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// Load static stores
	templateRepo := db.NewTemplateRepository(database.Pool())
	store, err := templateRepo.LoadStore(ctx)
	if err != nil {
		return fmt.Errorf("loading creature templates: %w", err)
	}

	factionRepo := db.NewFactionRepository(database.Pool())
	factions, err := factionRepo.LoadStore(ctx)
	if err != nil {
		return fmt.Errorf("loading faction templates: %w", err)
	}
	model.SetFactionStore(factions)

	// Install AI scripts
	ai.Install()

	spawnRepo := db.NewSpawnRepository(database.Pool())
	respawnRepo := db.NewRespawnRepository(database.Pool())

	groups, err := spawnRepo.LoadSpawnGroups(ctx)
	if err != nil {
		return fmt.Errorf("loading spawn groups: %w", err)
	}
	links, err := spawnRepo.LoadLinkedRespawns(ctx)
	if err != nil {
		return fmt.Errorf("loading linked respawns: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, entry := range cfg.Maps {
		m := world.NewMap(entry.ID, 0, parseMapType(entry.Type), entry.Difficulty, store,
			world.WithRespawnStore(respawnRepo),
			world.WithVisibilityRange(cfg.VisibilityRange),
			world.WithRespawnRate(cfg.RespawnRate))

		for _, grp := range groups {
			m.RegisterSpawnGroup(grp)
		}

		times, err := respawnRepo.LoadByMap(ctx, entry.ID, 0)
		if err != nil {
			return fmt.Errorf("loading respawn times for map %d: %w", entry.ID, err)
		}
		m.RestoreRespawnTimes(times)

		spawns, err := spawnRepo.LoadByMap(ctx, entry.ID, entry.Difficulty)
		if err != nil {
			return fmt.Errorf("loading spawns for map %d: %w", entry.ID, err)
		}
		loaded := 0
		for _, data := range spawns {
			c, err := m.LoadSpawn(data)
			if err != nil {
				slog.Error("load spawn", "map", entry.ID, "spawn", data.SpawnID, "err", err)
				continue
			}
			if c != nil {
				loaded++
			}
		}
		for slave, master := range links {
			m.SetLinkedRespawn(slave, master)
		}
		slog.Info("map loaded", "map", entry.ID, "type", entry.Type, "creatures", loaded)

		mm := m
		g.Go(func() error {
			return mm.Run(gctx, cfg.TickInterval.Std())
		})
	}

	// Metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: mux}
	g.Go(func() error {
		slog.Info("metrics listening", "addr", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		return metricsSrv.Shutdown(shutCtx)
	})

	return g.Wait()
}

func parseMapType(s string) world.MapType {
	switch strings.ToLower(s) {
	case "dungeon":
		return world.MapTypeDungeon
	case "raid":
		return world.MapTypeRaid
	default:
		return world.MapTypeWorld
	}
}
