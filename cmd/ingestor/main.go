// Command ingestor runs one of the five pipeline modes: the archive block
// parser, the live transaction subscriber, the Parquet exporter, the
// Parquet importer, or the remote reconciliation checker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/google/gops/agent"

	"github.com/pumpfun-analytics/ingestor/internal/archive"
	"github.com/pumpfun-analytics/ingestor/internal/batch"
	"github.com/pumpfun-analytics/ingestor/internal/bus"
	"github.com/pumpfun-analytics/ingestor/internal/config"
	"github.com/pumpfun-analytics/ingestor/internal/events"
	"github.com/pumpfun-analytics/ingestor/internal/flushpool"
	"github.com/pumpfun-analytics/ingestor/internal/liveingest"
	"github.com/pumpfun-analytics/ingestor/internal/parquetio"
	"github.com/pumpfun-analytics/ingestor/internal/reconcile"
	"github.com/pumpfun-analytics/ingestor/internal/runtimeenv"
	"github.com/pumpfun-analytics/ingestor/internal/scheduler"
	"github.com/pumpfun-analytics/ingestor/internal/store"
	"github.com/pumpfun-analytics/ingestor/internal/telepath"
	"github.com/pumpfun-analytics/ingestor/internal/transport"
	"github.com/pumpfun-analytics/ingestor/internal/xlog"
)

func main() {
	flags := parseFlags()

	if err := runtimeenv.LoadEnv(flags.env); err != nil && !os.IsNotExist(err) {
		xlog.Warnf("ingestor: .env load failed: %v", err)
	}

	if os.Getenv("GOPS_AGENT") != "" {
		if err := agent.Listen(agent.Options{}); err != nil {
			xlog.Warnf("ingestor: gops agent failed: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		xlog.Info("ingestor: shutdown signal received")
		cancel()
	}()

	var err error
	switch flags.mode {
	case "block_parser":
		err = runBlockParser(ctx, flags)
	case "transaction_subscriber":
		err = runTransactionSubscriber(ctx, flags)
	case "local":
		err = runExport(ctx, flags)
	case "remote":
		err = runImport(ctx, flags)
	case "sync-check":
		err = runSyncCheck(ctx, flags)
	default:
		fmt.Fprintf(os.Stderr, "ingestor: invalid --mode %q\n", flags.mode)
		os.Exit(1)
	}

	if err != nil {
		xlog.Errorf("ingestor: %v", err)
		os.Exit(1)
	}
}

func runBlockParser(ctx context.Context, flags cliFlags) error {
	cfg, err := config.LoadArchive(flags.cfg)
	if err != nil {
		return err
	}

	st, err := store.Connect()
	if err != nil {
		return err
	}

	pool := flushpool.New(cfg.PoolSize())
	pipeline := batch.New(batch.Config{Threshold: 1000, Name: "archive"}, events.DefaultTableNames(), pool, st)
	go pipeline.Run(ctx)

	tracker := archive.NewTracker(cfg.ProcessedDir + "/processed_files.log")
	if err := tracker.Load(); err != nil {
		return err
	}

	proc, err := archive.NewProcessor(archive.Config{DataDir: cfg.DataDir, ShowProgress: true}, tracker, notImplementedConverter{}, pipeline)
	if err != nil {
		return err
	}

	// The fsnotify watch and the interval job can both trigger a scan;
	// scanMu keeps passes (and so pipeline.Drain) from overlapping.
	var scanMu sync.Mutex
	scanOnce := func() {
		scanMu.Lock()
		defer scanMu.Unlock()
		n, err := proc.ProcessPendingFiles(ctx)
		if err != nil {
			xlog.Fatalf("block_parser: %v", err)
		}
		xlog.Infof("block_parser: processed %d unit(s)", n)
	}

	scanOnce()

	if cfg.EnableWatch {
		if err := watchDataDir(ctx, cfg.DataDir, scanOnce); err != nil {
			xlog.Warnf("block_parser: fsnotify watch disabled: %v", err)
		}
	}

	runtimeenv.SystemdNotify(true, "scanning archive")
	if err := scheduler.Start(scheduler.Job{
		Name:     "archive-scan",
		Interval: cfg.ScanInterval(),
		Run:      scanOnce,
	}); err != nil {
		return err
	}

	<-ctx.Done()
	scheduler.Shutdown()
	pipeline.Close()
	return nil
}

// watchDataDir supplements the interval-based rescan with an fsnotify
// watch on dataDir: a create/write event triggers an immediate rescan.
// The interval timer remains the source of truth, since an inotify event
// can be missed or coalesced under load.
func watchDataDir(ctx context.Context, dataDir string, rescan func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: new watcher: %w", err)
	}
	if err := watcher.Add(dataDir); err != nil {
		watcher.Close()
		return fmt.Errorf("fsnotify: watch %s: %w", dataDir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					xlog.Debugf("block_parser: fsnotify %s, triggering rescan", event)
					rescan()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				xlog.Warnf("block_parser: fsnotify error: %v", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	xlog.Infof("block_parser: watching %s for new archive units", dataDir)
	return nil
}

func runTransactionSubscriber(ctx context.Context, flags cliFlags) error {
	cfg, err := config.LoadSubscriber(flags.cfg)
	if err != nil {
		return err
	}

	st, err := store.Connect()
	if err != nil {
		return err
	}

	bus.Connect(bus.Config{Address: cfg.NatsURL})
	client := bus.GetClient()
	if client == nil {
		return fmt.Errorf("transaction_subscriber: could not connect to %s", cfg.NatsURL)
	}

	tables := events.DefaultTableNames()
	applyTableOverrides(&tables, cfg.Tables)

	pool := flushpool.New(cfg.PoolSize())
	pipeline := batch.New(batch.Config{
		Threshold:       100,
		FlushInterval:   defaultLiveFlushInterval,
		SummaryInterval: defaultSummaryInterval,
		Name:            "live",
	}, tables, pool, st)
	go pipeline.Run(ctx)

	sub := liveingest.New(client, cfg.Topic, notImplementedConverter{}, pipeline)

	if cfg.Telepath != nil && cfg.Telepath.Enabled {
		pub, err := telepath.NewPublisher(ctx, client, telepath.StreamConfig{
			Name:          cfg.Telepath.Name,
			TTL:           cfg.Telepath.TTL(),
			MaxMsgs:       cfg.Telepath.MaxMsgs,
			MaxBytes:      cfg.Telepath.MaxBytes,
			MemoryBacked:  cfg.Telepath.MemoryBacked,
			DiscardOld:    cfg.Telepath.DiscardOld,
			SingleReplica: cfg.Telepath.SingleReplica,
		}, cfg.Telepath.SenderAgent)
		if err != nil {
			xlog.Warnf("transaction_subscriber: telepath init failed (non-fatal): %v", err)
		} else {
			sub = sub.WithTelepath(pub, cfg.Telepath.AuthorityLevel)
		}
	}

	if err := sub.Start(); err != nil {
		return err
	}

	runtimeenv.SystemdNotify(true, "subscribed")
	<-ctx.Done()
	client.Close()
	pipeline.Close()
	return nil
}

func runExport(ctx context.Context, flags cliFlags) error {
	cfg, err := config.LoadExport(flags.cfg)
	if err != nil {
		return err
	}
	st, err := store.Connect()
	if err != nil {
		return err
	}
	start, err := cfg.StartDate()
	if err != nil {
		return err
	}

	tr := transport.New()
	today := truncateToDay()

	for _, table := range cfg.Tables {
		for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
			rows, err := queryDayMapped(ctx, st, table, day, cfg.TableEventMappings)
			if err != nil {
				return fmt.Errorf("export %s %s: %w", table, day.Format("2006-01-02"), err)
			}
			if len(rows) == 0 {
				continue
			}

			path, err := parquetio.WriteDaily(cfg.LocalStoragePath, table, day, rows)
			if err != nil {
				return err
			}

			if err := tr.SyncDirectory(ctx, cfg.LocalStoragePath+"/"+table, transport.RemoteServer{
				Address:        cfg.RemoteServer.Address,
				Port:           cfg.RemoteServer.Port,
				Username:       cfg.RemoteServer.Username,
				PrivateKeyPath: cfg.RemoteServer.PrivateKeyPath,
				RemotePath:     cfg.RemoteServer.RemotePath,
			}); err != nil {
				return fmt.Errorf("export transfer %s: %w", path, err)
			}

			if err := os.Remove(path); err != nil {
				xlog.Warnf("export: cleanup %s failed: %v", path, err)
			}
		}
	}
	return nil
}

func runImport(ctx context.Context, flags cliFlags) error {
	cfg, err := config.LoadImport(flags.cfg)
	if err != nil {
		return err
	}
	st, err := store.Connect()
	if err != nil {
		return err
	}

	for folder, table := range cfg.ImportMappings {
		entries, err := os.ReadDir(folder)
		if os.IsNotExist(err) {
			xlog.Warnf("import: folder %s missing, skipping", folder)
			continue
		}
		if err != nil {
			return err
		}

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".parquet") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			path := filepath.Join(folder, name)
			if err := importFile(ctx, st, path, table, cfg.TableEventMappings); err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			xlog.Infof("import: loaded %s into %s", path, table)
		}
	}
	return nil
}

func runSyncCheck(ctx context.Context, flags cliFlags) error {
	cfg, err := config.LoadSync(flags.cfg)
	if err != nil {
		return err
	}
	if flags.checkDays > 0 {
		cfg.CheckDays = flags.checkDays
	}
	if flags.lagHours > 0 {
		cfg.LagHours = flags.lagHours
	}
	if flags.localURL != "" {
		cfg.LocalURL = flags.localURL
	}
	if flags.remoteURL != "" {
		cfg.RemoteURL = flags.remoteURL
	}
	if flags.mapping != "" {
		cfg.TableMappings = make(map[string]string)
		for _, pair := range strings.Split(flags.mapping, ",") {
			l, r, ok := strings.Cut(pair, ":")
			if !ok || l == "" || r == "" {
				return fmt.Errorf("sync-check: invalid --map entry %q, want local:remote", pair)
			}
			cfg.TableMappings[l] = r
		}
	}

	local, err := store.New(cfg.LocalURL, cfg.LocalUser, cfg.LocalDatabase, cfg.LocalPassword)
	if err != nil {
		return fmt.Errorf("sync-check: local connect: %w", err)
	}
	defer local.Close()

	remote, err := store.New(cfg.RemoteURL, cfg.RemoteUser, cfg.RemoteDatabase, cfg.RemotePassword)
	if err != nil {
		return fmt.Errorf("sync-check: remote connect: %w", err)
	}
	defer remote.Close()

	var mappings []reconcile.Mapping
	for l, r := range cfg.TableMappings {
		mappings = append(mappings, reconcile.Mapping{LocalTable: l, RemoteTable: r})
	}

	engine := reconcile.New(local, remote, reconcile.SourceInfo{
		HostPort: cfg.LocalURL,
		Database: cfg.LocalDatabase,
		Username: cfg.LocalUser,
		Password: cfg.LocalPassword,
	}, reconcile.Config{CheckDays: cfg.CheckDays, LagHours: cfg.LagHours})

	stats := engine.Run(ctx, nowFn(), mappings)
	xlog.Infof("sync-check: tables=%d diff_hours=%d diff_minutes=%d synced=%d errors=%d",
		stats.TotalTables, stats.DiffHours, stats.DiffMinutes, stats.SyncedRecords, len(stats.Errors))

	if len(stats.Errors) > 0 {
		for _, e := range stats.Errors {
			xlog.Errorf("sync-check: %v", e)
		}
		os.Exit(1)
	}
	return nil
}

func applyTableOverrides(tables *events.TableNames, overrides map[string]string) {
	set := func(dst *string, key string) {
		if v, ok := overrides[key]; ok {
			*dst = v
		}
	}
	set(&tables.Trade, "trade")
	set(&tables.Create, "create")
	set(&tables.Migrate, "migrate")
	set(&tables.AmmBuy, "amm_buy")
	set(&tables.AmmSell, "amm_sell")
	set(&tables.AmmCreatePool, "amm_create_pool")
	set(&tables.AmmDeposit, "amm_deposit")
	set(&tables.AmmWithdraw, "amm_withdraw")
}
