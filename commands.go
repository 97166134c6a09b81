package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"scooper-dashboard/metrics"
	"scooper-dashboard/server"
	"scooper-dashboard/services"
	"scooper-dashboard/storage"
	"scooper-dashboard/table"
)

var (
	exportDir  string
	serveAddr  string
	seedPrefix string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "print the dashboard to the terminal",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "write every dashboard view as CSV",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve the dashboard as a JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var seedCmd = &cobra.Command{
	Use:   "seed <dir>",
	Short: "load every CSV under dir into the snapshot store",
	Long: `Walks dir and stores each .csv file under <prefix>/<relative path>, so a
local copy of the scraper output can back the sqlite or postgres store.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "out", "o", "", "output directory (default $EXPORT_DIR)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $HTTP_ADDR)")
	seedCmd.Flags().StringVar(&seedPrefix, "prefix", "scoops-finder", "key prefix for seeded snapshots")
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	d, closeStore, err := newDashboard(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	snap, err := d.Build(ctx)
	if err != nil {
		return err
	}
	d.Insights().Print(cmd.OutOrStdout(), snap)
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if exportDir == "" {
		exportDir = cfg.ExportDir
	}

	d, closeStore, err := newDashboard(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	snap, err := d.Build(ctx)
	if err != nil {
		return err
	}

	views := map[string]*table.Table{
		"timeline.csv":          services.TimelineTable(snap.Timeline.Events),
		"brand_changelog.csv":   services.PivotTable(snap.Changelog),
		"brand_current.csv":     services.BrandCountTable(snap.CurrentCounts),
		"recent_placements.csv": services.PlacementTable(snap.RecentPlacements),
	}

	var registries []string
	for name := range services.RegistryChangelogs(rules.Feeds) {
		registries = append(registries, name)
	}
	sort.Strings(registries)
	for _, name := range registries {
		t, err := d.Changelog(ctx, name)
		if err != nil {
			logger.Warn("[export] skipping %s changelog: %v", name, err)
			continue
		}
		views["changelog-"+name+".csv"] = t
	}

	written := 0
	for file, t := range views {
		if err := writeCSV(filepath.Join(exportDir, file), t); err != nil {
			logger.Error("[export] %v", err)
			continue
		}
		written++
	}

	logger.Info("[export] wrote %d files to %s", written, exportDir)
	if failed := snap.FailedFeeds(); failed > 0 {
		logger.Warn("[export] %d of %d source feeds failed to load", failed, len(snap.Feeds))
	}
	if written < len(views) {
		return fmt.Errorf("export: %d of %d files failed", len(views)-written, len(views))
	}
	return nil
}

func writeCSV(file string, t *table.Table) error {
	w, err := storage.NewCSVWriter(file)
	if err != nil {
		return err
	}
	if err := w.WriteRecords(t.Records()); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", file, err)
	}
	return w.Close()
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveAddr == "" {
		serveAddr = cfg.HTTPAddr
	}

	d, closeStore, err := newDashboard(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := server.NewServer(d, rules.Views, metrics.NewRegistry(), logger)
	return srv.Run(ctx, serveAddr)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root := args[0]

	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	return seed(ctx, store, root, seedPrefix)
}

func seed(ctx context.Context, w storage.SnapshotWriter, root, prefix string) error {
	n := 0
	err := filepath.WalkDir(root, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() || !strings.EqualFold(filepath.Ext(p), ".csv") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		body, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		key := path.Join(prefix, filepath.ToSlash(rel))
		if err := w.Put(ctx, key, body); err != nil {
			return err
		}
		logger.Debug("[seed] %s (%d bytes)", key, len(body))
		n++
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	logger.Info("[seed] stored %d snapshots", n)
	return nil
}
