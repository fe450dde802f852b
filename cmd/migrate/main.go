// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

// Package main is the entry point for the Inkporter migration CLI.
//
// Inkporter migrates a legacy WordPress blog into a modern headless CMS.
// It reads a SQL dump directly (no live database needed), maps posts,
// pages, authors and taxonomies into destination documents, migrates every
// referenced image into the destination asset store, rewrites embedded
// HTML to point at the CDN, and writes documents through the destination
// API one record at a time.
//
// # Pipeline
//
// A run proceeds in the following order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML file, env)
//  2. Dump parsing: tolerant INSERT tokenizer over the configured tables
//  3. Record mapping: rows become typed posts, users and terms
//  4. Destination ping: fail fast before touching any record
//  5. Migration: per-record state machine with pacing and idempotent IDs
//  6. Report: human summary on stdout, optional JSON via --report
//
// # Usage
//
// Dry run against a local dump, nothing written:
//
//	inkporter --dump backup.sql --dry-run
//
// Full migration:
//
//	export INKPORTER_DESTINATION_API_URL=https://cms.example.com/api
//	export INKPORTER_DESTINATION_API_TOKEN=...
//	export INKPORTER_DESTINATION_ASSET_UPLOAD_URL=https://cms.example.com/assets
//	export INKPORTER_DESTINATION_CDN_BASE_URL=https://cdn.example.com
//	inkporter --dump backup.sql
//
// Reruns are safe: existing documents are skipped unless --force is given.
// A run interrupted with SIGINT or SIGTERM stops at the next record
// boundary and still prints its report.
//
// # Exit codes
//
// Setup failures (config, dump parsing, unreachable destination) exit
// nonzero. Per-record failures do not: they are counted, reported, and
// retried on the next run.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/inkporter/internal/config"
	"github.com/tomtom215/inkporter/internal/destination"
	"github.com/tomtom215/inkporter/internal/legacy"
	"github.com/tomtom215/inkporter/internal/logging"
	"github.com/tomtom215/inkporter/internal/media"
	"github.com/tomtom215/inkporter/internal/migrate"
	"github.com/tomtom215/inkporter/internal/sqldump"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.Error().Err(err).Msg("Migration aborted")
		os.Exit(1)
	}
}

// runFlags are the CLI run policies; they override config where given.
type runFlags struct {
	dumpPath     string
	dryRun       bool
	skipExisting bool
	force        bool
	featuredOnly bool
	contentOnly  bool
	limit        int
	reportPath   string
}

// newRootCmd builds the inkporter command tree.
func newRootCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "inkporter",
		Short: "Migrate a legacy WordPress SQL dump into a headless CMS",
		Long: `Inkporter reads a legacy WordPress SQL dump, maps its posts, pages,
authors and taxonomies into destination documents, migrates referenced
images into the destination asset store, rewrites embedded HTML, and
writes documents through the destination API one record at a time.

Reruns are idempotent: existing documents are skipped unless --force is
given, and an interrupted run leaves every record either fully migrated
or untouched.`,
		Example: `  # Dry run against a local dump, nothing written
  inkporter --dump backup.sql --dry-run

  # Full migration, JSON report alongside the summary
  inkporter --dump backup.sql --report run.json

  # Re-migrate the first 10 records even if they exist
  inkporter --dump backup.sql --limit 10 --force`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, &flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.dumpPath, "dump", "", "path to the legacy SQL dump (overrides source.dump_path)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "execute the full pipeline without writing to the destination")
	f.BoolVar(&flags.skipExisting, "skip-existing", true, "skip records whose destination document already exists (overrides migration.skip_existing)")
	f.BoolVar(&flags.force, "force", false, "re-migrate records whose destination document already exists")
	f.BoolVar(&flags.featuredOnly, "featured-only", false, "migrate featured images only")
	f.BoolVar(&flags.contentOnly, "content-only", false, "rewrite post bodies only, ignore featured images")
	f.IntVar(&flags.limit, "limit", 0, "process at most N records (0 = all)")
	f.StringVar(&flags.reportPath, "report", "", "also write the run report as JSON to this file")
	cmd.MarkFlagsMutuallyExclusive("featured-only", "content-only")

	return cmd
}

// run executes one migration: config, parsing, clients, orchestration,
// report. Setup failures return an error; per-record failures do not.
func run(cmd *cobra.Command, flags *runFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	dumpPath := flags.dumpPath
	if dumpPath == "" {
		dumpPath = cfg.Source.DumpPath
	}
	if dumpPath == "" {
		return errors.New("no dump file: set --dump or source.dump_path")
	}

	raw, err := os.ReadFile(dumpPath)
	if err != nil {
		return fmt.Errorf("read dump file: %w", err)
	}
	dump := string(raw)
	logging.Info().Str("path", dumpPath).Int("bytes", len(raw)).Msg("Dump loaded")

	posts, users, ps, err := parseDump(dump, cfg.Source.TablePrefix)
	if err != nil {
		return err
	}

	store, assets, err := buildClients(cfg, flags.dryRun)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Fail fast before touching any record.
	pingCtx, cancel := context.WithTimeout(ctx, cfg.Destination.Timeout)
	err = store.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("destination store unreachable: %w", err)
	}

	downloader := media.NewHTTPDownloader(media.HTTPDownloaderConfig{
		UploadsPrefix: cfg.Media.UploadsPrefix,
		StorageBase:   cfg.Media.StorageBase,
		Timeout:       cfg.Media.DownloadTimeout,
	})
	migrator := media.NewMigrator(media.Config{
		DestinationHost:     hostOf(cfg.Destination.CDNBaseURL),
		UnreachablePrefixes: cfg.Media.UnreachablePrefixes,
		Folder:              cfg.Media.Folder,
		Params: destination.ImageParams{
			Width:      cfg.Media.ImageWidth,
			Quality:    cfg.Media.ImageQuality,
			AutoFormat: cfg.Media.AutoFormat,
		},
	}, downloader, assets)

	// The flag only overrides the config value when given explicitly.
	skip := cfg.Migration.SkipExisting
	if cmd.Flags().Changed("skip-existing") {
		skip = flags.skipExisting
	}

	orch := migrate.New(store, migrator, migrate.Options{
		DryRun:       flags.dryRun,
		SkipExisting: skip && !flags.force,
		Force:        flags.force,
		FeaturedOnly: flags.featuredOnly,
		ContentOnly:  flags.contentOnly,
		Limit:        flags.limit,
		Delay:        cfg.Migration.Delay,
	})

	report, runErr := orch.Run(ctx, posts, users)
	report.DroppedRows = ps.droppedRows
	report.NullDates = ps.nullDates
	report.OrphanTaxonomies = ps.orphanTaxonomies
	report.DroppedTrash = ps.droppedTrash
	report.DroppedByType = ps.droppedByType
	report.UnknownStatuses = ps.unknownStatuses
	report.ShortRows = ps.shortRows
	report.UnknownTaxonomies = ps.unknownTaxonomies

	report.Print(cmd.OutOrStdout())
	if flags.reportPath != "" {
		writeReport(report, flags.reportPath)
	}

	if runErr != nil {
		return fmt.Errorf("run aborted: %w", runErr)
	}
	return nil
}

// parseStats carries the tolerant-parsing fallback counts into the report.
type parseStats struct {
	droppedRows       int
	nullDates         int
	orphanTaxonomies  int
	droppedTrash      int
	droppedByType     int
	unknownStatuses   int
	shortRows         int
	unknownTaxonomies int
}

// parseDump tokenizes and maps every legacy table. A dump without a posts
// table is an error; the auxiliary tables degrade to warnings because
// partial dumps are common.
func parseDump(dump, tablePrefix string) ([]legacy.Post, []legacy.User, parseStats, error) {
	tables := legacy.TablesFor(tablePrefix)
	mapper := legacy.NewMapper()
	var ps parseStats

	postCols, postRows, ok, err := loadTable(dump, tables.Posts, &ps)
	if err != nil {
		return nil, nil, ps, err
	}
	if !ok {
		return nil, nil, ps, fmt.Errorf("posts table %s not found in dump", tables.Posts)
	}
	posts := mapper.Posts(postCols, postRows)

	var users []legacy.User
	if userCols, userRows, ok, err := loadTable(dump, tables.Users, &ps); err != nil {
		return nil, nil, ps, err
	} else if ok {
		users = mapper.Users(userCols, userRows)
	}

	termCols, termRows, haveTerms, err := loadTable(dump, tables.Terms, &ps)
	if err != nil {
		return nil, nil, ps, err
	}
	taxCols, taxRows, haveTax, err := loadTable(dump, tables.TermTaxonomy, &ps)
	if err != nil {
		return nil, nil, ps, err
	}
	relCols, relRows, haveRels, err := loadTable(dump, tables.TermRelationships, &ps)
	if err != nil {
		return nil, nil, ps, err
	}
	if haveTerms && haveTax && haveRels {
		terms := mapper.ResolveTerms(termCols, termRows, taxCols, taxRows)
		posts = mapper.AttachTerms(posts, relCols, relRows, terms)
	}

	if metaCols, metaRows, ok, err := loadTable(dump, tables.PostMeta, &ps); err != nil {
		return nil, nil, ps, err
	} else if ok {
		attachmentURLs := mapper.BuildAttachmentURLs(postCols, postRows)
		posts = mapper.AttachFeatured(posts, metaCols, metaRows, attachmentURLs)
	}

	stats := mapper.Stats()
	ps.nullDates = stats.NullDates
	ps.orphanTaxonomies = stats.OrphanTaxonomies
	ps.droppedTrash = stats.DroppedTrash
	ps.droppedByType = stats.DroppedType
	ps.unknownStatuses = stats.UnknownStatus
	ps.shortRows = stats.ShortRows
	ps.unknownTaxonomies = stats.UnknownTaxonomies

	logging.Info().
		Int("posts", len(posts)).
		Int("users", len(users)).
		Int("dropped_rows", ps.droppedRows).
		Msg("Dump parsed")
	return posts, users, ps, nil
}

// loadTable extracts one table's columns and rows. Returns ok=false when
// the table is absent from the dump.
func loadTable(dump, table string, ps *parseStats) ([]string, []sqldump.Row, bool, error) {
	rows, stats, err := sqldump.Tokenize(dump, table)
	if err != nil {
		if errors.Is(err, sqldump.ErrTableNotFound) {
			logging.Warn().Str("table", table).Msg("Table not found in dump, skipping")
			return nil, nil, false, nil
		}
		return nil, nil, false, fmt.Errorf("tokenize table %s: %w", table, err)
	}
	ps.droppedRows += stats.DroppedRows

	columns, err := sqldump.Columns(dump, table)
	if err != nil {
		if columns = legacy.DefaultColumns(table); columns == nil {
			return nil, nil, false, fmt.Errorf("table %s: no column list in dump and no known schema", table)
		}
		logging.Debug().Str("table", table).Msg("No column list in dump, using well-known schema")
	}
	return columns, rows, true, nil
}

// buildClients wires the destination clients. A dry run with no destination
// configured falls back to in-memory stubs so the pipeline can still be
// exercised against a bare dump.
func buildClients(cfg *config.Config, dryRun bool) (destination.DocumentStore, destination.AssetService, error) {
	if cfg.Destination.APIURL == "" {
		if !dryRun {
			return nil, nil, errors.New("destination.api_url is required (or use --dry-run)")
		}
		logging.Warn().Msg("No destination configured, dry run uses an in-memory store")
		return destination.NewMemoryStore(), destination.NewMemoryAssets(), nil
	}

	store := destination.NewHTTPStore(destination.HTTPStoreConfig{
		BaseURL: cfg.Destination.APIURL,
		Token:   cfg.Destination.APIToken,
		Timeout: cfg.Destination.Timeout,
	})
	assets := destination.NewHTTPAssets(destination.HTTPAssetsConfig{
		UploadURL:  cfg.Destination.AssetUploadURL,
		CDNBaseURL: cfg.Destination.CDNBaseURL,
		Token:      cfg.Destination.APIToken,
		Timeout:    cfg.Destination.Timeout,
	})
	return store, assets, nil
}

// hostOf extracts the host from a base URL, for pass-through detection.
func hostOf(baseURL string) string {
	if baseURL == "" {
		return ""
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	return u.Host
}

// writeReport renders the report as JSON next to the human summary.
func writeReport(report *migrate.Report, path string) {
	data, err := report.JSON()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to render report JSON")
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logging.Error().Err(err).Str("path", path).Msg("Failed to write report file")
		return
	}
	logging.Info().Str("path", path).Msg("Report written")
}
