// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// minimalDump is one published post in a column-list-free wp_posts INSERT,
// exercising the well-known schema fallback end to end.
const minimalDump = "INSERT INTO `wp_posts` VALUES " +
	"(1,1,'2020-01-01 00:00:00','2020-01-01 00:00:00','<p>hello</p>','Hello World','','publish'," +
	"'open','open','','hello-world','','','2020-01-01 00:00:00','2020-01-01 00:00:00',''," +
	"0,'http://old/?p=1',0,'post','',0);\n"

func writeDump(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.sql")
	if err := os.WriteFile(path, []byte(minimalDump), 0o600); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	return path
}

func TestRootCommandDryRun(t *testing.T) {
	cmd := newRootCmd()
	var out strings.Builder
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--dump", writeDump(t), "--dry-run"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	summary := out.String()
	if !strings.Contains(summary, "(dry run)") {
		t.Errorf("summary missing dry-run marker:\n%s", summary)
	}
	if !strings.Contains(summary, "migrated: 1") {
		t.Errorf("summary missing migrated count:\n%s", summary)
	}
}

func TestRootCommandRequiresDump(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--dry-run"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("Execute() error = nil, want missing-dump error")
	}
	if !strings.Contains(err.Error(), "dump") {
		t.Errorf("error = %q, want mention of the dump file", err)
	}
}

func TestRootCommandExclusiveFlags(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--dump", "x.sql", "--featured-only", "--content-only"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("Execute() error = nil, want mutually-exclusive flag error")
	}
}

func TestRootCommandWritesJSONReport(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "run.json")
	cmd := newRootCmd()
	cmd.SetOut(&strings.Builder{})
	cmd.SetArgs([]string{"--dump", writeDump(t), "--dry-run", "--report", reportPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(data), `"migrated": 1`) {
		t.Errorf("report JSON missing migrated count:\n%s", data)
	}
}
