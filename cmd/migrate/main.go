// ABOUTME: Copies every document collection from one store backend to another.
// ABOUTME: Provides dry-run and backup capabilities for safe migration between sqlite, badger, and charm.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/harperreed/prospecta/cli"
	"github.com/harperreed/prospecta/config"
	"github.com/harperreed/prospecta/store"
)

func main() {
	fromBackend := flag.String("from-backend", config.BackendSQLite, "Source backend (sqlite, badger, charm)")
	fromPath := flag.String("from-path", "", "Source database file or directory")
	toBackend := flag.String("to-backend", config.BackendCharm, "Destination backend (sqlite, badger, charm)")
	toPath := flag.String("to-path", "", "Destination database file or directory")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Back up a sqlite destination before writing")
	flag.Parse()

	if *fromBackend == *toBackend && *fromPath == *toPath {
		log.Fatal("Error: source and destination are the same store")
	}

	if err := migrate(context.Background(), *fromBackend, *fromPath, *toBackend, *toPath, *dryRun, *backup); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}

func migrate(ctx context.Context, fromBackend, fromPath, toBackend, toPath string, dryRun, createBackup bool) error {
	src, err := openBackend(fromBackend, fromPath)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() { _ = src.Close() }()

	if createBackup && !dryRun && toBackend == config.BackendSQLite {
		if err := backupFile(toPath); err != nil {
			return err
		}
	}

	var dst store.Documents
	if !dryRun {
		dst, err = openBackend(toBackend, toPath)
		if err != nil {
			return fmt.Errorf("failed to open destination: %w", err)
		}
		defer func() { _ = dst.Close() }()
	}

	counts, err := copyDocuments(ctx, src, dst)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	verb := "Copied"
	if dryRun {
		verb = "Would copy"
	}
	for _, name := range names {
		log.Printf("%s %d document(s) in %s", verb, counts[name], name)
	}
	return nil
}

// copyDocuments copies every document from src into dst, replacing existing ones.
// A nil dst only counts.
func copyDocuments(ctx context.Context, src, dst store.Documents) (map[string]int, error) {
	names, err := src.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	counts := make(map[string]int, len(names))
	for _, name := range names {
		docs, err := src.List(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", name, err)
		}
		counts[name] = len(docs)
		if dst == nil {
			continue
		}
		for id, doc := range docs {
			if err := dst.Put(ctx, name, id, doc); err != nil {
				return nil, fmt.Errorf("failed to write %s/%s: %w", name, id, err)
			}
		}
	}
	return counts, nil
}

func openBackend(backend, path string) (store.Documents, error) {
	cfg := config.Default()
	cfg.Store.Backend = backend
	if path != "" {
		cfg.Store.Path = path
	}
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	return cli.OpenStore(cfg)
}

func backupFile(path string) error {
	input, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read destination for backup: %w", err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	log.Printf("Creating backup: %s", backupPath)
	if err := os.WriteFile(backupPath, input, 0644); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	log.Printf("Backup created successfully")
	return nil
}
