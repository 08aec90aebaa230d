package core

import (
	"cmp"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/huangsam/corpusmetrics/internal/admission"
	"github.com/huangsam/corpusmetrics/internal/telemetry"
	"github.com/huangsam/corpusmetrics/schema"
)

// ListRepositories finds the owner/repo directories two levels below root, sorted by ID.
// An unreadable root is an error; an unreadable owner directory costs only its own
// repositories and is reported as a subtree diagnostic.
func ListRepositories(ctrl *admission.Controller, root string) ([]schema.Repository, []schema.Diagnostic, error) {
	owners, err := listDirs(ctrl, root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list corpus root %s: %w", root, err)
	}

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		repos []schema.Repository
		diags []schema.Diagnostic
	)
	for _, owner := range owners {
		wg.Go(func() {
			ownerDir := filepath.Join(root, owner)
			names, err := listDirs(ctrl, ownerDir)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				telemetry.Diagnostics.WithLabelValues(string(schema.SubtreeDiagnostic)).Inc()
				diags = append(diags, schema.NewDiagnostic(schema.SubtreeDiagnostic, ownerDir, err))
				return
			}
			for _, name := range names {
				repos = append(repos, schema.Repository{
					ID:   owner + "/" + name,
					Root: filepath.Join(ownerDir, name),
				})
			}
		})
	}
	wg.Wait()

	slices.SortFunc(repos, func(a, b schema.Repository) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(diags, func(a, b schema.Diagnostic) int { return cmp.Compare(a.Path, b.Path) })
	return repos, diags, nil
}

// listDirs returns the names of the directories in dir, following symbolic links.
func listDirs(ctrl *admission.Controller, dir string) ([]string, error) {
	entries, err := admission.Do(ctrl, func() ([]fs.DirEntry, error) {
		telemetry.DirectoriesListed.Inc()
		return os.ReadDir(dir)
	})
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
			continue
		}
		if entry.Type()&fs.ModeSymlink == 0 {
			continue
		}
		info, err := admission.Do(ctrl, func() (fs.FileInfo, error) {
			return os.Stat(filepath.Join(dir, entry.Name()))
		})
		if err == nil && info.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
