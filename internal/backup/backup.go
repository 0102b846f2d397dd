// Package backup snapshots project configuration into timestamped
// directories under .moai-backups/ before state-changing commands run.
package backup

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/modu-ai/moai-dispatch/internal/defs"
)

// ErrNotDirectory indicates the backups path exists but is a file.
var ErrNotDirectory = errors.New("backup: backups path is not a directory")

// Metadata is written as backup.json inside every snapshot.
type Metadata struct {
	Timestamp      string   `json:"timestamp"`
	Description    string   `json:"description"`
	BackedUpItems  []string `json:"backed_up_items"`
	MissingSources []string `json:"missing_sources,omitempty"`
	ProjectRoot    string   `json:"project_root"`
	BackupType     string   `json:"backup_type"`
}

// Service creates and prunes snapshots for one project root.
type Service struct {
	root    string
	dir     string
	sources []string
	keep    int
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for snapshot names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithKeep prunes to n snapshots after every successful Create. Zero disables.
func WithKeep(n int) Option {
	return func(s *Service) { s.keep = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New returns a Service. dir and sources are relative to root unless absolute.
// An empty dir defaults to .moai-backups.
func New(root, dir string, sources []string, opts ...Option) *Service {
	if dir == "" {
		dir = defs.BackupsDir
	}
	s := &Service{
		root:    filepath.Clean(root),
		dir:     dir,
		sources: slices.Clone(sources),
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the absolute backups directory.
func (s *Service) Dir() string {
	return s.abs(s.dir)
}

func (s *Service) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(s.root, p)
}

// Create copies every source into a new timestamped snapshot directory and
// writes backup.json. Missing sources are recorded in the metadata rather
// than failing the snapshot. On error the partial snapshot is removed.
func (s *Service) Create(ctx context.Context) (string, error) {
	timestamp := s.now().Format(defs.BackupTimestampFormat)
	backupDir, err := s.reserve(timestamp)
	if err != nil {
		return "", err
	}

	meta := Metadata{
		Timestamp:     timestamp,
		Description:   "pre_dispatch_backup",
		BackedUpItems: []string{},
		ProjectRoot:   s.root,
		BackupType:    "dispatch",
	}

	for _, src := range s.sources {
		items, err := s.copySource(ctx, src, backupDir)
		if errors.Is(err, fs.ErrNotExist) {
			meta.MissingSources = append(meta.MissingSources, filepath.ToSlash(src))
			continue
		}
		if err != nil {
			_ = os.RemoveAll(backupDir)
			return "", fmt.Errorf("copy %s: %w", src, err)
		}
		meta.BackedUpItems = append(meta.BackedUpItems, items...)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		_ = os.RemoveAll(backupDir)
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(backupDir, defs.BackupMetadataJSON), data, defs.FilePerm); err != nil {
		_ = os.RemoveAll(backupDir)
		return "", fmt.Errorf("write metadata: %w", err)
	}

	s.logger.Debug("backup created", "dir", backupDir, "items", len(meta.BackedUpItems))

	if s.keep > 0 {
		if _, err := s.Prune(s.keep); err != nil {
			s.logger.Warn("backup prune failed", "error", err)
		}
	}
	return backupDir, nil
}

// reserve creates the snapshot directory, suffixing the name when a
// snapshot with the same second already exists.
func (s *Service) reserve(timestamp string) (string, error) {
	base := s.Dir()
	if err := os.MkdirAll(base, defs.DirPerm); err != nil {
		return "", fmt.Errorf("create backups directory: %w", err)
	}
	name := timestamp
	for i := 1; ; i++ {
		dir := filepath.Join(base, name)
		err := os.Mkdir(dir, defs.DirPerm)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create backup directory: %w", err)
		}
		name = fmt.Sprintf("%s-%d", timestamp, i)
	}
}

// copySource copies a file or directory tree under backupDir, preserving
// its path relative to the project root. Returned items use forward slashes.
func (s *Service) copySource(ctx context.Context, src, backupDir string) ([]string, error) {
	srcAbs := s.abs(src)
	if _, err := os.Stat(srcAbs); err != nil {
		return nil, err
	}

	var items []string
	err := filepath.WalkDir(srcAbs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path == s.Dir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			// Sources outside the root keep their path relative to the source.
			rel, err = filepath.Rel(filepath.Dir(srcAbs), path)
			if err != nil {
				return err
			}
		}

		dst := filepath.Join(backupDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), defs.DirPerm); err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, defs.FilePerm); err != nil {
			return err
		}
		items = append(items, filepath.ToSlash(rel))
		return nil
	})
	return items, err
}

// List returns snapshot names, oldest first.
func (s *Service) List() ([]string, error) {
	info, err := os.Stat(s.Dir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat backups directory: %w", err)
	}
	if !info.IsDir() {
		return nil, ErrNotDirectory
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		return nil, fmt.Errorf("read backups directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && isSnapshotName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.SortFunc(names, compareSnapshots)
	return names, nil
}

// compareSnapshots orders by timestamp, then by the numeric collision
// suffix, so 20260102_030405-10 sorts after 20260102_030405-9.
func compareSnapshots(a, b string) int {
	stampA, seqA, _ := parseSnapshotName(a)
	stampB, seqB, _ := parseSnapshotName(b)
	if c := strings.Compare(stampA, stampB); c != 0 {
		return c
	}
	return cmp.Compare(seqA, seqB)
}

// Prune deletes the oldest snapshots so that at most keep remain and returns
// how many were deleted. Directories that do not look like snapshots are
// left alone.
func (s *Service) Prune(keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("backup: keep must be non-negative, got %d", keep)
	}
	names, err := s.List()
	if err != nil {
		return 0, err
	}
	if len(names) <= keep {
		return 0, nil
	}

	var errs []error
	deleted := 0
	for _, name := range names[:len(names)-keep] {
		if err := os.RemoveAll(filepath.Join(s.Dir(), name)); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
			continue
		}
		deleted++
	}
	s.logger.Debug("backups pruned", "deleted", deleted, "kept", keep)
	return deleted, errors.Join(errs...)
}

// isSnapshotName matches YYYYMMDD_HHMMSS with an optional -N suffix.
func isSnapshotName(name string) bool {
	_, _, ok := parseSnapshotName(name)
	return ok
}

// parseSnapshotName splits a snapshot name into its timestamp and collision
// suffix. An unsuffixed name has sequence 0.
func parseSnapshotName(name string) (stamp string, seq int, ok bool) {
	stamp, suffix, hasSuffix := strings.Cut(name, "-")
	if len(stamp) != len(defs.BackupTimestampFormat) {
		return "", 0, false
	}
	if _, err := time.Parse(defs.BackupTimestampFormat, stamp); err != nil {
		return "", 0, false
	}
	if !hasSuffix {
		return stamp, 0, true
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 1 || strconv.Itoa(n) != suffix {
		return "", 0, false
	}
	return stamp, n, true
}

// ReadMetadata loads backup.json from a snapshot directory.
func ReadMetadata(snapshotDir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(snapshotDir, defs.BackupMetadataJSON))
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return &meta, nil
}
