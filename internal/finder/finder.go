// Package finder discovers compatibility test reports on disk.
//
// The layout it expects is a bundle directory holding one directory per
// suite, each holding any number of report directories, possibly inside
// zip archives and arbitrarily nested. Suite directories are returned
// newest first; reports inside a suite directory oldest first.
package finder

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/xtsmerge/internal/parser"
	"github.com/agentstation/xtsmerge/pkg/errors"
)

// Report is one discovered report directory.
type Report struct {
	// Dir is where the report lives on disk, inside the work directory
	// when it came out of an archive.
	Dir string `json:"dir" yaml:"dir"`
	// Source is the location shown to users: Dir, or the archive path
	// followed by "::" and the path inside it.
	Source  string            `json:"source" yaml:"source"`
	Suite   string            `json:"suite" yaml:"suite"`
	Start   time.Time         `json:"start" yaml:"start"`
	Missing []parser.Artifact `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// SuiteDir is a directory holding the reports of one suite.
type SuiteDir struct {
	Path    string    `json:"path" yaml:"path"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	Reports []Report  `json:"reports" yaml:"reports"`
}

// Skipped records an entry discovery could not use.
type Skipped struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// Result is the outcome of Find.
type Result struct {
	Root    string     `json:"root" yaml:"root"`
	Dirs    []SuiteDir `json:"dirs" yaml:"dirs"`
	Skipped []Skipped  `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	workDir string
	owned   bool
}

// Reports returns every discovered report.
func (r *Result) Reports() []Report {
	var out []Report
	for _, d := range r.Dirs {
		out = append(out, d.Reports...)
	}
	return out
}

// BySuite groups the discovered reports by suite identity regardless of
// the directory they were found in.
func (r *Result) BySuite() map[string][]Report {
	out := make(map[string][]Report)
	for _, rep := range r.Reports() {
		out[rep.Suite] = append(out[rep.Suite], rep)
	}
	return out
}

// Cleanup removes the extraction directory when Find created it.
func (r *Result) Cleanup() error {
	if !r.owned || r.workDir == "" {
		return nil
	}
	if err := os.RemoveAll(r.workDir); err != nil {
		return errors.WrapIO("remove", r.workDir, err)
	}
	return nil
}

// Find discovers the suite directories below root.
func Find(ctx context.Context, root string, opts ...Option) (*Result, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}

	root, err = filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapIO("resolve", root, err)
	}
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("directory", root)
	}
	if err != nil {
		return nil, errors.WrapIO("stat", root, err)
	}
	if !info.IsDir() {
		return nil, errors.NewValidationError("root", root, "not a directory")
	}

	res := &Result{Root: root, workDir: o.workDir}
	if o.unpack && res.workDir == "" {
		if res.workDir, err = os.MkdirTemp("", "xtsmerge-unpack-"); err != nil {
			return nil, errors.WrapIO("create", os.TempDir(), err)
		}
		res.owned = true
	}

	candidates, err := suiteDirs(root, o)
	if err != nil {
		_ = res.Cleanup()
		return nil, err
	}

	scanned := make([]scan, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, c := range candidates {
		g.Go(func() error {
			s := &scanner{
				opts:    o,
				workDir: filepath.Join(res.workDir, fmt.Sprintf("%02d-%s", i, filepath.Base(c.Path))),
				logger:  o.logger.With().Str("suite_dir", c.Path).Logger(),
			}
			if err := s.walk(gctx, c.Path, "", 0); err != nil {
				return err
			}
			scanned[i] = scan{dir: c, reports: s.reports, skipped: s.skipped}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = res.Cleanup()
		return nil, err
	}

	for _, sc := range scanned {
		res.Skipped = append(res.Skipped, sc.skipped...)
		if len(sc.reports) == 0 {
			o.logger.Debug().Str("dir", sc.dir.Path).Msg("No report in directory")
			continue
		}
		sort.SliceStable(sc.reports, func(i, j int) bool {
			return sc.reports[i].Start.Before(sc.reports[j].Start)
		})
		sc.dir.Reports = sc.reports
		res.Dirs = append(res.Dirs, sc.dir)
	}

	o.logger.Info().
		Str("root", root).
		Int("suite_dirs", len(res.Dirs)).
		Int("reports", len(res.Reports())).
		Int("skipped", len(res.Skipped)).
		Msg("Discovered reports")
	return res, nil
}

type scan struct {
	dir     SuiteDir
	reports []Report
	skipped []Skipped
}

// suiteDirs lists the directories to scan, newest first. A root that is
// itself a report is its own suite directory.
func suiteDirs(root string, o *options) ([]SuiteDir, error) {
	if parser.IsReport(root) {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.WrapIO("stat", root, err)
		}
		return []SuiteDir{{Path: root, ModTime: info.ModTime()}}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.WrapIO("read", root, err)
	}
	var dirs []SuiteDir
	for _, e := range entries {
		if !e.IsDir() || o.excludes.Match(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, errors.WrapIO("stat", filepath.Join(root, e.Name()), err)
		}
		dirs = append(dirs, SuiteDir{Path: filepath.Join(root, e.Name()), ModTime: info.ModTime()})
	}
	sort.SliceStable(dirs, func(i, j int) bool {
		if !dirs[i].ModTime.Equal(dirs[j].ModTime) {
			return dirs[i].ModTime.After(dirs[j].ModTime)
		}
		return dirs[i].Path < dirs[j].Path
	})
	return dirs, nil
}

// scanner walks one suite directory. It is owned by a single goroutine.
type scanner struct {
	opts    *options
	workDir string
	logger  zerolog.Logger
	reports []Report
	skipped []Skipped
}

// walk finds reports below dir. archive is the user-facing location of the
// archive dir was extracted from, empty for the original tree.
func (s *scanner) walk(ctx context.Context, dir, archive string, depth int) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WrapIO("walk", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != dir && s.opts.excludes.Match(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if parser.IsReport(path) {
				s.add(path, sourceOf(dir, path, archive))
				return filepath.SkipDir
			}
			return nil
		}

		if s.opts.unpack && d.Type().IsRegular() && isArchive(d.Name()) {
			return s.unpack(ctx, path, sourceOf(dir, path, archive), depth)
		}
		return nil
	})
}

func (s *scanner) unpack(ctx context.Context, path, source string, depth int) error {
	if depth >= s.opts.maxDepth {
		s.skip(path, "archive nested too deeply")
		return nil
	}
	dest := uniquePath(filepath.Join(s.workDir, filepath.Base(path)+"_"))
	if err := extractZip(ctx, path, dest); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.skip(source, err.Error())
		return nil
	}
	s.logger.Debug().Str("archive", source).Str("dest", dest).Msg("Extracted archive")
	return s.walk(ctx, dest, source, depth+1)
}

func (s *scanner) add(dir, source string) {
	h, err := parser.Identify(dir)
	if err != nil {
		s.skip(source, err.Error())
		return
	}
	rep := Report{
		Dir:     dir,
		Source:  source,
		Suite:   h.Suite,
		Start:   h.Start,
		Missing: parser.Missing(dir, h.Suite),
	}
	if len(rep.Missing) > 0 {
		s.logger.Warn().
			Str("report", source).
			Str("suite", h.Suite).
			Interface("missing", rep.Missing).
			Msg("Report is missing artifacts")
	}
	s.reports = append(s.reports, rep)
}

func (s *scanner) skip(path, reason string) {
	s.logger.Warn().Str("path", path).Str("reason", reason).Msg("Skipping entry")
	s.skipped = append(s.skipped, Skipped{Path: path, Reason: reason})
}

// sourceOf maps path below root to a user-facing location.
func sourceOf(root, path, archive string) string {
	if archive == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if rel == "." {
		return archive
	}
	return archive + "::" + filepath.ToSlash(rel)
}
