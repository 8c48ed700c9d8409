package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/air-gapped/dailypage/internal/logging"
	"github.com/air-gapped/dailypage/internal/render"
)

// ErrTooLarge is returned for pages over the size limit.
var ErrTooLarge = errors.New("page too large")

// Options configures a build.
type Options struct {
	Root        string
	Out         string // ignored when InPlace
	InPlace     bool
	Jobs        int
	MaxFileSize int64 // 0 means no limit
	Processor   *Processor
}

// Summary counts what a build did.
type Summary struct {
	Pages      int // pages enhanced and written
	Copied     int // other files copied to Out
	SkippedNav int // pages whose path carries no date token
	Failed     int
}

type job struct {
	rel  string // slash-separated, relative to Root
	path string
	page bool
}

// Build walks opts.Root, enhances every page and writes it to opts.Out
// under the same relative path. Other files are copied. In place, pages
// are rewritten next to their source and nothing is copied. A failing page
// does not stop the build; all page errors are returned joined once every
// page ran.
func Build(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Processor == nil {
		return nil, errors.New("build: no processor")
	}
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	logger := logging.FromContext(ctx)

	jobs, err := collect(opts)
	if err != nil {
		return nil, err
	}
	jobs = dedupeOutputs(jobs, logger)

	var (
		pages, copied, skipped, failed atomic.Int64
		mu                             sync.Mutex
		errs                           []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)

	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if !j.page {
				if err := copyFile(j.path, filepath.Join(opts.Out, filepath.FromSlash(j.rel))); err != nil {
					failed.Add(1)
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
					return nil
				}
				copied.Add(1)
				return nil
			}

			f, page, err := buildPage(gctx, opts, j)
			f.Err = err
			logging.LogPage(logger, f)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				failed.Add(1)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			pages.Add(1)
			if page.Report.NavError != nil {
				skipped.Add(1)
			}
			return nil
		})
	}

	waitErr := g.Wait()
	summary := &Summary{
		Pages:      int(pages.Load()),
		Copied:     int(copied.Load()),
		SkippedNav: int(skipped.Load()),
		Failed:     int(failed.Load()),
	}
	if waitErr != nil {
		return summary, waitErr
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, errors.Join(errs...)
}

func buildPage(ctx context.Context, opts Options, j job) (logging.PageFields, *Page, error) {
	f := logging.PageFields{Input: j.rel}

	src, err := readLimited(j.path, opts.MaxFileSize)
	if err != nil {
		return f, nil, err
	}

	page, err := opts.Processor.Process(ctx, j.rel, src, PagePath(j.rel))
	if err != nil {
		return f, nil, err
	}
	f.Source = string(page.Source)
	f.Token = page.Report.Token
	f.Sections = page.Report.Sections
	f.Embeds = page.Report.Embeds
	f.Steps = page.Report.Steps
	f.RenderMs = page.RenderMs

	outRoot := opts.Out
	if opts.InPlace {
		outRoot = opts.Root
	}
	dst := filepath.Join(outRoot, filepath.FromSlash(OutputName(j.rel)))
	f.Output = dst

	if err := writeFile(dst, page.HTML); err != nil {
		return f, nil, err
	}
	return f, page, nil
}

// collect lists the files to process. Hidden entries and the output
// directory are skipped.
func collect(opts Options) ([]job, error) {
	if _, err := os.Stat(opts.Root); err != nil {
		return nil, fmt.Errorf("site root: %w", err)
	}

	skipOut := ""
	if !opts.InPlace && opts.Out != "" {
		if rel, err := relativeTo(opts.Root, opts.Out); err == nil {
			skipOut = rel
		}
	}

	var jobs []job
	err := filepath.WalkDir(opts.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(opts.Root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || rel == skipOut {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		page := render.IsPage(p)
		if opts.InPlace && !page {
			return nil
		}
		jobs = append(jobs, job{rel: filepath.ToSlash(rel), path: p, page: page})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", opts.Root, err)
	}
	return jobs, nil
}

// dedupeOutputs keeps one page job per output file. A renderable source
// wins over an HTML page with the same output name, which is what an earlier
// in-place build leaves next to it.
func dedupeOutputs(jobs []job, logger *slog.Logger) []job {
	owner := make(map[string]int, len(jobs))
	for i, j := range jobs {
		if !j.page {
			continue
		}
		dst := OutputName(j.rel)
		prev, ok := owner[dst]
		if !ok || (!rendered(jobs[prev]) && rendered(j)) {
			owner[dst] = i
		}
	}

	out := jobs[:0:0]
	for i, j := range jobs {
		if j.page && owner[OutputName(j.rel)] != i {
			logger.Debug("page shadowed", "input", j.rel, "by", jobs[owner[OutputName(j.rel)]].rel)
			continue
		}
		out = append(out, j)
	}
	return out
}

func rendered(j job) bool {
	return render.DetectFile(j.rel).NeedsRender()
}

// relativeTo returns target relative to base when target lies inside base.
func relativeTo(base, target string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", target, base)
	}
	return rel, nil
}

func readLimited(p string, limit int64) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if limit <= 0 {
		return io.ReadAll(f)
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", p, ErrTooLarge, limit)
	}
	return data, nil
}

// writeFile writes data next to dst first and renames it into place, so an
// in-place rewrite never leaves a truncated page behind.
func writeFile(dst string, data []byte) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".dailypage-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
