// Package driver wires the compile pipeline end to end: parse, resolve
// enum constants, lower to ES5, print with source maps, and fan the
// work out across files.
package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/quenchjs/quench/internal/lowering"
	"github.com/quenchjs/quench/internal/parser"
	"github.com/quenchjs/quench/internal/position"
	"github.com/quenchjs/quench/internal/printer"
	"github.com/quenchjs/quench/internal/solver"
)

// Compiler compiles TypeScript sources to ES5 per one Config.
type Compiler struct {
	cfg Config
	log *log.Logger
}

// New builds a Compiler. A nil logger discards output.
func New(cfg Config, logger *log.Logger) *Compiler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Compiler{cfg: cfg, log: logger}
}

// FileResult is the outcome of compiling one source file.
type FileResult struct {
	Path    string
	OutPath string
	Code    string
	// SourceMap is the external map JSON; empty when the map is inline
	// or disabled.
	SourceMap string
	Diags     []position.Diagnostic
}

// Errors reports whether the file had hard syntax errors.
func (r FileResult) Errors() bool {
	for _, d := range r.Diags {
		if d.Severity == position.SeverityError {
			return true
		}
	}
	return false
}

// Degraded counts constructs that were emitted best-effort.
func (r FileResult) Degraded() int {
	n := 0
	for _, d := range r.Diags {
		if d.Severity == position.SeverityDegraded {
			n++
		}
	}
	return n
}

func (c *Compiler) moduleKind() lowering.ModuleKind {
	if c.cfg.Module == "none" {
		return lowering.ModuleNone
	}
	return lowering.ModuleCommonJS
}

// outPathFor maps an input path to its generated .js path.
func (c *Compiler) outPathFor(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".js"
	if c.cfg.OutDir == "" {
		return filepath.Join(filepath.Dir(path), base)
	}
	return filepath.Join(c.cfg.OutDir, base)
}

// CompileSource runs the pipeline over one in-memory file.
func (c *Compiler) CompileSource(path, src string) (FileResult, error) {
	outPath := c.outPathFor(path)

	arena, diags := parser.ParseFile(path, src)
	oracle := solver.New(arena)
	rec := lowering.Lower(arena, oracle, lowering.Options{Module: c.moduleKind()}, diags)

	wantMap := c.cfg.IncludeSourceMap || c.cfg.InlineSourceMap
	res := printer.Print(rec, printer.Options{
		SourceMap:   wantMap,
		OutFile:     filepath.Base(outPath),
		EmbedSource: c.cfg.EmbedSourcesContent,
	})

	out := FileResult{
		Path:    path,
		OutPath: outPath,
		Code:    res.Code,
		Diags:   diags.Diagnostics,
	}

	if wantMap && res.Map != nil {
		if c.cfg.InlineSourceMap {
			comment, err := res.Map.ToInlineComment()
			if err != nil {
				return out, fmt.Errorf("%s: encode source map: %w", path, err)
			}
			out.Code += comment + "\n"
		} else {
			mapJSON, err := res.Map.ToJSON()
			if err != nil {
				return out, fmt.Errorf("%s: encode source map: %w", path, err)
			}
			out.SourceMap = mapJSON
			out.Code += "//# sourceMappingURL=" + filepath.Base(outPath) + ".map\n"
		}
	}
	return out, nil
}

// CompileFile reads and compiles one file from disk.
func (c *Compiler) CompileFile(path string) (FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileResult{}, err
	}
	return c.CompileSource(path, string(data))
}

// CompileFiles compiles the given paths in parallel. Per-file syntax
// errors do not abort the batch; only I/O and encoding failures do.
func (c *Compiler) CompileFiles(ctx context.Context, paths []string) ([]FileResult, error) {
	results := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	limit := c.cfg.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	sem := make(chan struct{}, limit)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			res, err := c.CompileFile(path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Run compiles every configured include and writes the outputs.
func (c *Compiler) Run(ctx context.Context) error {
	paths, err := c.expandIncludes()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no input files")
	}

	results, err := c.CompileFiles(ctx, paths)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		for _, d := range res.Diags {
			switch d.Severity {
			case position.SeverityError:
				c.log.Error(d.Message, "file", res.Path, "span", d.Span.String(), "kind", d.Kind)
			case position.SeverityWarning:
				c.log.Warn(d.Message, "file", res.Path, "span", d.Span.String(), "kind", d.Kind)
			default:
				c.log.Debug(d.Message, "file", res.Path, "span", d.Span.String(), "kind", d.Kind)
			}
		}
		if res.Errors() {
			failed++
			continue
		}
		if err := c.writeResult(res); err != nil {
			return err
		}
		if n := res.Degraded(); n > 0 {
			c.log.Warn("emitted with degraded constructs", "file", res.Path, "count", n)
		}
		c.log.Info("compiled", "file", res.Path, "out", res.OutPath)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func (c *Compiler) writeResult(res FileResult) error {
	if err := os.MkdirAll(filepath.Dir(res.OutPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(res.OutPath, []byte(res.Code), 0o644); err != nil {
		return err
	}
	if res.SourceMap != "" {
		if err := os.WriteFile(res.OutPath+".map", []byte(res.SourceMap), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// expandIncludes resolves the include entries to concrete .ts paths,
// applying glob patterns where present.
func (c *Compiler) expandIncludes() ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, inc := range c.cfg.Include {
		matches, err := filepath.Glob(inc)
		if err != nil {
			return nil, fmt.Errorf("include %q: %w", inc, err)
		}
		if matches == nil {
			matches = []string{inc}
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}
	return paths, nil
}
