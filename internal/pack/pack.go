// Package pack flattens a tree of local headers into a single header.
//
// Starting from a root file, every `#include` whose target can be read from
// the source root is replaced by the packed contents of that target. Targets
// that cannot be found locally are treated as system or third-party headers
// and their directive is copied through unchanged. Each path is attempted at
// most once per run: later directives naming the same path are dropped.
package pack

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/phobologic/headerpack/internal/directive"
	"github.com/phobologic/headerpack/internal/model"
	"github.com/phobologic/headerpack/internal/sink"
	"github.com/phobologic/headerpack/internal/source"
)

// ErrRootNotFound is returned when the root header itself cannot be read.
// There is no directive to fall back to at the top level.
var ErrRootNotFound = errors.New("root header not found")

// Resolver loads documents by include path. An error wrapping
// source.ErrNotFound means the path is not local.
type Resolver interface {
	Read(path string) (*model.Document, error)
}

// Error is a fatal problem at a specific line of a packed file.
type Error struct {
	File string
	Line int
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Packer expands include directives recursively.
type Packer struct {
	resolver Resolver
	logger   *log.Logger
}

// Option configures a Packer.
type Option func(*Packer)

// WithLogger sets the logger used to report inlined and skipped includes.
func WithLogger(l *log.Logger) Option {
	return func(p *Packer) {
		p.logger = l
	}
}

// New returns a Packer reading files through r.
func New(r Resolver, opts ...Option) *Packer {
	p := &Packer{resolver: r}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	return p
}

// Resolution is the classification of one line.
type Resolution struct {
	Outcome   model.Outcome
	Directive model.Directive
	Doc       *model.Document // set when Outcome is model.Resolved
	Err       error           // set when Outcome is model.Malformed
}

// Pack writes the packed form of path to out. seen is the run's include
// record; it is shared by every recursive step and must start empty for a
// fresh run. A nil seen is replaced by a new record.
//
// A malformed include aborts the run with an *Error; lines already written
// to out must then be discarded by the caller.
func (p *Packer) Pack(path string, out sink.Sink, seen *model.IncludeRecord) (*model.Report, error) {
	if seen == nil {
		seen = model.NewIncludeRecord()
	}
	seen.Add(path)

	doc, err := p.resolver.Read(path)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrRootNotFound, err)
		}
		return nil, err
	}

	r := &run{
		p:    p,
		out:  out,
		seen: seen,
		rep:  &model.Report{Root: path, Included: []string{path}},
	}
	if err := r.emit(doc); err != nil {
		return nil, err
	}
	return r.rep, nil
}

type run struct {
	p    *Packer
	out  sink.Sink
	seen *model.IncludeRecord
	rep  *model.Report
}

func (r *run) emit(doc *model.Document) error {
	for i, line := range doc.Lines {
		lineNo := doc.Offset + i + 1

		res, err := r.resolve(line)
		if err != nil {
			return &Error{File: doc.Path, Line: lineNo, Err: err}
		}

		switch res.Outcome {
		case model.Text:
			if err := r.write(line); err != nil {
				return err
			}
			continue
		case model.Malformed:
			return &Error{File: doc.Path, Line: lineNo, Err: res.Err}
		}

		r.rep.Edges = append(r.rep.Edges, model.Edge{
			Source:  doc.Path,
			Target:  res.Directive.Path,
			Line:    lineNo,
			Outcome: res.Outcome,
		})

		switch res.Outcome {
		case model.AlreadySeen:
			r.p.logger.Debug("dropped", "path", res.Directive.Path, "from", doc.Path, "line", lineNo)
		case model.Resolved:
			r.rep.Included = append(r.rep.Included, res.Directive.Path)
			if err := r.emit(res.Doc); err != nil {
				return err
			}
			r.p.logger.Info("included", "path", res.Directive.Path)
		case model.NotFoundLocally:
			r.rep.External = append(r.rep.External, res.Directive.Path)
			if err := r.write(line); err != nil {
				return err
			}
			r.p.logger.Info("skipped", "path", res.Directive.Path, "system", res.Directive.System())
		}
	}
	return nil
}

// resolve classifies line. The returned error is reserved for read failures
// other than "not found"; a malformed directive is reported through the
// Resolution.
func (r *run) resolve(line string) (Resolution, error) {
	d, ok, err := directive.Parse(line)
	if !ok {
		return Resolution{Outcome: model.Text}, nil
	}
	if err != nil {
		return Resolution{Outcome: model.Malformed, Err: err}, nil
	}
	if r.seen.Has(d.Path) {
		return Resolution{Outcome: model.AlreadySeen, Directive: d}, nil
	}
	// mark before recursing so cycles terminate
	r.seen.Add(d.Path)

	doc, err := r.p.resolver.Read(d.Path)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return Resolution{Outcome: model.NotFoundLocally, Directive: d}, nil
		}
		return Resolution{}, err
	}
	return Resolution{Outcome: model.Resolved, Directive: d, Doc: doc}, nil
}

func (r *run) write(line string) error {
	if err := r.out.WriteLine(line); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	r.rep.Lines++
	return nil
}
