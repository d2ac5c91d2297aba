// Package expand turns a validated argument source into a lazy sequence of
// raw tuples.
//
// Every source is consumed through an Iterator with an explicit lifecycle:
// Open acquires whatever the source needs (an open file, a generator's pull
// state), Next produces tuples in source order and returns io.EOF when the
// sequence is exhausted, and Close releases the resource. Close is
// idempotent and must be called on every exit path; iterators also release
// their resource on their own as soon as they reach the end or fail.
package expand

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/roach88/paramsrc/internal/enum"
	"github.com/roach88/paramsrc/internal/paramerr"
	"github.com/roach88/paramsrc/internal/source"
)

// Iterator produces raw argument tuples one at a time.
type Iterator interface {
	// Next returns the next tuple, io.EOF when exhausted, the context's
	// error when ctx is done, or a *paramerr.Error. An error with code
	// RESOURCE ends the sequence; an ARITY error only rejects the current
	// row and Next may be called again.
	Next(ctx context.Context) (source.Tuple, error)

	// Close releases any held resource. Safe to call more than once.
	Close() error
}

// Open starts expansion of decl's source. The declaration is assumed to have
// passed source.Validate.
func Open(ctx context.Context, decl source.Declaration, env *source.Env) (Iterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch src := decl.Source.(type) {
	case source.Literals:
		tuples := make([]source.Tuple, len(src.Values))
		for i, v := range src.Values {
			tuples[i] = source.LiteralTuple(v)
		}
		return &sliceIterator{tuples: tuples}, nil

	case source.NullSource:
		return &sliceIterator{tuples: []source.Tuple{{nil}}}, nil

	case source.EmptySource:
		return &sliceIterator{tuples: []source.Tuple{{""}}}, nil

	case source.NullAndEmptySource:
		return &sliceIterator{tuples: []source.Tuple{{nil}, {""}}}, nil

	case source.EnumSource:
		typ, err := env.Enums().Get(src.Type)
		if err != nil {
			return nil, err
		}
		members, err := enum.Filter(typ, src.Mode, src.Names)
		if err != nil {
			return nil, err
		}
		tuples := make([]source.Tuple, len(members))
		for i, m := range members {
			tuples[i] = source.Tuple{m}
		}
		return &sliceIterator{tuples: tuples}, nil

	case source.DelimitedRows:
		if src.File != "" {
			return openFile(src, decl.Arity(), env)
		}
		return openRows(src, decl.Arity()), nil

	case source.MethodSource:
		gen, ok := env.Generators.Get(src.Name)
		if !ok {
			return nil, paramerr.Resource(fmt.Sprintf("no generator registered as %q", src.Name), nil)
		}
		return openGenerator(src.Name, gen, decl.Arity())

	default:
		return nil, fmt.Errorf("unsupported source %T", decl.Source)
	}
}

// Collect drains an iterator into a slice and closes it. Row-level ARITY
// errors are returned immediately. Intended for tests and small sources.
func Collect(ctx context.Context, it Iterator) ([]source.Tuple, error) {
	defer it.Close()
	var out []source.Tuple
	for {
		t, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
}

// sliceIterator serves tuples that are already in memory.
type sliceIterator struct {
	tuples []source.Tuple
	pos    int
}

func (it *sliceIterator) Next(ctx context.Context) (source.Tuple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.pos >= len(it.tuples) {
		return nil, io.EOF
	}
	t := it.tuples[it.pos]
	it.pos++
	return t, nil
}

func (it *sliceIterator) Close() error {
	it.pos = len(it.tuples)
	return nil
}

// rowSplitter turns text rows into tuples with an arity check. The ARITY
// position is the row's zero-based index in the source, headers included,
// so inline rows and file lines are numbered the same way.
type rowSplitter struct {
	src   source.DelimitedRows
	arity int
}

func (s rowSplitter) split(index int, row string) (source.Tuple, error) {
	t := source.SplitRow(row, s.src.Sep(), s.src.NullValues)
	if len(t) != s.arity {
		e := paramerr.Arity(index, s.arity, len(t))
		e.Value = row
		return t, e
	}
	return t, nil
}

func openRows(src source.DelimitedRows, arity int) Iterator {
	return &rowsIterator{
		rows:  src.Rows,
		pos:   max(src.SkipLines, 0),
		split: rowSplitter{src: src, arity: arity},
	}
}

type rowsIterator struct {
	rows  []string
	pos   int
	split rowSplitter
}

func (it *rowsIterator) Next(ctx context.Context) (source.Tuple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.pos >= len(it.rows) {
		return nil, io.EOF
	}
	i := it.pos
	it.pos++
	return it.split.split(i, it.rows[i])
}

func (it *rowsIterator) Close() error {
	it.pos = len(it.rows)
	return nil
}

// fileIterator streams rows from a file. The handle is released when the
// last line has been read, on a read error, or on Close.
type fileIterator struct {
	path    string
	f       io.Closer
	scanner *bufio.Scanner
	line    int
	skip    int
	split   rowSplitter
	done    bool
}

func openFile(src source.DelimitedRows, arity int, env *source.Env) (Iterator, error) {
	name, f, err := openPath(src.File, env)
	if err != nil {
		return nil, paramerr.Resource(fmt.Sprintf("open %s", name), err)
	}
	return &fileIterator{
		path:    name,
		f:       f,
		scanner: bufio.NewScanner(f),
		skip:    max(src.SkipLines, 0),
		split:   rowSplitter{src: src, arity: arity},
	}, nil
}

// openPath opens a file source from env.FS when set, else from disk.
func openPath(name string, env *source.Env) (string, io.ReadCloser, error) {
	if env.FS != nil {
		if env.BaseDir != "" {
			name = path.Join(env.BaseDir, name)
		}
		f, err := env.FS.Open(name)
		return name, f, err
	}
	if !filepath.IsAbs(name) && env.BaseDir != "" {
		name = filepath.Join(env.BaseDir, name)
	}
	f, err := os.Open(name)
	return name, f, err
}

func (it *fileIterator) Next(ctx context.Context) (source.Tuple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for !it.done {
		if !it.scanner.Scan() {
			err := it.scanner.Err()
			it.release()
			if err != nil {
				return nil, paramerr.Resource(fmt.Sprintf("read %s", it.path), err)
			}
			return nil, io.EOF
		}
		it.line++
		if it.line <= it.skip {
			continue
		}
		text := it.scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		return it.split.split(it.line-1, text)
	}
	return nil, io.EOF
}

func (it *fileIterator) release() error {
	if it.done {
		return nil
	}
	it.done = true
	return it.f.Close()
}

func (it *fileIterator) Close() error {
	return it.release()
}

// generatorIterator pulls from a generator's sequence one tuple at a time.
type generatorIterator struct {
	name  string
	arity int
	next  func() (source.Tuple, error, bool)
	stop  func()
	index int
	done  bool
}

func openGenerator(name string, gen source.Generator, arity int) (it Iterator, err error) {
	defer func() {
		if v := recover(); v != nil {
			it, err = nil, paramerr.Resource(fmt.Sprintf("generator %s", name), &PanicError{Value: v})
		}
	}()
	next, stop := iter.Pull2(gen())
	return &generatorIterator{name: name, arity: arity, next: next, stop: stop}, nil
}

// PanicError records a recovered panic.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// pull calls next, turning a panic re-raised by iter.Pull2 into an error.
func (it *generatorIterator) pull() (t source.Tuple, err error, ok bool) {
	defer func() {
		if v := recover(); v != nil {
			t, err, ok = nil, &PanicError{Value: v}, true
		}
	}()
	return it.next()
}

func (it *generatorIterator) Next(ctx context.Context) (source.Tuple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.done {
		return nil, io.EOF
	}
	t, err, ok := it.pull()
	if !ok {
		it.Close()
		return nil, io.EOF
	}
	if err != nil {
		it.Close()
		return nil, paramerr.Resource(fmt.Sprintf("generator %s", it.name), err)
	}
	i := it.index
	it.index++
	if len(t) != it.arity {
		return t, paramerr.Arity(i, it.arity, len(t))
	}
	return t, nil
}

func (it *generatorIterator) Close() error {
	if !it.done {
		it.done = true
		it.stop()
	}
	return nil
}
