package kialo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/argubots/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ParseError reports malformed input in a Kialo export.
type ParseError struct {
	File   string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
}

// IsParseError reports whether err carries a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

var (
	titlePattern    = regexp.MustCompile(`^Discussion Title:\s*(.*)$`)
	numberedPattern = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.\s+(.*)$`)
	stancePattern   = regexp.MustCompile(`^(Pro|Con):\s*(.*)$`)
	seePattern      = regexp.MustCompile(`^->\s*See\s+(\d+(?:\.\d+)*)\.?\s*$`)
)

type options struct {
	ranker      Ranker
	skipInvalid bool
}

// Option configures Load and Parse.
type Option func(*options)

// WithRanker sets the similarity ranker used by ClosestClaims. The default is
// a BM25 lexical ranker.
func WithRanker(r Ranker) Option {
	return func(o *options) {
		o.ranker = r
	}
}

// WithSkipInvalid makes Load skip files that fail to parse instead of
// aborting. Skipped files are logged.
func WithSkipInvalid() Option {
	return func(o *options) {
		o.skipInvalid = true
	}
}

// Load reads the given Kialo export files in order and builds a graph. A claim
// appearing in several files keeps the union of its edges.
func Load(ctx context.Context, paths []string, opts ...Option) (*Graph, error) {
	cfg := newOptions(opts)
	logger := logging.From(ctx)

	g := newGraph()
	for _, path := range paths {
		fg, err := parseFile(path)
		if err != nil {
			if cfg.skipInvalid && IsParseError(err) {
				logger.Warn("skip invalid kialo file", "path", path, "error", err)
				continue
			}
			return nil, err
		}
		g.merge(fg)
		logger.Debug("loaded kialo file", "path", path, "claims", fg.Len())
		if len(fg.dangling) > 0 {
			logger.Warn("dropped dangling cross references", "path", path, "refs", fg.dangling)
		}
	}

	if err := g.buildIndex(ctx, cfg.ranker); err != nil {
		return nil, err
	}
	logger.Info("claim graph loaded", "files", len(paths), "claims", g.Len(), "roots", len(g.roots))
	return g, nil
}

// Parse builds a graph from a single Kialo export read from r. name is used in
// error messages only.
func Parse(ctx context.Context, name string, r io.Reader, opts ...Option) (*Graph, error) {
	cfg := newOptions(opts)

	g, err := parse(name, r)
	if err != nil {
		return nil, err
	}
	if len(g.dangling) > 0 {
		logging.From(ctx).Warn("dropped dangling cross references", "name", name, "refs", g.dangling)
	}
	if err := g.buildIndex(ctx, cfg.ranker); err != nil {
		return nil, err
	}
	return g, nil
}

func newOptions(opts []Option) *options {
	cfg := &options{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.ranker == nil {
		cfg.ranker = NewBM25()
	}
	return cfg
}

func parseFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open kialo file", goerr.V("path", path))
	}
	defer f.Close()

	return parse(path, f)
}

type entry struct {
	id     string
	stance model.Stance
	lines  []string
	line   int
}

type edge struct {
	parent string
	child  string
	stance model.Stance
	line   int
}

// outline accumulates the numbered entries of one file before ids are
// resolved into claims.
type outline struct {
	name    string
	nodes   map[string]model.Claim
	aliases map[string]string
	order   []string
	roots   []string
	edges   []edge
	title   string
}

func parse(name string, r io.Reader) (*Graph, error) {
	o := &outline{
		name:    name,
		nodes:   make(map[string]model.Claim),
		aliases: make(map[string]string),
	}

	var cur *entry
	flush := func() error {
		if cur == nil {
			return nil
		}
		err := o.add(cur)
		cur = nil
		return err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := numberedPattern.FindStringSubmatch(line); m != nil {
			if err := flush(); err != nil {
				return nil, err
			}
			cur = &entry{id: m[1], line: lineNo}
			body := m[2]
			if sm := stancePattern.FindStringSubmatch(body); sm != nil {
				cur.stance = model.StancePro
				if sm[1] == "Con" {
					cur.stance = model.StanceCon
				}
				body = sm[2]
			}
			cur.lines = append(cur.lines, body)
			continue
		}

		if cur == nil {
			if m := titlePattern.FindStringSubmatch(line); m != nil && len(o.order) == 0 && o.title == "" {
				o.title = strings.TrimSpace(m[1])
				continue
			}
			return nil, &ParseError{File: name, Line: lineNo, Reason: "text outside of any claim"}
		}
		cur.lines = append(cur.lines, strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read kialo file", goerr.V("name", name))
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return o.build(), nil
}

func (o *outline) add(e *entry) error {
	if _, ok := o.nodes[e.id]; ok {
		return &ParseError{File: o.name, Line: e.line, Reason: "duplicate claim id " + e.id}
	}
	if _, ok := o.aliases[e.id]; ok {
		return &ParseError{File: o.name, Line: e.line, Reason: "duplicate claim id " + e.id}
	}

	text := strings.TrimSpace(strings.Join(e.lines, "\n"))
	if text == "" {
		return &ParseError{File: o.name, Line: e.line, Reason: "empty claim text"}
	}

	parent, isRoot := parentID(e.id)
	if isRoot {
		if e.stance != "" {
			return &ParseError{File: o.name, Line: e.line, Reason: "thesis must not be marked Pro or Con"}
		}
	} else {
		if e.stance == "" {
			return &ParseError{File: o.name, Line: e.line, Reason: "claim " + e.id + " is missing Pro: or Con:"}
		}
		if !o.declared(parent) {
			return &ParseError{File: o.name, Line: e.line, Reason: "parent claim " + parent + " is not defined"}
		}
		o.edges = append(o.edges, edge{parent: parent, child: e.id, stance: e.stance, line: e.line})
	}

	if m := seePattern.FindStringSubmatch(text); m != nil {
		if isRoot {
			return &ParseError{File: o.name, Line: e.line, Reason: "thesis cannot be a cross reference"}
		}
		o.aliases[e.id] = m[1]
		return nil
	}

	o.nodes[e.id] = model.Claim(text)
	o.order = append(o.order, e.id)
	if isRoot {
		o.roots = append(o.roots, e.id)
	}
	return nil
}

func (o *outline) declared(id string) bool {
	if _, ok := o.nodes[id]; ok {
		return true
	}
	_, ok := o.aliases[id]
	return ok
}

// resolve follows cross references until a concrete claim is found.
func (o *outline) resolve(id string) (model.Claim, bool) {
	for hops := 0; hops <= len(o.aliases); hops++ {
		if c, ok := o.nodes[id]; ok {
			return c, true
		}
		next, ok := o.aliases[id]
		if !ok {
			return "", false
		}
		id = next
	}
	return "", false
}

func (o *outline) build() *Graph {
	g := newGraph()
	if o.title != "" {
		g.titles = append(g.titles, o.title)
	}
	for _, id := range o.order {
		g.addClaim(o.nodes[id])
	}
	for _, id := range o.roots {
		g.addRoot(o.nodes[id])
	}

	for _, e := range o.edges {
		parent, ok := o.resolve(e.parent)
		if !ok {
			continue
		}
		child, ok := o.resolve(e.child)
		if !ok {
			// dangling "-> See" reference; the rest of the file is still usable
			g.dangling = append(g.dangling, fmt.Sprintf("%s:%d: %s -> %s", o.name, e.line, e.child, o.aliases[e.child]))
			continue
		}
		if parent == child {
			continue
		}
		g.addEdge(parent, child, e.stance)
	}
	return g
}

func parentID(id string) (string, bool) {
	idx := strings.LastIndex(id, ".")
	if idx < 0 {
		return "", true
	}
	return id[:idx], false
}
