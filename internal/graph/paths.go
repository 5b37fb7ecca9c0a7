// Package graph walks the commit DAG. It enumerates every path from a commit
// back to the repository root and selects the trunk among them.
package graph

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/digger/internal/models"
)

// MaxPaths caps how many paths a single enumeration may discover.
const MaxPaths = 10000

// ErrCommitNotFound is returned when the start commit is not in the log.
var ErrCommitNotFound = errors.New("commit not found")

// ErrNoUniqueRoot is returned when the log does not contain exactly one
// commit without parents.
var ErrNoUniqueRoot = errors.New("no unique root commit")

// Path is a sequence of commit ids, each followed by one of its parents.
type Path []string

// Contains reports whether id is on the path
func (p Path) Contains(id string) bool {
	for _, c := range p {
		if c == id {
			return true
		}
	}
	return false
}

// CountIn returns how many commits on the path are in set
func (p Path) CountIn(set map[string]bool) int {
	n := 0
	for _, c := range p {
		if set[c] {
			n++
		}
	}
	return n
}

// Enumerator finds root-reaching paths through a commit log.
type Enumerator struct {
	commits  map[string]models.Commit
	root     string
	maxPaths int
	logger   logrus.FieldLogger
}

// NewEnumerator indexes log by commit id and locates its root.
func NewEnumerator(log []models.Commit, logger logrus.FieldLogger) (*Enumerator, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	commits := make(map[string]models.Commit, len(log))
	var roots []string
	for _, c := range log {
		commits[c.ID] = c
		if c.IsRoot() {
			roots = append(roots, c.ID)
		}
	}
	if len(roots) != 1 {
		return nil, fmt.Errorf("%w: found %d", ErrNoUniqueRoot, len(roots))
	}

	return &Enumerator{
		commits:  commits,
		root:     roots[0],
		maxPaths: MaxPaths,
		logger:   logger,
	}, nil
}

// Root returns the id of the root commit
func (e *Enumerator) Root() string {
	return e.root
}

// Commits returns the id-indexed log
func (e *Enumerator) Commits() map[string]models.Commit {
	return e.commits
}

// frame is one entry of the explicit work-list. Entering a frame truncates
// the path buffer to depth and appends id. An exit frame fires once every
// parent of id has been explored and caches the suffixes found below it.
type frame struct {
	id    string
	depth int
	exit  bool
	mark  int
}

// AllPaths returns every path from start to the root. Enumeration stops
// early once a discovered path contains every id in preferred, or when
// MaxPaths paths have been found.
//
// Reaching a commit without parents that is not the root means the index is
// corrupt; AllPaths panics rather than return a wrong path.
func (e *Enumerator) AllPaths(start string, preferred []string) ([]Path, error) {
	if _, ok := e.commits[start]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, start)
	}

	w := e.walk(start, preferred)

	e.logger.WithFields(logrus.Fields{
		"start":     start,
		"paths":     len(w.found),
		"cached":    len(w.suffixes),
		"expanded":  w.expanded,
		"spliced":   w.spliced,
		"truncated": w.stopped && !w.satisfied,
	}).Debug("enumerated commit paths")

	return w.found, nil
}

func (e *Enumerator) walk(start string, preferred []string) *walk {
	w := &walk{
		Enumerator: e,
		preferred:  preferred,
		suffixes:   make(map[string][]Path),
		position:   make(map[string]int),
	}
	w.run(start)
	return w
}

type walk struct {
	*Enumerator
	preferred []string

	path     Path
	position map[string]int
	suffixes map[string][]Path
	found    []Path

	stopped   bool
	satisfied bool

	// expanded counts commits whose parents were explored; spliced counts
	// visits answered from the suffix cache
	expanded int
	spliced  int
}

func (w *walk) run(start string) {
	stack := []frame{{id: start}}

	for len(stack) > 0 && !w.stopped {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.exit {
			w.cacheSuffixes(f)
			continue
		}

		w.path = w.path[:f.depth]

		if cached, ok := w.suffixes[f.id]; ok {
			w.spliced++
			for _, suffix := range cached {
				joined := make(Path, 0, len(w.path)+len(suffix))
				joined = append(joined, w.path...)
				joined = append(joined, suffix...)
				if w.record(joined) {
					break
				}
			}
			continue
		}

		w.expanded++
		w.position[f.id] = len(w.path)
		w.path = append(w.path, f.id)

		if f.id == w.root {
			w.suffixes[w.root] = []Path{{w.root}}
			w.record(append(Path(nil), w.path...))
			continue
		}

		commit := w.commits[f.id]
		if commit.IsRoot() {
			panic(fmt.Sprintf("graph: commit %s has no parents but the root is %s", f.id, w.root))
		}

		stack = append(stack, frame{id: f.id, depth: f.depth, exit: true, mark: len(w.found)})
		for i := len(commit.ParentIDs) - 1; i >= 0; i-- {
			parent := commit.ParentIDs[i]
			if _, ok := w.commits[parent]; !ok {
				continue
			}
			if w.onPath(parent) {
				continue
			}
			stack = append(stack, frame{id: parent, depth: f.depth + 1})
		}
	}
}

// cacheSuffixes stores, for the commit of an exit frame, the tail of every
// path discovered while it was on the path buffer.
func (w *walk) cacheSuffixes(f frame) {
	discovered := w.found[f.mark:]
	suffixes := make([]Path, 0, len(discovered))
	for _, p := range discovered {
		suffixes = append(suffixes, p[f.depth:])
	}
	w.suffixes[f.id] = suffixes
}

func (w *walk) onPath(id string) bool {
	pos, ok := w.position[id]
	return ok && pos < len(w.path) && w.path[pos] == id
}

// record appends a finished path and reports whether enumeration must stop.
func (w *walk) record(p Path) bool {
	w.found = append(w.found, p)

	if len(w.preferred) > 0 && containsAll(p, w.preferred) {
		w.stopped = true
		w.satisfied = true
		return true
	}
	if len(w.found) >= w.maxPaths {
		w.logger.WithField("max_paths", w.maxPaths).Warn("path enumeration hit the path cap")
		w.stopped = true
		return true
	}
	return false
}

func containsAll(p Path, ids []string) bool {
	onPath := make(map[string]bool, len(p))
	for _, id := range p {
		onPath[id] = true
	}
	for _, id := range ids {
		if !onPath[id] {
			return false
		}
	}
	return true
}
