package contribution

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/digger/internal/git"
	"github.com/rohankatakam/digger/internal/graph"
	"github.com/rohankatakam/digger/internal/models"
)

// TrunkCache stores selected trunks so repeated runs against the same HEAD
// and tag set skip path enumeration.
type TrunkCache interface {
	GetTrunk(key string) (graph.Path, bool, error)
	PutTrunk(key string, trunk graph.Path) error
}

// Service computes contributions for one repository
type Service struct {
	src    git.Source
	digger MessageDigger
	cache  TrunkCache
	label  string
	logger logrus.FieldLogger
}

// Option configures a Service
type Option func(*Service)

// WithCache enables the trunk cache
func WithCache(cache TrunkCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithLabel sets the label stamped on every contribution
func WithLabel(label string) Option {
	return func(s *Service) { s.label = label }
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a contribution service
func NewService(src git.Source, digger MessageDigger, opts ...Option) *Service {
	s := &Service{
		src:    src,
		digger: digger,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TrunkResult is the selected trunk plus the tags that lie on it
type TrunkResult struct {
	Head  string       `json:"head" yaml:"head"`
	Trunk graph.Path   `json:"trunk" yaml:"trunk"`
	Tags  []models.Tag `json:"tags" yaml:"tags"`
}

// Trunk selects the trunk through history and the tags on it
func (s *Service) Trunk(ctx context.Context) (*TrunkResult, error) {
	head, err := s.src.HeadCommitID(ctx)
	if err != nil {
		return nil, err
	}
	log, err := s.src.Log(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := s.src.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	inLog := make(map[string]bool, len(log))
	for _, c := range log {
		inLog[c.ID] = true
	}
	taggedSet := make(map[string]bool)
	for _, t := range tags {
		if inLog[t.CommitID] {
			taggedSet[t.CommitID] = true
		}
	}
	tagged := make([]string, 0, len(taggedSet))
	for id := range taggedSet {
		tagged = append(tagged, id)
	}
	sort.Strings(tagged)

	trunk, err := s.trunkFor(log, head, tagged)
	if err != nil {
		return nil, err
	}

	filtered := FilterTags(tags, trunk)
	s.logger.WithFields(logrus.Fields{
		"head":         head,
		"commits":      len(log),
		"trunk_length": len(trunk),
		"tags":         len(tags),
		"trunk_tags":   len(filtered),
	}).Debug("selected trunk")

	return &TrunkResult{Head: head, Trunk: trunk, Tags: filtered}, nil
}

func (s *Service) trunkFor(log []models.Commit, head string, tagged []string) (graph.Path, error) {
	key := TrunkKey(head, tagged)

	if s.cache != nil {
		trunk, ok, err := s.cache.GetTrunk(key)
		if err != nil {
			s.logger.WithError(err).Warn("trunk cache read failed")
		} else if ok {
			s.logger.WithField("head", head).Debug("trunk cache hit")
			return trunk, nil
		}
	}

	trunk, err := graph.FindTrunk(log, head, tagged, s.logger)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.PutTrunk(key, trunk); err != nil {
			s.logger.WithError(err).Warn("trunk cache write failed")
		}
	}
	return trunk, nil
}

// TrunkKey identifies a trunk by HEAD and the sorted tagged commit ids
func TrunkKey(head string, tagged []string) string {
	sum := sha256.Sum256([]byte(strings.Join(tagged, ",")))
	return fmt.Sprintf("%s:%x", head, sum[:8])
}

// AllContributions returns one contribution per tag-bounded window, newest first
func (s *Service) AllContributions(ctx context.Context) ([]models.Contribution, error) {
	trunk, err := s.Trunk(ctx)
	if err != nil {
		return nil, err
	}

	windows, err := AllWindows(ctx, s.src, trunk.Tags, trunk.Head)
	if err != nil {
		return nil, err
	}

	contributions := make([]models.Contribution, 0, len(windows))
	for _, w := range windows {
		contributions = append(contributions, s.contribution(w))
	}
	return contributions, nil
}

// CurrentContribution returns the contribution for the most recent window
func (s *Service) CurrentContribution(ctx context.Context) (*models.Contribution, error) {
	trunk, err := s.Trunk(ctx)
	if err != nil {
		return nil, err
	}

	window, err := CurrentWindow(ctx, s.src, trunk.Tags, trunk.Head)
	if err != nil {
		return nil, err
	}

	contribution := s.contribution(window)
	return &contribution, nil
}

func (s *Service) contribution(w Window) models.Contribution {
	c := Aggregate(w.Commits, s.digger)
	c.Label = s.label
	if w.Tag != nil {
		name := w.Tag.Name
		ts := w.Tag.Timestamp
		c.TagName = &name
		c.TagTime = &ts
	}
	return c
}
