package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rohankatakam/digger/internal/contribution"
	"github.com/rohankatakam/digger/internal/models"
)

// StatusReport summarizes a repository for `digger status`
type StatusReport struct {
	RepoID        string            `json:"repoId" yaml:"repoId"`
	Head          string            `json:"head" yaml:"head"`
	HeadTag       string            `json:"headTag,omitempty" yaml:"headTag,omitempty"`
	Status        models.RepoStatus `json:"status" yaml:"status"`
	ReleaseBranch string            `json:"releaseBranch" yaml:"releaseBranch"`
	TagCount      int               `json:"tagCount" yaml:"tagCount"`
	CachedTrunks  *int              `json:"cachedTrunks,omitempty" yaml:"cachedTrunks,omitempty"`
}

type contributionText []models.Contribution

func (c contributionText) renderText(w io.Writer) error {
	for i, con := range c {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writeContribution(w, con)
	}
	return nil
}

func writeContribution(w io.Writer, c models.Contribution) {
	name := "unreleased"
	if c.TagName != nil {
		name = *c.TagName
	}
	if c.TagTime != nil {
		name += " (" + c.TagTime.Format(time.RFC3339) + ")"
	}
	fmt.Fprintf(w, "%s  %s..%s  %d commits\n", name, short(c.FirstCommit), short(c.LastCommit), c.CommitCount)

	if c.Label != "" {
		fmt.Fprintf(w, "  label:   %s\n", c.Label)
	}
	if c.Semver != nil {
		fmt.Fprintf(w, "  semver:  %s\n", *c.Semver)
	}
	if len(c.Authors) > 0 {
		fmt.Fprintf(w, "  authors: %s\n", strings.Join(c.Authors, ", "))
	}
	if c.StoryID != nil {
		fmt.Fprintf(w, "  stories: %s\n", *c.StoryID)
	}
	if c.Ease != nil {
		fmt.Fprintf(w, "  ease:    %d\n", *c.Ease)
	}
}

// Contributions prints contribution windows, newest first
func (p *Printer) Contributions(contributions []models.Contribution) error {
	if contributions == nil {
		contributions = []models.Contribution{}
	}
	return p.print(contributions, contributionText(contributions))
}

// Contribution prints a single contribution
func (p *Printer) Contribution(c models.Contribution) error {
	return p.print(c, contributionText{c})
}

type decisionText models.VersionDecision

func (d decisionText) renderText(w io.Writer) error {
	fmt.Fprintln(w, d.Version)
	if len(d.SnapshotReasons) > 0 {
		reasons := make([]string, 0, len(d.SnapshotReasons))
		for _, r := range d.SnapshotReasons {
			reasons = append(reasons, string(r))
		}
		fmt.Fprintf(w, "snapshot: %s\n", strings.Join(reasons, ", "))
	}
	return nil
}

// Decision prints a version decision
func (p *Printer) Decision(d models.VersionDecision) error {
	return p.print(d, decisionText(d))
}

type tagText models.TagResult

func (t tagText) renderText(w io.Writer) error {
	_, err := fmt.Fprintln(w, t.Message)
	return err
}

// TagResult prints the outcome of a tag attempt
func (p *Printer) TagResult(r models.TagResult) error {
	return p.print(r, tagText(r))
}

type trunkText contribution.TrunkResult

func (t trunkText) renderText(w io.Writer) error {
	tagged := make(map[string][]string, len(t.Tags))
	for _, tag := range t.Tags {
		tagged[tag.CommitID] = append(tagged[tag.CommitID], tag.Name)
	}
	for _, id := range t.Trunk {
		if names, ok := tagged[id]; ok {
			fmt.Fprintf(w, "%s  %s\n", short(id), strings.Join(names, ", "))
		} else {
			fmt.Fprintln(w, short(id))
		}
	}
	return nil
}

// Trunk prints the selected trunk, newest commit first
func (p *Printer) Trunk(r *contribution.TrunkResult) error {
	return p.print(r, trunkText(*r))
}

type statusText StatusReport

func (s statusText) renderText(w io.Writer) error {
	fmt.Fprintf(w, "repository:     %s\n", s.RepoID)
	head := short(s.Head)
	if s.HeadTag != "" {
		head += " (" + s.HeadTag + ")"
	}
	fmt.Fprintf(w, "head:           %s\n", head)
	fmt.Fprintf(w, "branch:         %s\n", s.Status.CurrentBranch)
	upstream := s.Status.UpstreamName
	if upstream == "" {
		upstream = "none"
	}
	fmt.Fprintf(w, "upstream:       %s (ahead %d, behind %d)\n", upstream, s.Status.Ahead, s.Status.Behind)
	fmt.Fprintf(w, "clean:          %t\n", s.Status.Clean)
	fmt.Fprintf(w, "release branch: %s\n", s.ReleaseBranch)
	fmt.Fprintf(w, "tags:           %d\n", s.TagCount)
	if s.CachedTrunks != nil {
		fmt.Fprintf(w, "cached trunks:  %d\n", *s.CachedTrunks)
	}
	return nil
}

// Status prints a repository status report
func (p *Printer) Status(r StatusReport) error {
	return p.print(r, statusText(r))
}

type runsText []models.Run

func (r runsText) renderText(w io.Writer) error {
	for _, run := range r {
		fmt.Fprintf(w, "%s  %s  %s\n", run.ID, run.CreatedAt.Format(time.RFC3339), short(run.Head))
	}
	return nil
}

// Runs prints saved history runs, newest first
func (p *Printer) Runs(runs []models.Run) error {
	if runs == nil {
		runs = []models.Run{}
	}
	return p.print(runs, runsText(runs))
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
