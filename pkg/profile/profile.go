// Package profile loads named query profiles from TOML files.
//
// A profile fixes everything about an exploration except its start nodes
// and target: the edge kind, the direction, the scope with its budgets, the
// sensitivities and the engine options. Teams keep the profiles they rely
// on in a file next to their fixtures:
//
//	default = "taint"
//
//	[profiles.taint]
//	graph = "dfg"
//	direction = "forward"
//	scope = "interprocedural"
//	max_call_depth = 5
//	sensitivities = ["context", "field"]
//
//	[profiles.reaches-exit]
//	graph = "eog"
//	scope = "intraprocedural"
//	find_all = false
//
// Omitted keys take the defaults of [Default]. Omitting sensitivities picks
// the usual set for the edge kind; an explicit empty list means none.
package profile

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
	cerrors "github.com/matzehuels/cpgwalk/pkg/errors"
	"github.com/matzehuels/cpgwalk/pkg/walk"
)

// Edge kinds a profile can walk.
const (
	GraphDFG = "dfg"
	GraphEOG = "eog"
	GraphPDG = "pdg"
	GraphCDG = "cdg"
)

// Directions.
const (
	DirectionForward       = "forward"
	DirectionBackward      = "backward"
	DirectionBidirectional = "bidirectional"
)

// Scopes.
const (
	ScopeIntraprocedural = "intraprocedural"
	ScopeInterprocedural = "interprocedural"
)

// Graphs lists the valid values of Profile.Graph.
var Graphs = []string{GraphDFG, GraphEOG, GraphPDG, GraphCDG}

// Profile is one named exploration setup. Zero budgets are unbounded.
type Profile struct {
	Name          string   `toml:"-"`
	Description   string   `toml:"description"`
	Graph         string   `toml:"graph"`
	Direction     string   `toml:"direction"`
	Scope         string   `toml:"scope"`
	MaxSteps      int      `toml:"max_steps"`
	MaxCallDepth  int      `toml:"max_call_depth"`
	Sensitivities []string `toml:"sensitivities"`
	FindAll       *bool    `toml:"find_all"`
	CollectFailed *bool    `toml:"collect_failed"`
}

// Config is a decoded profile file.
type Config struct {
	Default  string              `toml:"default"`
	Profiles map[string]*Profile `toml:"profiles"`
}

// Default returns the profile used when none is named: an interprocedural
// forward dataflow walk with the usual sensitivities.
func Default() *Profile {
	p := &Profile{Name: "default"}
	p.ApplyDefaults()
	return p
}

// Load reads and decodes the profile file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "profile file %s", path)
		}
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	cfg, err := Decode(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses a profile file, applies defaults and validates every
// profile. Unknown keys are rejected.
func Decode(data string) (*Config, error) {
	var cfg Config
	meta, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidProfile, err, "decode profiles")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, cerrors.New(cerrors.ErrCodeInvalidProfile, "unknown key %s", undecoded[0])
	}

	for name, p := range cfg.Profiles {
		if err := cerrors.ValidateProfileName(name); err != nil {
			return nil, err
		}
		if p == nil {
			p = &Profile{}
			cfg.Profiles[name] = p
		}
		p.Name = name
		if p.Sensitivities == nil && meta.IsDefined("profiles", name, "sensitivities") {
			p.Sensitivities = []string{}
		}
		p.ApplyDefaults()
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	if cfg.Default != "" {
		if _, ok := cfg.Profiles[cfg.Default]; !ok {
			return nil, cerrors.New(cerrors.ErrCodeProfileNotFound, "default profile %q is not defined", cfg.Default)
		}
	}
	return &cfg, nil
}

// Get returns the named profile. An empty name selects the file's default,
// or [Default] if the file names none.
func (c *Config) Get(name string) (*Profile, error) {
	if name == "" {
		name = c.Default
	}
	if name == "" {
		return Default(), nil
	}
	p, ok := c.Profiles[name]
	if !ok {
		return nil, cerrors.New(cerrors.ErrCodeProfileNotFound, "profile %q not found (have: %v)", name, c.Names())
	}
	return p, nil
}

// Names returns the profile names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyDefaults fills empty fields. Nil sensitivities become the usual set
// for the edge kind; an empty non-nil list is kept.
func (p *Profile) ApplyDefaults() {
	if p.Graph == "" {
		p.Graph = GraphDFG
	}
	if p.Direction == "" {
		p.Direction = DirectionForward
	}
	if p.Scope == "" {
		p.Scope = ScopeInterprocedural
	}
	if p.Sensitivities == nil {
		switch p.Graph {
		case GraphDFG:
			p.Sensitivities = []string{"context", "field"}
		case GraphEOG:
			p.Sensitivities = []string{"context", "filter-unreachable"}
		}
	}
}

// Validate checks every field against the allowed values.
func (p *Profile) Validate() error {
	if !slices.Contains(Graphs, p.Graph) {
		return cerrors.New(cerrors.ErrCodeInvalidProfile, "profile %s: unknown graph %q (must be one of %v)", p.Name, p.Graph, Graphs)
	}
	switch p.Direction {
	case DirectionForward, DirectionBackward:
	case DirectionBidirectional:
		if p.Graph == GraphPDG || p.Graph == GraphCDG {
			return cerrors.New(cerrors.ErrCodeInvalidProfile, "profile %s: %s walks are forward or backward", p.Name, p.Graph)
		}
	default:
		return cerrors.New(cerrors.ErrCodeInvalidProfile, "profile %s: unknown direction %q", p.Name, p.Direction)
	}
	if p.Scope != ScopeIntraprocedural && p.Scope != ScopeInterprocedural {
		return cerrors.New(cerrors.ErrCodeInvalidProfile, "profile %s: unknown scope %q", p.Name, p.Scope)
	}
	if p.MaxSteps < 0 || p.MaxCallDepth < 0 {
		return cerrors.New(cerrors.ErrCodeInvalidProfile, "profile %s: budgets must not be negative", p.Name)
	}
	if _, err := p.sensitivity(); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidProfile, err, "profile %s", p.Name)
	}
	return nil
}

func (p *Profile) sensitivity() (walk.Sensitivity, error) {
	var s walk.Sensitivity
	for _, name := range p.Sensitivities {
		f, err := walk.ParseSensitivity(name)
		if err != nil {
			return 0, err
		}
		s |= f
	}
	return s, nil
}

func bound(n int) walk.Bound {
	if n == 0 {
		return walk.Unbounded
	}
	return walk.Max(n)
}

// Query builds the policy query of a dfg or eog profile.
func (p *Profile) Query() (walk.Query, error) {
	var overlay walk.Overlay
	switch p.Graph {
	case GraphDFG:
		overlay = walk.DFG
	case GraphEOG:
		overlay = walk.EOG
	default:
		return walk.Query{}, cerrors.New(cerrors.ErrCodeInvalidProfile, "profile %s: %s walks are not policy queries", p.Name, p.Graph)
	}

	var q walk.Query
	switch p.Direction {
	case DirectionForward:
		q.Direction = walk.Forward{Graph: overlay}
	case DirectionBackward:
		q.Direction = walk.Backward{Graph: overlay}
	case DirectionBidirectional:
		q.Direction = walk.Bidirectional{Graph: overlay}
	}
	if p.Scope == ScopeIntraprocedural {
		q.Scope = walk.Intraprocedural{MaxSteps: bound(p.MaxSteps)}
	} else {
		q.Scope = walk.Interprocedural{MaxCallDepth: bound(p.MaxCallDepth), MaxSteps: bound(p.MaxSteps)}
	}
	s, err := p.sensitivity()
	if err != nil {
		return walk.Query{}, cerrors.Wrap(cerrors.ErrCodeInvalidProfile, err, "profile %s", p.Name)
	}
	q.Sensitivity = s
	return q, nil
}

// Options returns the engine options of the profile, starting from
// [walk.DefaultOptions].
func (p *Profile) Options() walk.Options {
	opts := walk.DefaultOptions()
	if p.FindAll != nil {
		opts.FindAllPaths = *p.FindAll
	}
	if p.CollectFailed != nil {
		opts.CollectFailedPaths = *p.CollectFailed
	}
	return opts
}

// Exploration binds the profile to a target predicate. opts usually comes
// from [Profile.Options] with a logger attached. pdg and cdg profiles use
// the dependence walkers, widened across calls when the scope is
// interprocedural; their step budget does not apply.
func (p *Profile) Exploration(pred walk.Predicate, opts walk.Options) (walk.Exploration, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	switch p.Graph {
	case GraphDFG, GraphEOG:
		q, err := p.Query()
		if err != nil {
			return nil, err
		}
		if err := q.Validate(); err != nil {
			return nil, err
		}
		return walk.ForQuery(q, pred, opts), nil
	}

	w := walk.Widening{Interprocedural: p.Scope == ScopeInterprocedural, MaxDepth: bound(p.MaxCallDepth)}
	follow := map[string]func(context.Context, *cpg.Node, walk.Widening, walk.Predicate, walk.Options) (*walk.Result, error){
		GraphPDG + DirectionForward:  walk.FollowNextPDGUntilHit,
		GraphPDG + DirectionBackward: walk.FollowPrevPDGUntilHit,
		GraphCDG + DirectionForward:  walk.FollowNextCDGUntilHit,
		GraphCDG + DirectionBackward: walk.FollowPrevCDGUntilHit,
	}[p.Graph+p.Direction]
	return func(ctx context.Context, start *cpg.Node) (*walk.Result, error) {
		return follow(ctx, start, w, pred, opts)
	}, nil
}

// String renders the profile on one line.
func (p *Profile) String() string {
	return fmt.Sprintf("%s: %s %s %s (steps=%s, depth=%s) [%v]",
		p.Name, p.Direction, p.Graph, p.Scope, bound(p.MaxSteps), bound(p.MaxCallDepth), p.Sensitivities)
}
