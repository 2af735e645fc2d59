package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	cerrors "github.com/matzehuels/cpgwalk/pkg/errors"
	"github.com/matzehuels/cpgwalk/pkg/pipeline"
	"github.com/matzehuels/cpgwalk/pkg/profile"
)

// Output formats of the query command.
const (
	formatText = "text"
	formatJSON = "json"
)

// queryOpts holds the flags of the query command. With --config, policy
// flags override the selected profile only when given explicitly.
type queryOpts struct {
	from   []string
	target pipeline.Target

	configPath  string
	profileName string
	pick        bool

	graphKind     string
	direction     string
	scope         string
	maxSteps      int
	maxCallDepth  int
	sensitivities []string
	findAll       bool
	collectFailed bool

	format  string
	workers int
	refresh bool
	cache   cacheOpts
}

// queryCommand creates the query command.
func (c *CLI) queryCommand() *cobra.Command {
	opts := queryOpts{format: formatText, findAll: true, collectFailed: true}

	cmd := &cobra.Command{
		Use:   "query <graph>",
		Short: "Explore paths from start nodes to a target",
		Long: `Explore every path leaving the start nodes and report which ones reach a
target node. A target is possible if some path reaches it and mandatory if
no path fails to.

Examples:
  cpgwalk query app.yaml --from secret --to-kind call --to-name log.Print
  cpgwalk query app.yaml --from main --graph-kind eog --scope intra --to-id exit
  cpgwalk query app.yaml --from sink --direction backward --to-name secret
  cpgwalk query app.yaml --config profiles.toml --profile taint --from secret --to-kind call`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.profile(cmd)
			if err != nil {
				return err
			}
			return c.runQuery(cmd, args[0], p, &opts)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.from, "from", nil, "start node ID (repeatable)")
	f.StringVar(&opts.target.ID, "to-id", "", "target node ID")
	f.StringVar(&opts.target.Name, "to-name", "", "target node name, qualified or local")
	f.StringVar(&opts.target.Kind, "to-kind", "", "target node kind (e.g. call, return, variable)")
	f.StringVar(&opts.configPath, "config", "", "TOML file with query profiles")
	f.StringVar(&opts.profileName, "profile", "", "profile to use from --config (default: the file's default)")
	f.BoolVar(&opts.pick, "pick", false, "choose the profile from --config interactively")
	f.StringVar(&opts.graphKind, "graph-kind", profile.GraphDFG, "edges to walk: dfg, eog, pdg or cdg")
	f.StringVar(&opts.direction, "direction", profile.DirectionForward, "forward, backward or bidirectional")
	f.StringVar(&opts.scope, "scope", "inter", "intra or inter(procedural)")
	f.IntVar(&opts.maxSteps, "max-steps", 0, "maximum edges per path (0 = unbounded)")
	f.IntVar(&opts.maxCallDepth, "max-call-depth", 0, "maximum nested calls (0 = unbounded)")
	f.StringSliceVar(&opts.sensitivities, "sensitivity", nil, "context, field, implicit, filter-unreachable or only-full (repeatable)")
	f.BoolVar(&opts.findAll, "all", opts.findAll, "explore every path, not only the first to reach each node")
	f.BoolVar(&opts.collectFailed, "failed", opts.collectFailed, "collect paths that never reach a target")
	f.StringVarP(&opts.format, "format", "f", opts.format, "output format: text or json")
	f.IntVar(&opts.workers, "workers", 0, "start nodes explored at once (0 = one per CPU)")
	f.BoolVar(&opts.refresh, "refresh", false, "recompute even if a cached report exists")
	opts.cache.register(cmd)

	_ = cmd.MarkFlagRequired("from")
	_ = cmd.RegisterFlagCompletionFunc("graph-kind", cobra.FixedCompletions(profile.Graphs, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{formatText, formatJSON}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// profile resolves the profile from --config/--profile and applies the
// policy flags on top.
func (o *queryOpts) profile(cmd *cobra.Command) (*profile.Profile, error) {
	var p *profile.Profile
	switch {
	case o.configPath != "":
		cfg, err := profile.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		name := o.profileName
		if o.pick {
			if name, err = pickProfile(cmd.Context(), cfg); err != nil {
				return nil, err
			}
		}
		selected, err := cfg.Get(name)
		if err != nil {
			return nil, err
		}
		cp := *selected
		p = &cp
	case o.profileName != "" || o.pick:
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "--profile and --pick need --config")
	default:
		p = &profile.Profile{Name: "flags"}
	}

	flags := cmd.Flags()
	set := func(name string) bool { return o.configPath == "" || flags.Changed(name) }
	if set("graph-kind") {
		p.Graph = o.graphKind
		if !flags.Changed("sensitivity") {
			p.Sensitivities = nil
		}
	}
	if set("direction") {
		p.Direction = o.direction
	}
	if set("scope") {
		p.Scope = scopeName(o.scope)
	}
	if set("max-steps") {
		p.MaxSteps = o.maxSteps
	}
	if set("max-call-depth") {
		p.MaxCallDepth = o.maxCallDepth
	}
	if flags.Changed("sensitivity") {
		p.Sensitivities = append([]string{}, o.sensitivities...)
	}
	if flags.Changed("all") {
		p.FindAll = &o.findAll
	}
	if flags.Changed("failed") {
		p.CollectFailed = &o.collectFailed
	}
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// scopeName expands the short scope names accepted on the command line.
func scopeName(s string) string {
	switch s {
	case "intra":
		return profile.ScopeIntraprocedural
	case "inter":
		return profile.ScopeInterprocedural
	}
	return s
}

func (c *CLI) runQuery(cmd *cobra.Command, graphPath string, p *profile.Profile, opts *queryOpts) error {
	if opts.format != formatText && opts.format != formatJSON {
		return cerrors.New(cerrors.ErrCodeInvalidFormat, "unknown format %q (must be text or json)", opts.format)
	}
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, pipeline.Options{
		GraphPath: graphPath,
		Starts:    opts.from,
		Target:    opts.target,
		Profile:   p,
		Workers:   opts.workers,
		Refresh:   opts.refresh,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Explored %d start nodes", len(opts.from)))

	out := cmd.OutOrStdout()
	if opts.format == formatJSON {
		return writeJSON(out, res.Report)
	}
	writeReport(out, res.Report)
	writeStats(out, res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheHit)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
