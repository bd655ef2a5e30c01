package orchid

import (
	"github.com/npillmayer/schuko/tracing"
	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/lexer"
	"github.com/orchid-lang/orchid/macro"
	"github.com/orchid-lang/orchid/name"
	"github.com/orchid-lang/orchid/orcerr"
	"github.com/orchid-lang/orchid/parser"
	"github.com/orchid-lang/orchid/resolve"
	"github.com/orchid-lang/orchid/tree"
)

// tracer traces with key 'orchid.pipeline'.
func tracer() tracing.Trace {
	return tracing.Select("orchid.pipeline")
}

// traceKeys lists every tracer key this module's own packages register,
// so Config.TraceLevel can be applied uniformly from one place (mirrors
// trepl/repl.go's traceLevel/SetTraceLevel calls, generalized from "one
// package" to "every package this facade wires together").
var traceKeys = []string{
	"orchid.pipeline", "orchid.interner", "orchid.name", "orchid.lexer",
	"orchid.lexplugins", "orchid.parser", "orchid.tree", "orchid.resolve",
	"orchid.macro",
}

// Source is one file offered to LoadProject. Module is this file's module
// path, "::"-separated (parsed the same way any other path string is, via
// name.ParseVPath) — "" for the project root. Name is a diagnostic source
// name used only in reported positions.
type Source struct {
	Module string
	Text   string
	Name   string
}

// Config configures a Pipeline. The embedding host builds one directly; no
// CLI entrypoint reads flags or environment variables into it (§1
// Non-goals), consistent with this being a library facade, not a program.
type Config struct {
	// Preludes are implicit glob imports applied project-wide (§4.6).
	Preludes []resolve.Prelude
	// Env is an ambient host-provided module whose exports participate in
	// every glob alongside the project tree's own (e.g. built-in stdlib
	// constants a host registers before loading user source).
	Env *tree.Module
	// LexPlugins extends the core lexer (§6 LexPlugin); lexplugins.Default()
	// is a ready-made pair a host can pass through unchanged.
	LexPlugins []lexer.Plugin
	// LineParsers extends the core line grammar (§6 LineParser).
	LineParsers []parser.LineParser
	// DefaultStepLimit is the limit RunDefault passes to the rewrite
	// driver. The zero Config leaves it at 0, the cancellation case, so
	// RunDefault then returns the expression unrewritten; pass
	// macro.Unlimited (-1) here for no step budget.
	DefaultStepLimit int
	// TraceLevel, if non-zero, is applied to every tracer key this
	// module's packages register (see traceKeys) when LoadProject runs.
	TraceLevel tracing.TraceLevel
}

// Pipeline is the facade: a frozen, name-resolved project tree plus its
// compiled macro repository and rewrite driver (§4.1-§4.11 end to end).
type Pipeline struct {
	cfg      Config
	store    *interner.Store
	root     *tree.Module
	resolver *resolve.Resolver
	repo     *macro.Repository
	driver   *macro.Driver

	// contentions indexes recorded glob contentions (§4.6) by
	// "<module>\x00<local name>" so Resolve can surface one lazily, only
	// once the contended name is actually referenced (§9), rather than
	// eagerly at LoadProject time.
	contentions map[string]resolve.Contention
}

// LoadProject lexes, parses and merges every source into one project tree,
// runs the glob and alias resolvers over it, and compiles every module's
// rules into a macro repository ready for Run.
func LoadProject(sources []Source, cfg Config) (*Pipeline, error) {
	if cfg.TraceLevel != 0 {
		for _, key := range traceKeys {
			tracing.Select(key).SetTraceLevel(cfg.TraceLevel)
		}
	}
	store := interner.New()
	b := tree.NewBuilder(store)

	for _, src := range sources {
		tracer().Debugf("lexing %s", src.Name)
		toks, err := lexer.Lex(src.Text, src.Name, cfg.LexPlugins, store)
		if err != nil {
			return nil, err
		}
		lines, err := parser.Parse(toks, cfg.LineParsers, store)
		if err != nil {
			return nil, err
		}
		if err := b.AddFile(name.ParseVPath(src.Module, store), lines); err != nil {
			return nil, err
		}
	}

	contentions, err := resolve.Glob(b.Root(), b.Globs(), cfg.Preludes, cfg.Env, store)
	if err != nil {
		return nil, err
	}
	tracer().Infof("glob resolution recorded %d contention(s)", len(contentions))

	p := &Pipeline{
		cfg:         cfg,
		store:       store,
		root:        b.Root(),
		resolver:    resolve.NewResolver(b.Root(), store),
		contentions: indexContentions(contentions, store),
	}

	var rules []*macro.Rule
	if err := collectRules(p.root, name.VPath{}, p.Resolve, store, &rules); err != nil {
		return nil, err
	}
	p.repo = macro.NewRepository(rules)
	p.driver = macro.NewDriver(p.repo)
	tracer().Infof("compiled %d rule(s) into the macro repository", len(rules))
	return p, nil
}

// Store returns the interner shared by every symbol and token this project
// produced; a host needs it to build name.VName/Sym values to pass back
// into Resolve or Run.
func (p *Pipeline) Store() *interner.Store { return p.store }

// Root returns the frozen project tree.
func (p *Pipeline) Root() *tree.Module { return p.root }

// Resolve walks ref (relative to origin) down to an absolute symbol (§4.7),
// first checking whether origin/ref's leading segment names a local that a
// recorded glob contention left ambiguous (§4.6, §9): a contention is only
// an error once a reference actually reaches it, never merely because it
// was recorded.
func (p *Pipeline) Resolve(origin name.VPath, ref name.VName) (name.Sym, error) {
	key := contentionKey(origin, ref.First(), p.store)
	if c, ok := p.contentions[key]; ok {
		return name.Sym{}, orcerr.New(orcerr.KindGlobConflict,
			"this name is ambiguous: more than one glob import exports it", c.Positions...)
	}
	return p.resolver.Resolve(origin, ref)
}

// Run looks up the constant named sym and rewrites its defining expression
// through the compiled macro repository (§4.8-§4.11), to a fixed point or
// until limit steps have been taken; pass macro.Unlimited for no step
// budget, or 0 to cancel immediately and get the expression back unrewritten
// (§5).
func (p *Pipeline) Run(sym name.Sym, limit int) ([]macro.Tree, int, error) {
	vn := sym.ToVName(p.store)
	modPath, local := vn.SplitLast()
	mod, err := lookupModule(p.root, modPath, p.store)
	if err != nil {
		return nil, 0, err
	}
	e, ok := mod.Get(local)
	if !ok || e.Kind != tree.EntryConstant {
		return nil, 0, orcerr.New(orcerr.KindNameResolveMissingTarget,
			"not a constant: "+sym.Display(p.store))
	}
	lowered, err := macro.Lower(e.Value, modPath, p.Resolve, p.store)
	if err != nil {
		return nil, 0, err
	}
	tracer().Debugf("running %s with limit=%d", sym.Display(p.store), limit)
	return p.driver.Run(lowered, limit)
}

// RunDefault is Run using cfg.DefaultStepLimit from LoadProject.
func (p *Pipeline) RunDefault(sym name.Sym) ([]macro.Tree, int, error) {
	return p.Run(sym, p.cfg.DefaultStepLimit)
}

// collectRules walks mod and every descendant module, lowering and
// compiling each one's rules in place (§4.8-§4.10), so a rule's pattern and
// template are resolved relative to the module that declared them.
func collectRules(mod *tree.Module, path name.VPath, resolveFn macro.ResolveFunc, store *interner.Store, out *[]*macro.Rule) error {
	for _, r := range mod.Rules {
		pattern, err := macro.Lower(r.Pattern, path, resolveFn, store)
		if err != nil {
			return err
		}
		template, err := macro.Lower(r.Template, path, resolveFn, store)
		if err != nil {
			return err
		}
		rule, err := macro.CompileRule(pattern, template, r.Priority, r.Pos)
		if err != nil {
			return err
		}
		*out = append(*out, rule)
	}
	for _, local := range mod.Names() {
		e, _ := mod.Get(local)
		if e.Kind != tree.EntryModule {
			continue
		}
		if err := collectRules(e.Sub, path.Suffix(local), resolveFn, store, out); err != nil {
			return err
		}
	}
	return nil
}

// lookupModule descends path from root, the same walk resolve's private
// lookupModule performs, duplicated here rather than exported from tree
// since it is a three-line mechanical detail, not a shared abstraction.
func lookupModule(root *tree.Module, path name.VPath, store *interner.Store) (*tree.Module, error) {
	cur := root
	for _, seg := range path.Segments() {
		e, ok := cur.Get(seg)
		if !ok || e.Kind != tree.EntryModule {
			return nil, orcerr.New(orcerr.KindNotAModule, "not a module: "+path.Display(store))
		}
		cur = e.Sub
	}
	return cur, nil
}

func indexContentions(cs []resolve.Contention, store *interner.Store) map[string]resolve.Contention {
	out := make(map[string]resolve.Contention, len(cs))
	for _, c := range cs {
		out[contentionKey(c.Module, c.Local, store)] = c
	}
	return out
}

func contentionKey(module name.VPath, local interner.Token, store *interner.Store) string {
	return module.Display(store) + "\x00" + store.ResolveString(local)
}
