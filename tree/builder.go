package tree

import (
	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/name"
	"github.com/orchid-lang/orchid/orcerr"
	"github.com/orchid-lang/orchid/parser"
	"github.com/orchid-lang/orchid/pos"
)

// Builder accumulates source lines from potentially many files into one
// project tree plus its parallel glob-import tree.
type Builder struct {
	store *interner.Store
	root  *Module
	globs *GlobNode

	selfTok, superTok interner.Token
}

// NewBuilder creates an empty project (an empty root module).
func NewBuilder(store *interner.Store) *Builder {
	return &Builder{
		store:    store,
		root:     newModule(name.VPath{}),
		globs:    newGlobNode(),
		selfTok:  store.Intern("self"),
		superTok: store.Intern("super"),
	}
}

// Root returns the project's root module.
func (b *Builder) Root() *Module { return b.root }

// Globs returns the parallel glob-import tree.
func (b *Builder) Globs() *GlobNode { return b.globs }

// AddFile merges one file's parsed source lines into the project tree at
// modulePath (the module the file defines; typically derived from the
// file's path relative to the project root).
func (b *Builder) AddFile(modulePath name.VPath, lines []parser.SourceLine) error {
	mod, err := b.descendCreate(b.root, modulePath.Segments())
	if err != nil {
		return err
	}
	return b.mergeLines(mod, modulePath, lines)
}

// descendCreate walks (creating as needed) the module chain named by segs,
// starting at root, and returns the final module.
func (b *Builder) descendCreate(root *Module, segs []interner.Token) (*Module, error) {
	cur := root
	path := name.VPath{}
	for _, seg := range segs {
		path = path.Suffix(seg)
		e, ok := cur.Get(seg)
		if !ok {
			sub := newModule(path)
			cur.set(seg, &Entry{Kind: EntryModule, Sub: sub})
			cur = sub
			continue
		}
		if e.Kind != EntryModule {
			return nil, orcerr.New(orcerr.KindMultipleDefinitions,
				"a file path component names a non-module entry")
		}
		cur = e.Sub
	}
	return cur, nil
}

func (b *Builder) mergeLines(mod *Module, modPath name.VPath, lines []parser.SourceLine) error {
	for _, line := range lines {
		if err := b.mergeLine(mod, modPath, line); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) mergeLine(mod *Module, modPath name.VPath, line parser.SourceLine) error {
	switch line.Kind {
	case parser.LineComment:
		mod.FileComments = append(mod.FileComments, parser.Comment{Text: line.Comment, Pos: line.Pos})

	case parser.LineExport:
		for _, c := range line.Exports {
			if c.Name == nil {
				continue // a bare "export *" has no single entry to mark
			}
			if err := b.markExported(mod, *c.Name, c.Pos, line.Comments); err != nil {
				return err
			}
		}

	case parser.LineImport:
		for _, imp := range line.Imports {
			target, err := resolveImportAnchor(modPath, imp, b.selfTok, b.superTok)
			if err != nil {
				return err
			}
			if imp.Name == nil {
				b.globs.record(modPath, target, imp.Pos)
				continue
			}
			full := target.Suffix(*imp.Name)
			vn, err := full.ToVName()
			if err != nil {
				return err
			}
			alias := aliasEntry(vn, b.store, imp.Pos, line.Comments)
			if err := insertLocal(mod, *imp.Name, alias); err != nil {
				return err
			}
		}

	case parser.LineConstant:
		e := &Entry{
			Kind:      EntryConstant,
			Exported:  line.Exported,
			Positions: []pos.Pos{line.Constant.Pos},
			Comments:  line.Comments,
			Value:     line.Constant.Value,
		}
		if err := insertLocal(mod, line.Constant.Name, e); err != nil {
			return err
		}

	case parser.LineRule:
		mod.Rules = append(mod.Rules, Rule{
			Pattern: line.Rule.Pattern, Template: line.Rule.Template,
			Priority: line.Rule.Priority, Pos: line.Rule.Pos, Comments: line.Comments,
		})

	case parser.LineModule:
		sub, err := b.descendCreate(mod, []interner.Token{line.Module.Name})
		if err != nil {
			return err
		}
		existing, _ := mod.Get(line.Module.Name)
		existing.Exported = existing.Exported || line.Exported
		existing.Positions = append(existing.Positions, line.Module.Pos)
		existing.Comments = append(existing.Comments, line.Comments...)
		if err := b.mergeLines(sub, sub.Path, line.Module.Body); err != nil {
			return err
		}
	}
	return nil
}

// insertLocal adds a fresh entry, merging with a pre-existing EntryNone
// placeholder (from a forward "export name") and rejecting a genuine
// redefinition.
func insertLocal(mod *Module, local interner.Token, e *Entry) error {
	existing, ok := mod.Get(local)
	if !ok {
		mod.set(local, e)
		return nil
	}
	if existing.Kind == EntryNone {
		e.Exported = e.Exported || existing.Exported
		e.Positions = append(existing.Positions, e.Positions...)
		e.Comments = append(existing.Comments, e.Comments...)
		mod.set(local, e)
		return nil
	}
	return orcerr.New(orcerr.KindMultipleDefinitions,
		"this name is defined more than once in the same module", append(existing.Positions, e.Positions...)...)
}

// markExported records that local is exported, creating an EntryNone
// placeholder if it has not been defined yet (forward "export name").
func (b *Builder) markExported(mod *Module, local interner.Token, p pos.Pos, comments []parser.Comment) error {
	e, ok := mod.Get(local)
	if !ok {
		mod.set(local, &Entry{Kind: EntryNone, Exported: true, Positions: []pos.Pos{p}, Comments: comments})
		return nil
	}
	if e.Exported {
		return orcerr.New(orcerr.KindMultipleExports,
			"this name is exported more than once", append(e.Positions, p)...)
	}
	e.Exported = true
	e.Positions = append(e.Positions, p)
	e.Comments = append(e.Comments, comments...)
	return nil
}

func aliasEntry(target name.VName, store *interner.Store, p pos.Pos, comments []parser.Comment) *Entry {
	return &Entry{
		Kind: EntryAlias, Positions: []pos.Pos{p}, Comments: comments,
		Alias: target.ToSym(store),
	}
}

// resolveImportAnchor turns an import's path into an absolute VPath, given
// the importing module's own absolute path. A bare import ("import
// lib::*") is already absolute from the project root; "self"/"super" only
// change the anchor when they appear as the leading segment, matching how
// "super::seed" means "my parent's seed" rather than "my own seed's
// parent".
func resolveImportAnchor(modPath name.VPath, imp parser.Import, selfTok, superTok interner.Token) (name.VPath, error) {
	var segs []interner.Token
	started := false
	for _, seg := range imp.Path.Segments() {
		switch seg {
		case selfTok:
			if !started {
				segs = append([]interner.Token{}, modPath.Segments()...)
				started = true
			}
		case superTok:
			base := segs
			if !started {
				base = append([]interner.Token{}, modPath.Segments()...)
			}
			started = true
			if len(base) == 0 {
				return name.VPath{}, orcerr.New(orcerr.KindTooManySupers,
					"super steps above the project root", imp.Pos)
			}
			segs = base[:len(base)-1]
		default:
			started = true
			segs = append(segs, seg)
		}
	}
	return name.NewVPath(segs...), nil
}
