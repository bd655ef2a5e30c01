/*
Package orchid is the macro/rewrite engine's pipeline facade. Package
structure:

■ interner, name, pos, toktree, lexer, lexplugins, parser: the front end
that turns source text into a resolved token tree (§4.1-4.7).

■ tree, resolve: the project-tree builder and the glob/alias resolvers
that turn many parsed files into one frozen, name-resolved module tree
(§4.5-§4.7).

■ macro, ir: the macro repository, matcher, rewrite driver and template
writer (§4.8-§4.11), and the AST→IR lowering boundary (§4.12/§6).

This root package's own exported surface is the pipeline entry point:
LoadProject, Resolve and Run.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package orchid
