// Package dsl provides the concrete nodes of the adhoc type system.
//
// Overview
//   - Scalars: String()/Integer()/Boolean()/Enum(values...)/Null() with chained constraints (MaxLen, Pattern, Range, Strict).
//   - Struct: Struct(name).Mandatory(...).Optional(...).Versions(from, to).Build()/MustBuild().
//   - Wrappers: Universe.List(elem) and Universe.OrNull(child); the Universe interns them by child identity.
//     Wrapping a reference that has not resolved yet gives a deferred node that
//     becomes the canonical wrapper of the target.
//   - Recursion: Lazy(func() adhoc.Node) refers to a node that is built later (self-referential structs).
//   - Domain lookups: WithLookup(node, lookup, reverse) resolves wire values into business objects.
//
// File layout (roles)
//   - meta.go: name/description/version override shared by all nodes.
//   - primitives.go: scalar leaf nodes.
//   - struct.go / struct_builder.go: StructNode and its builder (Check/Convert/Output two-pass).
//   - list.go / ornull.go: wrapper nodes.
//   - lazy.go: deferred references.
//   - universe.go: identity cache for wrappers and named instances.
//   - lookup.go: lookup decorator.
//
// Error model
//   - Check/Convert/Lookup return adhoc.Issues with JSON Pointer paths rebased through containers.
//   - Output returns *adhoc.InternalError: a failing output is a server defect, not client input.
//
// Example
//
//	u := dsl.NewUniverse()
//	var group *dsl.StructNode
//	group = dsl.Struct("group").
//		Mandatory("id", dsl.Integer().Range(0, 100), "group id").
//		Optional("parent", u.OrNull(dsl.Lazy(func() adhoc.Node { return group })), "").
//		Optional("tags", u.List(dsl.String().MaxLen(10)), "").
//		MustBuild()
//
//	v, err := adhoc.Parse(ctx, group, map[string]any{"id": 5})
package dsl
