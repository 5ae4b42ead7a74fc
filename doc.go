// Package adhoc is the contract layer of a multi-protocol RPC framework: a
// versioned, self-describing type system.
//
// The root package holds the contracts shared by every other package:
//
// - Node, the four-operation pipeline (Check -> Convert -> Lookup inbound, Output outbound)
// - Range, the inclusive API version interval and its algebra (Clamp, EffectiveRange)
// - Capsify, the internal -> external name canonicalization
// - Two disjoint error taxonomies: Issues (client input) and InternalError /
//   RegistrationError (server defects, fatal at boot for registration)
//
// Design policy:
// - Concrete nodes live under dsl/, per-version registries under registry/,
//   JSON Schema export under jsonschema/, the JSON wire adapter under codec/.
// - Everything is built single-threaded at start-up and read-only afterwards.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	u := dsl.NewUniverse()
//	t := dsl.Struct("thing").
//		Mandatory("id", dsl.Integer().Range(0, 100), "").
//		Optional("note", dsl.String().MaxLen(10), "").
//		Versions(1, 3).
//		MustBuild()
//	v, err := adhoc.Parse(ctx, t, raw)
//	wire, err := adhoc.Output(ctx, u.List(t), []any{v})
package adhoc
