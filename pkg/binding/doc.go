// Package binding decides which request parameters may be written into an
// action bean.
//
// Without a [Policy] every property can be bound except the bean's request
// context. A strict policy lists globs over dotted property names:
//
//	binding.Policy{
//		Default: binding.Deny,
//		Allow:   []string{"user.*", "user.address.**"},
//		Deny:    []string{"user.admin"},
//	}
//
// Properties that carry validate rules are always allowed, so a strict
// bean only lists what it binds without validation. A [Manager] compiles
// each bean type's rules once.
package binding
