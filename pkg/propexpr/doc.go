// Package propexpr parses and evaluates property expressions against Go values.
//
// A property expression addresses a location inside a struct graph using
// dotted names and square-bracketed indexes or keys:
//
//	user.addresses[2].street
//	order.items['sku-1'].qty
//	settings["theme"]
//
// # Parsing
//
// [Parse] turns a string into an immutable [Expression]. Results are cached
// process-wide, so repeated parsing of the same string is free. Unquoted
// bracket contents are typed: 12 is an int, 12L an int64, 1.5 a float64,
// 1.5F a float32, and true or false a bool. Anything else is a string.
// Quoted values are always strings, except a single-quoted single character,
// which is a rune. A backslash escapes the following character.
//
// # Evaluation
//
// [Evaluate] binds an expression to a bean (a non-nil pointer) and resolves
// the declared type of every node. Struct fields are matched by their form
// tag, then by name, then case-insensitively. Interface-typed nodes are
// resolved from the live value.
//
//	e, err := propexpr.Evaluate(propexpr.MustParse("home.street"), &user)
//	if err != nil {
//	    return err
//	}
//	_ = e.SetValue("Main St") // allocates user.Home if nil
//
// Reading never creates anything. Writing allocates nil pointers and maps
// and grows slices to the requested index.
package propexpr
