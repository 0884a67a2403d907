// Package validator holds validation errors and the tag-declared validation
// rules of action beans.
//
// Rules live in the validate tag and are comma separated:
//
//	type SignupAction struct {
//		Email string `validate:"required,on=save|submit,maxlen=120"`
//		Age   int    `validate:"min=18,max=130"`
//		Zip   string `validate:"mask=\\d{5}"`
//		Notes string `validate:"trim=false,label=Comments"`
//		Token string `validate:"ignore"`
//	}
//
// required may be limited with on= to a list of events, or to every event
// except a list of !events. minlen, maxlen and mask check the raw input
// before conversion; min and max check the converted number. Masks match
// the whole value. A comma inside a rule is written \\, in the tag.
//
// Rules are collected into nested structs, slices and maps using dotted
// names ("user.address.zip") and are cached per type by [For].
//
// [ValidationErrors] groups [Error] values by field, with [GlobalKey] for
// errors that belong to no field, and is translated in place with
// [ValidationErrors.Translate].
package validator
