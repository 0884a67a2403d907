// Package convert turns request parameter strings into typed values.
//
// A [Registry] finds a [Converter] for a target type in this order: a
// converter registered for the exact type, [Enumerated] types,
// encoding.TextUnmarshaler implementations, and finally the converter for
// the type's underlying kind, so `type Status string` binds like a string.
// A struct field can pick a named converter with a tag:
//
//	Email string  `convert:"email"`
//	Rate  float64 `convert:"percentage"`
//
// Numbers are parsed with an [i18n.LocaleFormat]: group separators and
// currency symbols are stripped, the locale decimal separator is honored,
// and "(12)" reads as -12.
//
// Failures are returned as *[Error] carrying a message key and parameters
// for localization.
package convert
