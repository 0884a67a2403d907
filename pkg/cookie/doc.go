// Package cookie protects values that make a round trip through the
// browser.
//
// A [Codec] seals strings with AES-GCM. The dispatcher uses it for the
// _sourcePage and __fp form parameters, so a client cannot point a failed
// submission at an arbitrary page or clear fields it was never shown. A
// [Manager] applies the same codec to cookies, for example the cookie that
// identifies session-scoped action beans.
//
//	codec := cookie.MustCodec(os.Getenv("COOKIE_SECRET"))
//	token := codec.Seal("/user/edit")
//	page, err := codec.Open(token)
package cookie
