package urlbinding

import (
	"net/url"
	"path"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizePath prepares a decoded request path for lookup: the context
// path is stripped, duplicate slashes are collapsed and dot segments are
// resolved. A trailing slash is kept because bindings treat it as
// meaningful.
func NormalizePath(requestPath, contextPath string) string {
	p := requestPath
	if contextPath != "" && contextPath != "/" {
		cp := strings.TrimSuffix(contextPath, "/")
		if p == cp {
			p = "/"
		} else if strings.HasPrefix(p, cp+"/") {
			p = p[len(cp):]
		}
	}
	if p == "" {
		return "/"
	}
	trailing := strings.HasSuffix(p, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = path.Clean(p)
	if trailing && p != "/" {
		p += "/"
	}
	return p
}

func escapeSegment(s string) string {
	return url.PathEscape(s)
}

// BasePackages are the package path segments after which the
// conventional binding starts.
var BasePackages = []string{"web", "www", "action", "actions", "handlers"}

// typeSuffixes are stripped from type names, longest first.
var typeSuffixes = []string{"ActionBean", "Action", "Bean"}

// ConventionalPattern derives a binding from a bean's package path and
// type name when none is declared. Package segments up to and including
// the last base package are dropped, known suffixes are trimmed from the
// type name and ".action" is appended:
//
//	ConventionalPattern("example.com/app/web/admin", "UserActionBean") // "/admin/user.action"
//	ConventionalPattern("example.com/web/shop/actions/cart", "ItemAction") // "/cart/item.action"
//
// Without a base package only the type name is used.
func ConventionalPattern(pkgPath, typeName string) string {
	segments := strings.Split(strings.Trim(pkgPath, "/"), "/")
	var rest []string
	for i := len(segments) - 1; i >= 0; i-- {
		if slices.Contains(BasePackages, segments[i]) {
			rest = segments[i+1:]
			break
		}
	}

	name := typeName
	for _, suffix := range typeSuffixes {
		if trimmed := strings.TrimSuffix(name, suffix); trimmed != name && trimmed != "" {
			name = trimmed
			break
		}
	}
	if r, size := utf8.DecodeRuneInString(name); r != utf8.RuneError {
		name = string(unicode.ToLower(r)) + name[size:]
	}

	var sb strings.Builder
	for _, s := range rest {
		sb.WriteByte('/')
		sb.WriteString(s)
	}
	sb.WriteByte('/')
	sb.WriteString(name)
	sb.WriteString(".action")
	return sb.String()
}
