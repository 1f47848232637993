package acquire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const tokenOpen = "{counter"

// ErrInvalidTemplate reports a malformed or repeated counter token.
var ErrInvalidTemplate = errors.New("invalid locator template")

// Format renders an integer counter into its textual form inside a URL.
type Format struct {
	Name string
	// Width is the zero-padding width; zero renders without padding.
	Width int
}

// Probe formats, in the order they are tried for each start counter.
var (
	FormatPlain   = Format{Name: "plain"}
	FormatDecimal = Format{Name: "decimal"}
	FormatPadded5 = Format{Name: "padded5", Width: 5}

	ProbeFormats = []Format{FormatPlain, FormatDecimal, FormatPadded5}
)

// Render returns n formatted according to f.
func (f Format) Render(n int) string {
	if f.Width > 0 {
		return fmt.Sprintf("%0*d", f.Width, n)
	}
	return strconv.Itoa(n)
}

func (f Format) String() string {
	if f.Name != "" {
		return f.Name
	}
	if f.Width > 0 {
		return fmt.Sprintf("padded%d", f.Width)
	}
	return "plain"
}

// Template is a parsed locator template.
type Template struct {
	raw    string
	prefix string
	suffix string
	token  bool
	pinned *Format
}

// ParseTemplate splits s around its counter token. A template without a
// token is valid and HasCounter reports false. More than one token, an
// unterminated token, or an unsupported directive yield ErrInvalidTemplate.
func ParseTemplate(s string) (Template, error) {
	if strings.TrimSpace(s) == "" {
		return Template{}, fmt.Errorf("%w: empty template", ErrInvalidTemplate)
	}
	start := strings.Index(s, tokenOpen)
	if start < 0 {
		return Template{raw: s}, nil
	}
	if strings.Contains(s[start+len(tokenOpen):], tokenOpen) {
		return Template{}, fmt.Errorf("%w: more than one counter token in %q", ErrInvalidTemplate, s)
	}

	rest := s[start+len(tokenOpen):]
	end := strings.IndexByte(rest, '}')
	if end < 0 {
		return Template{}, fmt.Errorf("%w: unterminated counter token in %q", ErrInvalidTemplate, s)
	}
	body := rest[:end]

	tmpl := Template{
		raw:    s,
		prefix: s[:start],
		suffix: rest[end+1:],
		token:  true,
	}
	switch {
	case body == "":
	case strings.HasPrefix(body, ":"):
		f, err := parseDirective(body[1:])
		if err != nil {
			return Template{}, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
		tmpl.pinned = &f
	default:
		return Template{}, fmt.Errorf("%w: unknown token {counter%s}", ErrInvalidTemplate, body)
	}
	return tmpl, nil
}

// parseDirective accepts "d" and "0<N>d".
func parseDirective(directive string) (Format, error) {
	if directive == "d" {
		return FormatDecimal, nil
	}
	if len(directive) >= 3 && directive[0] == '0' && strings.HasSuffix(directive, "d") {
		width, err := strconv.Atoi(directive[1 : len(directive)-1])
		if err == nil && width > 0 && width <= 20 {
			if width == FormatPadded5.Width {
				return FormatPadded5, nil
			}
			return Format{Width: width}, nil
		}
	}
	return Format{}, fmt.Errorf("unsupported counter directive %q", directive)
}

// HasCounter reports whether the template contains a counter token.
func (t Template) HasCounter() bool { return t.token }

// Pinned returns the format fixed by the token's directive, if any.
func (t Template) Pinned() (Format, bool) {
	if t.pinned == nil {
		return Format{}, false
	}
	return *t.pinned, true
}

// Formats returns the formats probed for each start counter.
func (t Template) Formats() []Format {
	if f, ok := t.Pinned(); ok {
		return []Format{f}
	}
	return ProbeFormats
}

// Render substitutes counter, formatted with f, for the token. Templates
// without a token render to themselves.
func (t Template) Render(f Format, counter int) string {
	if !t.token {
		return t.raw
	}
	return t.prefix + f.Render(counter) + t.suffix
}

func (t Template) String() string { return t.raw }
