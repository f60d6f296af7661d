package codec

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

type family int

const (
	familyUTF8 family = iota
	familyUTF16LE
	familyUTF16BE
	familyLegacy
)

// canonical WHATWG names, in the order of the Encoding Standard index
var whatwgNames = []string{
	"utf-8",
	"ibm866",
	"iso-8859-2", "iso-8859-3", "iso-8859-4", "iso-8859-5", "iso-8859-6",
	"iso-8859-7", "iso-8859-8", "iso-8859-8-i", "iso-8859-10", "iso-8859-13",
	"iso-8859-14", "iso-8859-15", "iso-8859-16",
	"koi8-r", "koi8-u", "macintosh", "windows-874",
	"windows-1250", "windows-1251", "windows-1252", "windows-1253", "windows-1254",
	"windows-1255", "windows-1256", "windows-1257", "windows-1258",
	"x-mac-cyrillic",
	"gbk", "gb18030", "big5",
	"euc-jp", "iso-2022-jp", "shift_jis", "euc-kr",
	"utf-16be", "utf-16le",
	"x-user-defined",
}

type resolved struct {
	name   string
	family family
	enc    encoding.Encoding
}

func resolve(label string) (resolved, error) {

	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" || l == "utf-8" || l == "utf8" {
		return resolved{name: "utf-8", family: familyUTF8}, nil
	}

	enc, err := htmlindex.Get(l)
	if err != nil {
		return resolved{}, labelError(label)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return resolved{}, labelError(label)
	}

	switch name {
	case "utf-8":
		return resolved{name: name, family: familyUTF8}, nil
	case "utf-16le":
		return resolved{name: name, family: familyUTF16LE}, nil
	case "utf-16be":
		return resolved{name: name, family: familyUTF16BE}, nil
	case "replacement":
		// exists only to neuter dangerous labels, never exposed to callers
		return resolved{}, labelError(label)
	}
	return resolved{name: name, family: familyLegacy, enc: enc}, nil
}

// Encodings returns the canonical names of every supported encoding.
func Encodings() []string {
	names := make([]string, 0, len(whatwgNames))
	seen := make(map[string]bool, len(whatwgNames))
	for _, n := range whatwgNames {
		if r, err := resolve(n); err == nil && !seen[r.name] {
			seen[r.name] = true
			names = append(names, r.name)
		}
	}
	return names
}

// Canonical returns the canonical name for label.
func Canonical(label string) (string, error) {
	r, err := resolve(label)
	if err != nil {
		return "", err
	}
	return r.name, nil
}
