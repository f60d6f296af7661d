package text

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Commify formats an int with thousands separators: 1234567 => "1,234,567".
func Commify(i int) string { return Commify64(int64(i)) }

func Commify64(i int64) string {
	s := strconv.FormatInt(i, 10)

	neg := i < 0
	if neg {
		s = s[1:]
	}

	if len(s) > 3 {
		b := make([]byte, 0, len(s)+len(s)/3)
		lead := len(s) % 3
		if lead == 0 {
			lead = 3
		}
		b = append(b, s[:lead]...)
		for p := lead; p < len(s); p += 3 {
			b = append(b, ',')
			b = append(b, s[p:p+3]...)
		}
		s = string(b)
	}

	if neg {
		return "-" + s
	}
	return s
}

// AvailableMapKeys renders the string keys of a map as a sorted, quoted,
// comma-separated list, for help and error texts.
func AvailableMapKeys(m interface{}) string {
	v := reflect.ValueOf(m)
	if v.Kind() != reflect.Map {
		panic(fmt.Sprintf("AvailableMapKeys expects a map, got %T", m))
	}

	avail := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		avail = append(avail, fmt.Sprintf(`'%s'`, k.String()))
	}

	sort.Strings(avail)
	return strings.Join(avail, ", ")
}
