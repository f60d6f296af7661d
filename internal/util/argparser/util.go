package argparser

import (
	"bytes"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/anjor/textstream/internal/constants"
	"github.com/pborman/getopt/v2"
)

// ugly as sin due to lack of lookaheads :/
var indenter = regexp.MustCompile(`(?m)^([^\n])`)
var nonOptIndenter = regexp.MustCompile(`(?m)^\s{0,12}([^\s\n\-])`)
var dashStripper = regexp.MustCompile(`(?m)^(\s*)\-\-`)

// SubHelp renders a plugin description and its sub-options for inclusion in
// the --help-all output.
func SubHelp(description string, optSet *getopt.Set) (sh []string) {

	sh = append(
		sh,
		indenter.ReplaceAllString(description, `  $1`),
	)

	if optSet == nil {
		return sh
	}

	b := bytes.NewBuffer(make([]byte, 0, 1024))
	optSet.PrintOptions(b)

	sh = append(sh, "  ------------\n   SubOptions")
	sh = append(sh,
		string(dashStripper.ReplaceAll(
			nonOptIndenter.ReplaceAll(
				b.Bytes(),
				[]byte(`              $1`),
			),
			[]byte(`$1  `),
		)),
	)

	return sh
}

// SplitSpec turns a "name_opt1=x_opt2" plugin spec into getopt-style args:
// ["name", "--opt1=x", "--opt2"].
func SplitSpec(spec string) []string {
	args := strings.Split(spec, "_")
	for n := range args {
		if n > 0 {
			args[n] = "--" + args[n]
		}
	}
	return args
}

var maxPlaceholder = regexp.MustCompile(`\bMaxChunk\b`)

// Parse runs optSet over args. Options whose parameter name is a range spec
// like "[2:]" or "[1:MaxChunk]" are mandatory and range-checked.
func Parse(args []string, optSet *getopt.Set) (argErrs []string) {

	if err := optSet.Getopt(args, nil); err != nil {
		argErrs = append(argErrs, err.Error())
	}

	unexpectedArgs := optSet.Args()
	if len(unexpectedArgs) != 0 {
		argErrs = append(argErrs, fmt.Sprintf(
			"unexpected free-form parameter(s): %s...",
			unexpectedArgs[0],
		))
	}

	// going through the limits when we are already in error is too confusing
	if len(argErrs) > 0 {
		return
	}

	optSet.VisitAll(func(o getopt.Option) {
		if spec := []byte(reflect.ValueOf(o).Elem().FieldByName("name").String()); len(spec) > 0 {

			max := int((^uint(0)) >> 1)
			min := -max - 1

			if spec[0] == '[' && spec[len(spec)-1] == ']' {
				spec = maxPlaceholder.ReplaceAll(spec, []byte(strconv.Itoa(constants.MaxChunkSize)))

				if _, err := fmt.Sscanf(string(spec), "[%d:%d]", &min, &max); err != nil {
					if _, err := fmt.Sscanf(string(spec), "[%d:]", &min); err != nil {
						argErrs = append(argErrs, fmt.Sprintf("failed parsing '%s' as '[%%d:%%d]' - %s", spec, err))
						return
					}
				}
			} else {
				// not a spec we recognize
				return
			}

			if !o.Seen() {
				argErrs = append(argErrs, fmt.Sprintf("a value for %s must be specified", o.LongName()))
				return
			}

			actual, err := strconv.ParseInt(o.Value().String(), 10, 64)
			if err != nil {
				argErrs = append(argErrs, err.Error())
				return
			}

			if actual < int64(min) || actual > int64(max) {
				argErrs = append(argErrs, fmt.Sprintf(
					"value '%d' supplied for %s out of range [%d:%d]",
					actual,
					o.LongName(),
					min, max,
				))
			}
		}
	})

	return
}
