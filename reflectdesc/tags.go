package reflectdesc

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/typecodec/descriptor"
)

type tagInfo struct {
	pattern     *regexp.Regexp
	alias       string
	kind        descriptor.FieldKind
	skip        bool
	required    bool
	omitEmpty   bool
	skipNone    bool
	skipDefault bool
}

// parseTag reads the codec struct tag:
//
//	codec:"alias,required,omitempty,readonly,writeonly,flatten,additional,pattern=RE,skipnone,skipdefault"
//
// pattern consumes the rest of the tag, so the expression may contain commas.
func parseTag(sf reflect.StructField) (tagInfo, error) {
	var info tagInfo
	raw, ok := sf.Tag.Lookup("codec")
	if !ok {
		return info, nil
	}
	if raw == "-" {
		info.skip = true
		return info, nil
	}

	name, rest, _ := strings.Cut(raw, ",")
	info.alias = name
	for rest != "" {
		var opt string
		if strings.HasPrefix(rest, "pattern=") {
			opt, rest = rest, ""
		} else {
			opt, rest, _ = strings.Cut(rest, ",")
		}
		switch {
		case opt == "required":
			info.required = true
		case opt == "omitempty":
			info.omitEmpty = true
		case opt == "skipnone":
			info.skipNone = true
		case opt == "skipdefault":
			info.skipDefault = true
		case opt == "readonly":
			info.kind = descriptor.FieldReadOnly
		case opt == "writeonly":
			info.kind = descriptor.FieldWriteOnly
		case opt == "flatten":
			info.kind = descriptor.FieldFlattened
		case opt == "additional":
			info.kind = descriptor.FieldAdditional
		case strings.HasPrefix(opt, "pattern="):
			re, err := regexp.Compile(strings.TrimPrefix(opt, "pattern="))
			if err != nil {
				return info, err
			}
			info.kind = descriptor.FieldPattern
			info.pattern = re
		default:
			return info, fmt.Errorf("unknown codec option %q", opt)
		}
	}
	return info, nil
}

// parseValidate reads the validate struct tag:
//
//	validate:"min=0,max=10,xmin=,xmax=,multiple=,minlen=,maxlen=,minitems=,maxitems=,unique,pattern=RE"
func parseValidate(raw string) (*descriptor.Constraints, error) {
	if raw == "" {
		return nil, nil
	}
	cs := &descriptor.Constraints{}
	rest := raw
	for rest != "" {
		var opt string
		if strings.HasPrefix(rest, "pattern=") {
			opt, rest = rest, ""
		} else {
			opt, rest, _ = strings.Cut(rest, ",")
		}
		key, value, hasValue := strings.Cut(opt, "=")
		if key == "unique" {
			cs.UniqueItems = true
			continue
		}
		if !hasValue {
			return nil, fmt.Errorf("validate option %q needs a value", key)
		}

		var err error
		switch key {
		case "min":
			cs.Minimum, err = float(value)
		case "max":
			cs.Maximum, err = float(value)
		case "xmin":
			cs.ExclusiveMinimum, err = float(value)
		case "xmax":
			cs.ExclusiveMaximum, err = float(value)
		case "multiple":
			cs.MultipleOf, err = float(value)
		case "minlen":
			cs.MinLength, err = integer(value)
		case "maxlen":
			cs.MaxLength, err = integer(value)
		case "minitems":
			cs.MinItems, err = integer(value)
		case "maxitems":
			cs.MaxItems, err = integer(value)
		case "minprops":
			cs.MinProperties, err = integer(value)
		case "maxprops":
			cs.MaxProperties, err = integer(value)
		case "pattern":
			cs.Pattern, err = regexp.Compile(value)
		default:
			err = fmt.Errorf("unknown validate option %q", key)
		}
		if err != nil {
			return nil, err
		}
	}
	return cs, nil
}

func float(s string) (*float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func integer(s string) (*int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// parseDefault decodes a default tag as YAML into a value of rt, so
// scalars, lists and maps can all be given inline.
func parseDefault(raw string, rt reflect.Type) (any, error) {
	ptr := reflect.New(rt)
	if err := yaml.Unmarshal([]byte(raw), ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
