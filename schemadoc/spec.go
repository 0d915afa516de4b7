package schemadoc

import (
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/typecodec/descriptor"
)

type document struct {
	Types yaml.Node `yaml:"types"`
}

type fieldSpec struct {
	Type        yaml.Node  `yaml:"type"`
	Default     yaml.Node  `yaml:"default"`
	Name        string     `yaml:"name"`
	Alias       string     `yaml:"alias"`
	Kind        string     `yaml:"kind"`
	Pattern     string     `yaml:"pattern"`
	Required    bool       `yaml:"required"`
	SkipNone    bool       `yaml:"skip_none"`
	SkipDefault bool       `yaml:"skip_default"`
	Fallback    bool       `yaml:"fall_back_on_default"`
}

type recordSpec struct {
	DependentRequired map[string][]string `yaml:"dependent_required"`
	Fields            []fieldSpec         `yaml:"fields"`
}

type unionSpec struct {
	Mapping       map[string]string `yaml:"mapping"`
	Discriminator string            `yaml:"discriminator"`
	Of            []yaml.Node       `yaml:"of"`
}

type constraintSpec struct {
	Minimum          *float64 `yaml:"minimum"`
	Maximum          *float64 `yaml:"maximum"`
	ExclusiveMinimum *float64 `yaml:"exclusive_minimum"`
	ExclusiveMaximum *float64 `yaml:"exclusive_maximum"`
	MultipleOf       *float64 `yaml:"multiple_of"`
	MinLength        *int     `yaml:"min_length"`
	MaxLength        *int     `yaml:"max_length"`
	MinItems         *int     `yaml:"min_items"`
	MaxItems         *int     `yaml:"max_items"`
	MinProperties    *int     `yaml:"min_properties"`
	MaxProperties    *int     `yaml:"max_properties"`
	Pattern          string   `yaml:"pattern"`
	UniqueItems      bool     `yaml:"unique_items"`
}

var constraintKeys = map[string]bool{
	"minimum": true, "maximum": true,
	"exclusive_minimum": true, "exclusive_maximum": true,
	"multiple_of": true,
	"min_length":  true, "max_length": true, "pattern": true,
	"min_items": true, "max_items": true, "unique_items": true,
	"min_properties": true, "max_properties": true,
}

func (s *constraintSpec) build() (*descriptor.Constraints, error) {
	cs := &descriptor.Constraints{
		Minimum:          s.Minimum,
		Maximum:          s.Maximum,
		ExclusiveMinimum: s.ExclusiveMinimum,
		ExclusiveMaximum: s.ExclusiveMaximum,
		MultipleOf:       s.MultipleOf,
		MinLength:        s.MinLength,
		MaxLength:        s.MaxLength,
		MinItems:         s.MinItems,
		MaxItems:         s.MaxItems,
		MinProperties:    s.MinProperties,
		MaxProperties:    s.MaxProperties,
		UniqueItems:      s.UniqueItems,
	}
	if s.Pattern != "" {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, err
		}
		cs.Pattern = re
	}
	return cs, nil
}

var fieldKinds = map[string]descriptor.FieldKind{
	"":           descriptor.FieldNormal,
	"normal":     descriptor.FieldNormal,
	"readonly":   descriptor.FieldReadOnly,
	"writeonly":  descriptor.FieldWriteOnly,
	"flatten":    descriptor.FieldFlattened,
	"additional": descriptor.FieldAdditional,
	"pattern":    descriptor.FieldPattern,
}

var builtins = map[string]*descriptor.Type{
	"null":   descriptor.Null,
	"bool":   descriptor.Bool,
	"int":    descriptor.Int,
	"float":  descriptor.Float,
	"string": descriptor.String,
	"any":    descriptor.AnyType,
}
