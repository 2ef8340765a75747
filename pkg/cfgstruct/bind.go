// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

// Package cfgstruct binds configuration structs to flags.
//
// Each exported leaf field becomes one flag. The flag name is the
// dotted path of the snake-cased field names, so a Database struct
// field Host becomes --database.host. Field tags supply the metadata:
// `help` is the usage string, `default` the unset value, and
// `user:"true"` marks settings worth writing to a config file.
package cfgstruct

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Bind sets flags on flags for every leaf field of the struct pointed
// to by config. Invalid defaults are programmer errors and panic.
func Bind(flags *pflag.FlagSet, config interface{}) {
	ptr := reflect.ValueOf(config)
	if ptr.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("invalid config type: %T, expected pointer to struct", config))
	}
	value := ptr.Elem()
	if value.Kind() != reflect.Struct {
		panic(fmt.Sprintf("invalid config type: %T, expected pointer to struct", config))
	}
	bindStruct(flags, "", value)
}

func bindStruct(flags *pflag.FlagSet, prefix string, value reflect.Value) {
	structType := value.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldValue := value.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		name := prefix + hyphenate(field.Name)
		if fieldValue.Kind() == reflect.Struct && fieldValue.Type() != reflect.TypeOf(time.Time{}) {
			bindStruct(flags, name+".", fieldValue)
			continue
		}
		bindField(flags, name, field, fieldValue)
	}
}

func bindField(flags *pflag.FlagSet, name string, field reflect.StructField, value reflect.Value) {
	help := field.Tag.Get("help")
	def := field.Tag.Get("default")

	switch ptr := value.Addr().Interface().(type) {
	case *string:
		flags.StringVar(ptr, name, def, help)
	case *bool:
		flags.BoolVar(ptr, name, parseBool(name, def), help)
	case *int:
		flags.IntVar(ptr, name, int(parseInt(name, def, strconv.IntSize)), help)
	case *int32:
		flags.Int32Var(ptr, name, int32(parseInt(name, def, 32)), help)
	case *int64:
		flags.Int64Var(ptr, name, parseInt(name, def, 64), help)
	case *float64:
		flags.Float64Var(ptr, name, parseFloat(name, def), help)
	case *time.Duration:
		flags.DurationVar(ptr, name, parseDuration(name, def), help)
	default:
		panic(fmt.Sprintf("invalid field type %s for flag %s", field.Type, name))
	}

	if field.Tag.Get("user") == "true" {
		setBoolAnnotation(flags, name, "user")
	}
	if field.Tag.Get("hidden") == "true" {
		setBoolAnnotation(flags, name, "hidden")
	}
}

func setBoolAnnotation(flags *pflag.FlagSet, name, key string) {
	if err := flags.SetAnnotation(name, key, []string{"true"}); err != nil {
		panic(fmt.Sprintf("setting %s annotation on flag %s: %v", key, name, err))
	}
}

func parseBool(name, def string) bool {
	if def == "" {
		return false
	}
	v, err := strconv.ParseBool(def)
	if err != nil {
		panic(fmt.Sprintf("invalid bool default for flag %s: %q", name, def))
	}
	return v
}

func parseInt(name, def string, bits int) int64 {
	if def == "" {
		return 0
	}
	v, err := strconv.ParseInt(def, 10, bits)
	if err != nil {
		panic(fmt.Sprintf("invalid integer default for flag %s: %q", name, def))
	}
	return v
}

func parseFloat(name, def string) float64 {
	if def == "" {
		return 0
	}
	v, err := strconv.ParseFloat(def, 64)
	if err != nil {
		panic(fmt.Sprintf("invalid float default for flag %s: %q", name, def))
	}
	return v
}

func parseDuration(name, def string) time.Duration {
	if def == "" {
		return 0
	}
	v, err := time.ParseDuration(def)
	if err != nil {
		panic(fmt.Sprintf("invalid duration default for flag %s: %q", name, def))
	}
	return v
}

// hyphenate renders a Go field name as a flag segment: SocketDir turns
// into socket-dir, SSLMode into ssl-mode.
func hyphenate(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if 'A' <= r && r <= 'Z' {
			boundary := i > 0 && (isLower(runes[i-1]) ||
				(i+1 < len(runes) && isLower(runes[i+1])))
			if boundary {
				b.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isLower(r rune) bool { return 'a' <= r && r <= 'z' }
