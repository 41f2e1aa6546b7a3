package binder

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Path binds chi URL parameters into fields tagged `path:"name"`.
func Path() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			return ErrNotApplicable
		}
		lookup := func(name string) (string, bool) {
			for i, key := range rctx.URLParams.Keys {
				if key == name {
					return rctx.URLParams.Values[i], true
				}
			}
			return "", false
		}
		if err := bindTagged(v, "path", lookup); err != nil {
			return errors.Join(ErrFailedToParsePath, err)
		}
		return nil
	}
}

// Query binds URL query values into fields tagged `query:"name"`.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		values := r.URL.Query()
		lookup := func(name string) (string, bool) {
			if !values.Has(name) {
				return "", false
			}
			return strings.TrimSpace(values.Get(name)), true
		}
		if err := bindTagged(v, "query", lookup); err != nil {
			return errors.Join(ErrFailedToParseQuery, err)
		}
		return nil
	}
}

// bindTagged walks the exported fields of the struct v points to. Only string, bool and
// integer kinds are supported; fields without a value are left untouched.
func bindTagged(v any, tag string, lookup func(string) (string, bool)) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a non-nil pointer to a struct, got %T", v)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := range rt.NumField() {
		field := rt.Field(i)
		name, ok := field.Tag.Lookup(tag)
		if !ok || name == "-" || !field.IsExported() {
			continue
		}
		raw, ok := lookup(name)
		if !ok {
			continue
		}
		if err := setValue(rv.Field(i), raw); err != nil {
			return fmt.Errorf("%s %q: %w", tag, name, err)
		}
	}
	return nil
}

func setValue(f reflect.Value, raw string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		f.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetUint(n)
	default:
		return fmt.Errorf("unsupported field kind %s", f.Kind())
	}
	return nil
}
