package mwapi

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/go-querystring/query"
)

// normalizeParams converts the supported parameter shapes (url.Values,
// string maps, map[string]any, tagged structs) into url.Values and injects
// the fixed fields every Action API call carries.
func normalizeParams(p any) (url.Values, error) {
	values := url.Values{}

	switch v := p.(type) {
	case nil:
		// nothing
	case url.Values:
		for k, vs := range v {
			if len(vs) == 0 {
				continue
			}
			// Repeated fields are represented by | in the Action API.
			values.Set(k, strings.Join(vs, "|"))
		}
	case map[string]string:
		for k, val := range v {
			values.Set(k, val)
		}
	case map[string]any:
		for k, val := range v {
			addAny(values, k, val)
		}
	default:
		rv := reflect.ValueOf(p)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				break
			}
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return nil, fmt.Errorf("unsupported params type: %T", p)
		}
		qs, err := query.Values(p)
		if err != nil {
			return nil, err
		}
		for k, vs := range qs {
			if len(vs) == 0 {
				continue
			}
			values.Set(k, strings.Join(vs, "|"))
		}
	}

	setDefaultIfMissing(values, "format", "json")
	setDefaultIfMissing(values, "formatversion", "2")

	return values, nil
}

func setDefaultIfMissing(v url.Values, key, value string) {
	if v.Get(key) == "" {
		v.Set(key, value)
	}
}

func addAny(values url.Values, key string, val any) {
	switch x := val.(type) {
	case nil:
		return
	case string:
		values.Set(key, x)
	case bool:
		if x {
			values.Set(key, "1")
		}
	case int:
		values.Set(key, strconv.Itoa(x))
	case int64:
		values.Set(key, strconv.FormatInt(x, 10))
	case float64:
		values.Set(key, strconv.FormatFloat(x, 'f', -1, 64))
	case []string:
		if len(x) > 0 {
			values.Set(key, strings.Join(x, "|"))
		}
	case fmt.Stringer:
		values.Set(key, x.String())
	default:
		values.Set(key, fmt.Sprint(val))
	}
}
