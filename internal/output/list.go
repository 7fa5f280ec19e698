package output

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// ApplyListOptions sorts and truncates slice data according to the
// --sort-by, --desc and --limit values in ctx. Other values pass through.
// The input slice is never modified.
func ApplyListOptions(ctx context.Context, data interface{}) interface{} {
	limit := LimitFromContext(ctx)
	sortBy, desc := SortFromContext(ctx)
	if limit == 0 && sortBy == "" {
		return data
	}

	v := indirect(reflect.ValueOf(data))
	if !v.IsValid() || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) || v.Len() == 0 {
		return data
	}

	out := reflect.MakeSlice(reflect.SliceOf(v.Type().Elem()), v.Len(), v.Len())
	reflect.Copy(out, v)

	if sortBy != "" {
		sort.SliceStable(out.Interface(), func(i, j int) bool {
			a, aok := fieldValue(out.Index(i), sortBy)
			b, bok := fieldValue(out.Index(j), sortBy)
			switch {
			case !aok:
				return false
			case !bok:
				return true
			}
			cmp := compareValues(a, b)
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if limit > 0 && limit < out.Len() {
		out = out.Slice(0, limit)
	}
	return out.Interface()
}

// fieldValue finds a struct field or map key by name, ignoring case,
// underscores and dashes.
func fieldValue(v reflect.Value, name string) (interface{}, bool) {
	v = indirect(v)
	want := normalizeName(name)

	switch v.Kind() {
	case reflect.Struct:
		for _, f := range exportedFields(v.Type()) {
			if normalizeName(f.name) == want {
				return v.Field(f.index).Interface(), true
			}
		}
	case reflect.Map:
		for _, key := range v.MapKeys() {
			if s, ok := key.Interface().(string); ok && normalizeName(s) == want {
				return v.MapIndex(key).Interface(), true
			}
		}
	}
	return nil, false
}

func normalizeName(s string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(s))
}

func compareValues(a, b interface{}) int {
	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return strings.Compare(va, vb)
		}
	case int:
		if vb, ok := b.(int); ok {
			return compareOrdered(va, vb)
		}
	case int64:
		if vb, ok := b.(int64); ok {
			return compareOrdered(va, vb)
		}
	case float64:
		if vb, ok := b.(float64); ok {
			return compareOrdered(va, vb)
		}
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Compare(vb)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func compareOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
