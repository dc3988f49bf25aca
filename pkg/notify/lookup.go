package notify

import "reflect"

var pointType = reflect.TypeFor[*Point]()

// Field pairs a point with the struct field that holds it.
type Field struct {
	Field string
	Point *Point
}

// Fields returns the non-nil points held in exported *Point fields of
// target, a struct or a pointer to one, in field order.
func Fields(target any) []Field {
	v := reflect.ValueOf(target)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}

		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil
	}

	var fields []Field

	t := v.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Type != pointType {
			continue
		}

		p, _ := v.Field(i).Interface().(*Point)
		if p == nil {
			continue
		}

		fields = append(fields, Field{Field: sf.Name, Point: p})
	}

	return fields
}

// Lookup finds the point of target named name, matching the point name
// first and the field name second.
func Lookup(target any, name string) (*Point, bool) {
	fields := Fields(target)

	for _, f := range fields {
		if f.Point.Name() == name {
			return f.Point, true
		}
	}

	for _, f := range fields {
		if f.Field == name {
			return f.Point, true
		}
	}

	return nil, false
}
