package node

import "reflect"

// Sizer lets an item report its byte footprint for telemetry.
type Sizer interface {
	DataSize() int
}

var sizerType = reflect.TypeFor[Sizer]()

// SizeOf returns the telemetry size of v. Sizer wins; otherwise fixed-size
// values count their type size, strings their length and slices
// len * element size. Everything else counts as 0.
func SizeOf[T any](v T) int {
	return sizerFor[T]()(v)
}

// sizerFor resolves the sizing strategy of T once, so the hot loop does not
// inspect types per item.
func sizerFor[T any]() func(T) int {
	t := reflect.TypeFor[T]()
	if t.Implements(sizerType) {
		return func(v T) int { return any(v).(Sizer).DataSize() }
	}
	switch t.Kind() {
	case reflect.Interface:
		return func(v T) int {
			if s, ok := any(v).(Sizer); ok {
				return s.DataSize()
			}
			return 0
		}
	case reflect.String:
		return func(v T) int { return reflect.ValueOf(v).Len() }
	case reflect.Slice:
		elem := int(t.Elem().Size())
		return func(v T) int { return reflect.ValueOf(v).Len() * elem }
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.Array, reflect.Struct:
		n := int(t.Size())
		return func(T) int { return n }
	default:
		return func(T) int { return 0 }
	}
}
