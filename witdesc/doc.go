// Package witdesc describes WebAssembly component model (WIT) types as
// codec descriptors, so values crossing a component boundary can be
// validated and converted from JSON or YAML trees.
//
// Integer types carry their range as constraints, char is a one-character
// string, flags are lists of flag names, result<T, E> is {"ok": T} or
// {"err": E}, and a variant case is {"tag": case, "value": payload}.
//
//	d := witdesc.New()
//	typ, err := d.Bind(recordTypeDef, reflect.TypeFor[Point]())
package witdesc
