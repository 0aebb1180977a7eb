package xkey

import (
	"encoding"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// maxDepth 嵌套深度上限，自引用的指针结构在此处截断并报错。
const maxDepth = 32

// encoder 把任意值写成带类型标签、自定界的文本。
//
// 每个值的编码形如 t{len}:{type}{body}，body 为以下之一：
//   - 标量：{text};
//   - 字符串：{len}:{bytes}
//   - 序列：{n}[{elem...}]
//   - 映射/结构体：{n}{{key value...}}
//   - 指针：*{elem} 或 nil;
//
// 每段都能独立确定边界，拼接后不会产生歧义。
type encoder struct {
	b *strings.Builder
}

func (e encoder) encode(v any, path string, depth int) error {
	if v == nil {
		e.b.WriteString("N;")
		return nil
	}
	return e.value(reflect.ValueOf(v), path, depth)
}

func (e encoder) value(rv reflect.Value, path string, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: %s nested deeper than %d levels", ErrUnhashableArgument, path, maxDepth)
	}
	if !rv.IsValid() {
		e.b.WriteString("N;")
		return nil
	}

	if ok, err := e.custom(rv, path); ok || err != nil {
		return err
	}

	t := rv.Type()
	e.b.WriteByte('t')
	writeLenPrefixed(e.b, typeTag(t))

	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			e.b.WriteString("T;")
		} else {
			e.b.WriteString("F;")
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.scalar(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.scalar(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		e.scalar(formatFloat(rv.Float()))
	case reflect.Complex64, reflect.Complex128:
		c := rv.Complex()
		e.scalar(formatFloat(real(c)) + "," + formatFloat(imag(c)))
	case reflect.String:
		writeLenPrefixed(e.b, rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			e.b.WriteString("nil;")
			return nil
		}
		return e.sequence(rv, path, depth)
	case reflect.Array:
		return e.sequence(rv, path, depth)
	case reflect.Map:
		if rv.IsNil() {
			e.b.WriteString("nil;")
			return nil
		}
		return e.mapping(rv, path, depth)
	case reflect.Struct:
		return e.structure(rv, path, depth)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			e.b.WriteString("nil;")
			return nil
		}
		e.b.WriteByte('*')
		return e.value(rv.Elem(), path, depth+1)
	default:
		// func、chan、unsafe.Pointer 没有确定的值相等语义
		return fmt.Errorf("%w: %s has kind %s", ErrUnhashableArgument, path, rv.Kind())
	}
	return nil
}

// custom 处理 Keyer 与 encoding.TextMarshaler，返回是否已写入。
func (e encoder) custom(rv reflect.Value, path string) (bool, error) {
	if !rv.CanInterface() {
		return false, nil
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false, nil
		}
	}

	var (
		tag  byte
		text string
	)
	switch x := rv.Interface().(type) {
	case Keyer:
		s, err := x.MemoKey()
		if err != nil {
			return false, fmt.Errorf("%w: %s: %w", ErrUnhashableArgument, path, err)
		}
		tag, text = 'K', s
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return false, fmt.Errorf("%w: %s: %w", ErrUnhashableArgument, path, err)
		}
		tag, text = 'M', string(b)
	default:
		return false, nil
	}

	e.b.WriteByte(tag)
	writeLenPrefixed(e.b, typeTag(rv.Type()))
	writeLenPrefixed(e.b, text)
	return true, nil
}

func (e encoder) scalar(s string) {
	e.b.WriteString(s)
	e.b.WriteByte(';')
}

func (e encoder) sequence(rv reflect.Value, path string, depth int) error {
	n := rv.Len()
	e.b.WriteString(strconv.Itoa(n))
	e.b.WriteByte('[')
	for i := range n {
		if err := e.value(rv.Index(i), path+"["+strconv.Itoa(i)+"]", depth+1); err != nil {
			return err
		}
	}
	e.b.WriteByte(']')
	return nil
}

// mapping 按键的编码排序，Go map 的迭代顺序不影响结果。
func (e encoder) mapping(rv reflect.Value, path string, depth int) error {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		var kb strings.Builder
		if err := (encoder{b: &kb}).value(iter.Key(), path+"{key}", depth+1); err != nil {
			return err
		}
		entries = append(entries, entry{key: kb.String(), val: iter.Value()})
	}
	slices.SortFunc(entries, func(a, b entry) int { return strings.Compare(a.key, b.key) })

	e.b.WriteString(strconv.Itoa(len(entries)))
	e.b.WriteByte('{')
	for _, en := range entries {
		e.b.WriteString(en.key)
		if err := e.value(en.val, path+"{"+en.key+"}", depth+1); err != nil {
			return err
		}
	}
	e.b.WriteByte('}')
	return nil
}

// structure 包含未导出字段，两个值相等当且仅当所有字段相等。
func (e encoder) structure(rv reflect.Value, path string, depth int) error {
	t := rv.Type()
	n := t.NumField()
	e.b.WriteString(strconv.Itoa(n))
	e.b.WriteByte('{')
	for i := range n {
		name := t.Field(i).Name
		writeLenPrefixed(e.b, name)
		if err := e.value(rv.Field(i), path+"."+name, depth+1); err != nil {
			return err
		}
	}
	e.b.WriteByte('}')
	return nil
}

// typeTag 命名类型带包路径，避免不同包的同名类型冲突。
func typeTag(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func formatFloat(f float64) string {
	if f == 0 {
		// -0 与 0 相等
		f = 0
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
