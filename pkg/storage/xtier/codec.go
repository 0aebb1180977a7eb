package xtier

import (
	"encoding/json"
	"fmt"
)

// Codec 在值与后端字节之间转换
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// JSONCodec 使用 encoding/json 编解码，默认编解码器
type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(v V) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("xtier: json encode: %w", err)
	}
	return b, nil
}

func (JSONCodec[V]) Decode(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("xtier: json decode: %w", err)
	}
	return v, nil
}

// BytesCodec 原样存取 []byte，解码时复制一份
type BytesCodec struct{}

func (BytesCodec) Encode(v []byte) ([]byte, error) { return v, nil }

func (BytesCodec) Decode(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// StringCodec 原样存取 string
type StringCodec struct{}

func (StringCodec) Encode(v string) ([]byte, error) { return []byte(v), nil }

func (StringCodec) Decode(data []byte) (string, error) { return string(data), nil }

var (
	_ Codec[int]    = JSONCodec[int]{}
	_ Codec[[]byte] = BytesCodec{}
	_ Codec[string] = StringCodec{}
)
