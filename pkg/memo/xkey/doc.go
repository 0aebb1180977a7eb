// Package xkey 把一次函数调用的参数编码为确定性的缓存键。
//
// 键由函数标识、位置参数和命名参数共同决定。命名参数按名称排序，传入顺序不影响结果；
// 位置参数的顺序有意义。相等的参数总是得到相等的 Key：
//
//	k1, _ := xkey.Build("prices", []any{"EUR", 3}, map[string]any{"tax": true, "round": 2})
//	k2, _ := xkey.Build("prices", []any{"EUR", 3}, map[string]any{"round": 2, "tax": true})
//	// k1 == k2
//
// 编码带类型标签且每段自带长度或终止符，不同参数列表不会在文本上碰撞。
// int(1) 与 int64(1) 类型不同，得到不同的键。
//
// 不支持的参数（func、chan、unsafe.Pointer，以及超过深度限制的自引用结构）
// 返回 ErrUnhashableArgument，调用方应把它视为调用错误，不应继续计算。
//
// 调用方约定：参数的相等性须是确定的。指针按指向的值编码；
// 需要自定义表示的类型可实现 Keyer，实现了 encoding.TextMarshaler 的类型
// （如 time.Time、netip.Addr）按其文本形式编码。
package xkey
