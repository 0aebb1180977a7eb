// Package xmemo 为函数调用结果提供按时间桶过期的 LRU 记忆化缓存。
//
// 一个 Engine 对应一个被记忆化的函数：
//
//	eng, err := xmemo.New[*User](xmemo.Config{MaxSize: 1024, TTL: time.Minute},
//		xmemo.WithName("users.load"),
//	)
//	if err != nil {
//		return err
//	}
//	load := xmemo.Wrap(eng, func(ctx context.Context, id int64) (*User, error) {
//		return repo.Load(ctx, id)
//	})
//	u, err := load(ctx, 42)
//
// # 状态机
//
// 每次调用：
//   - TTL == 0：旁路，直接调用函数，不读写存储，不合并并发调用
//   - 否则计算键与当前时间桶（与 MaxSize 无关，总是计算）
//   - 命中且桶编号相同：返回缓存值并更新最近使用位置
//   - 未命中或过期：同一个键的并发未命中只执行一次计算（single-flight），
//     结果以当前桶写入存储，超过容量时淘汰最久未使用的条目
//
// # 失败语义
//
//   - 函数返回的错误原样返回，不缓存，下一次调用重新计算
//   - 函数 panic 被恢复并以 ErrComputePanic 返回给所有等待者
//   - 参数无法构造稳定的键时返回 xkey.ErrUnhashableArgument，不执行函数
//   - 配置非法时 New 返回 ErrInvalidConfig，调用时不会出现配置错误
//
// # 并发
//
// 存储由引擎内的一把锁保护，锁只覆盖存储的读写；函数执行、后端层 I/O、
// 日志和指标都在锁外进行。调用方取消 ctx 只会让该调用方提前返回，
// 共享的计算继续执行，其他等待者照常拿到结果。
//
// # 后端层
//
// WithTiers 接入 xtier.Chain 后，本地未命中时先查询后端层，再执行函数；
// 计算结果写回后端层，过期时间为到下一个桶边界的剩余时长。
// 后端层故障只记录日志，不影响调用结果。
package xmemo
