// Package xevict 提供按时间桶判定新鲜度的 LRU 存储。
//
// 容量淘汰与时间过期相互独立：
//   - 容量：条目数超过上限时淘汰最久未使用的条目；Unbounded 表示不限容量
//   - 时间：条目记录写入时的桶编号，读取时与当前桶比较，不相等即过期，
//     过期条目在读取时惰性删除，永远不会被返回
//
// 无论是否限容量，每次读取都会检查桶编号。
//
// Store 不是并发安全的，由调用方持锁；SyncStore 是加锁的包装。
package xevict
