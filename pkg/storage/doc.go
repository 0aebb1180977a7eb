// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xtier: 记忆化结果的后端层（Redis、本地文件、进程内），按顺序组成降级链
//
// 设计原则：
//   - 后端只存字节，编解码由调用方提供
//   - 后端故障降级为未命中，不向计算路径传播错误
//   - 每层独立熔断，写操作带重试
package storage
