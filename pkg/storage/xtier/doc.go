// Package xtier 定义缓存后端层（tier）的统一契约，并提供 Redis、文件、内存三种实现
// 以及按顺序降级的 Chain。
//
// 契约：
//
//	Get(ctx, key) ([]byte, bool, error)
//	Set(ctx, key, value, ttl) error
//	Delete(ctx, key) error
//	Clear(ctx) error
//
// 后端自身的基础设施故障统一包装为 ErrBackendUnavailable。
//
// Chain 按配置顺序组合多个后端，例如 Redis → File → Memory：
//   - 读取：依次查询，第一个命中的结果胜出；出错的层记录日志后跳过
//   - 写入：写入第一个成功的层，失败的层记录降级日志后尝试下一层
//   - 删除/清空：作用于所有层
//
// 每一层都有独立的熔断器（xbreaker），写操作带重试（xretry）。
// Chain 的方法从不返回后端错误，后端故障只会降低命中率，不影响正确性。
package xtier
