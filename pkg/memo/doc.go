// Package memo 提供函数结果记忆化相关的子包。
//
// 子包列表：
//   - xkey: 调用参数的规范化缓存键
//   - xbucket: 固定时间桶计算与可控时钟
//   - xevict: 带时间桶的容量有界 LRU 存储
//   - xmemo: 记忆化引擎，组合以上子包与 single-flight、后端层
package memo
