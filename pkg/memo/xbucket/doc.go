// Package xbucket 把时间切分为固定长度的桶。
//
// 桶编号 bucket = floor(ts / ttl)。同一个桶内写入的缓存条目在整个桶内有效，
// 跨过桶边界即视为过期。因此一个条目的实际存活时间在 (0, ttl] 之间，
// 取决于写入时刻距离下一个边界的远近，所有条目在边界处同时失效。
//
// ttl == 0 表示旁路（不缓存），调用方不应为其计算桶编号；ttl < 0 是配置错误。
//
// Clock 抽象当前时间，测试中使用 FakeClock 精确控制桶边界。
package xbucket
