// Package tieropt 提供缓存后端层共用的辅助：健康检查超时、原子计数器、慢操作判定。
package tieropt
