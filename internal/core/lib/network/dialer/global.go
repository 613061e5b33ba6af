package dialer

// globalDialer 全局拨号器实例
// 默认直连且不附加超时，限时语义由调用方通过 context 控制
var globalDialer Dialer = NewDefaultDialer(0)

// SetGlobalDialer 设置全局拨号器 (例如配置了全局代理时)
func SetGlobalDialer(d Dialer) {
	globalDialer = d
}

// Get 获取全局拨号器
func Get() Dialer {
	return globalDialer
}
