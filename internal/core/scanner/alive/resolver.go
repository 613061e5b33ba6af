package alive

import (
	"context"
	"net"
	"strings"

	"neoprobe/internal/core/model"
)

// Resolver 名称/地址解析接口
type Resolver interface {
	// Resolve 对主机名返回其 IP 地址列表 (以 ";" 连接)，
	// 对 IP 地址返回反向解析出的主机名。
	// 解析失败返回占位符，永远不返回错误。
	Resolve(ctx context.Context, target string) string
}

// NetResolver 使用平台解析器 (net.DefaultResolver)
type NetResolver struct{}

func NewNetResolver() *NetResolver {
	return &NetResolver{}
}

func (r *NetResolver) Resolve(ctx context.Context, target string) string {
	if ip := net.ParseIP(target); ip != nil {
		// IP -> 反向解析主机名 (DNS PTR)
		names, err := net.DefaultResolver.LookupAddr(ctx, target)
		if err != nil || len(names) == 0 {
			return model.ResolveFailed
		}
		for i, name := range names {
			names[i] = strings.TrimSuffix(name, ".")
		}
		return strings.Join(names, ";")
	}

	// 主机名 -> IP 地址列表
	addrs, err := net.DefaultResolver.LookupHost(ctx, target)
	if err != nil || len(addrs) == 0 {
		return model.ResolveFailed
	}
	return strings.Join(addrs, ";")
}
