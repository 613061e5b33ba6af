package model

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// NormalizePorts 校验、去重并按升序排列端口列表
// 端口顺序决定报告列顺序，必须确定性
func NormalizePorts(ports []int) ([]int, error) {
	if len(ports) == 0 {
		return nil, fmt.Errorf("port list is required")
	}

	seen := make(map[int]struct{}, len(ports))
	out := make([]int, 0, len(ports))
	for _, p := range ports {
		if p < 1 || p > 65535 {
			return nil, fmt.Errorf("invalid port %d: must be in range 1-65535", p)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	sort.Ints(out)
	return out, nil
}

// NormalizeTargets 校验目标列表
// 注意：不做去重，重复目标在聚合阶段以 last-write-wins 语义折叠
func NormalizeTargets(targets []string) ([]string, error) {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("target list is required")
	}
	return out, nil
}

// LoadTargetFile 从文件读取目标列表，一行一个，# 开头为注释
func LoadTargetFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open target file: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target file: %w", err)
	}
	return targets, nil
}
