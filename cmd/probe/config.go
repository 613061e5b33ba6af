/*
 * @description: probe config 子命令 (显示生效配置)
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfigCmd 创建 config 命令，输出合并默认值和环境变量后的生效配置
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "显示当前生效的配置 (YAML)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfigLoader().LoadConfig()
			if err != nil {
				return err
			}
			fmt.Print(cfg.Dump())
			return nil
		},
	}
}
