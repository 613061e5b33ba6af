/*
 * @description: Cobra Root Command 定义
 */

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"neoprobe/internal/config"
	"neoprobe/internal/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "neoprobe",
	Short: "NeoProbe TCP 端口可达性探测工具",
	Long: `NeoProbe 对一组目标主机探测 TCP 端口可达性，按主机和端口输出结果表格，
支持 ICMP 可达性门禁和可选的名称/地址解析。

示例:
  1.探测两台主机的常用端口
	neoprobe run -t 10.0.0.1,10.0.0.2 -p 22,80,443
  2.跳过 Ping 门禁并解析地址
	neoprobe run -t web01 -p 80,443 --skip-ping -r
  3.导出 CSV
	neoprobe run --target-file hosts.txt -p 3389 --outputCsv report.csv
`,
	// PersistentPreRun: 全局初始化逻辑，确保所有子命令都能使用日志
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initCLILogger()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// 全局 Flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认: ./configs/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "日志级别 (debug, info, warn, error)")

	// 绑定 Viper
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	// 注册子命令
	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewConfigCmd())
}

// newConfigLoader 构造配置加载器，--config 指定了路径时在其所在目录查找
func newConfigLoader() *config.ConfigLoader {
	configPath := ""
	if cfgFile != "" {
		configPath = filepath.Dir(cfgFile)
	}
	return config.NewConfigLoader(configPath, "NEOPROBE")
}

// initConfig 读取配置文件和环境变量
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		// fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// initCLILogger 初始化 CLI 模式下的日志
// CLI 默认只输出 warn 及以上，--log-level 或配置文件的 log.level 可以放开
// (log.level 已通过 BindPFlag 绑定，flag 优先于配置文件)
func initCLILogger() {
	level := viper.GetString("log.level")
	if level == "" {
		level = "warn"
	}

	logConfig := &config.LogConfig{
		Level:  level,
		Format: "text",
		Output: "stdout",
		Caller: false,
	}

	if _, err := logger.InitLogger(logConfig); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
	}
}
