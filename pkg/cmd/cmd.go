// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/bidvault/pkg/app"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "bidvault",
		Short: "文档接入与结构化抽取服务",
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务与解析流水线",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.NewApp(configPath).Run()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "输出调试信息")

	rootCmd.AddCommand(serveCmd)
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()

	return rootCmd.Execute()
}
