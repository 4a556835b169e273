// Package main 启动应用程序
package main

import "github.com/yeisme/bidvault/pkg/cmd"

//	@title			BidVault API
//	@version		1.0
//	@description	BidVault 提供投标文档的上传、去重、解析、归档与检索服务。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
