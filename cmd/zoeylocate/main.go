package main

import (
	"os"

	"github.com/zoeyai/zoeylocate/internal/logger"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	defer logger.Default().Close()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
