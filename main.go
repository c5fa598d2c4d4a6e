package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOpts 是所有子命令共用的参数。
type globalOpts struct {
	config  string
	data    string
	verbose bool
}

func newRootCmd() *cobra.Command {
	var g globalOpts
	root := &cobra.Command{
		Use:           "pdfmake",
		Short:         "把文档描述排版为 PDF",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.config, "config", "c", "", "TOML 配置文件")
	root.PersistentFlags().StringVarP(&g.data, "data", "d", "", "绑定到文档的 JSON 数据文件")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "输出 debug 级别日志")

	root.AddCommand(newRenderCmd(&g))
	root.AddCommand(newInspectCmd(&g))
	return root
}

// newLogger 创建写入 w 的日志，时间格式为 "HH:MM:SS.ms"。
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Prefix:          "pdfmake",
	})
}
