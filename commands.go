package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ripjar/pdfmake/config"
	"github.com/ripjar/pdfmake/dsl"
	"github.com/ripjar/pdfmake/layout"
	"github.com/ripjar/pdfmake/measure"
	"github.com/ripjar/pdfmake/renderer"
	canvasrenderer "github.com/ripjar/pdfmake/renderer/canvas"
	"github.com/ripjar/pdfmake/script"
)

func newRenderCmd(g *globalOpts) *cobra.Command {
	var output, debugPath string
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "排版并输出 PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := prepare(cmd, g, args[0])
			if err != nil {
				return err
			}
			res, err := job.build(cmd)
			if err != nil {
				return err
			}
			if debugPath != "" {
				if err := writeDebug(res, debugPath); err != nil {
					return err
				}
			}
			out := output
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".pdf"
			}
			return job.render(res, out)
		},
	}
	cmd.Flags().StringVarP(&output, "out", "o", "", "PDF 输出路径，默认与输入同名")
	cmd.Flags().StringVar(&debugPath, "debug", "", "同时输出布局调试 JSON")
	return cmd
}

func newInspectCmd(g *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "排版并把页面与节点位置以 JSON 输出到标准输出",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := prepare(cmd, g, args[0])
			if err != nil {
				return err
			}
			res, err := job.build(cmd)
			if err != nil {
				return err
			}
			return layout.EncodeDebugJSON(res, cmd.OutOrStdout())
		},
	}
}

// job 保存一次排版所需的全部输入。
type job struct {
	cfg      *config.Config
	log      *log.Logger
	tpl      *dsl.Template
	renderer renderer.Renderer
	measurer *measure.Measurer
	debug    bool
}

// prepare 读取配置、数据与文档，创建渲染器与测量器。
func prepare(cmd *cobra.Command, g *globalOpts, input string) (*job, error) {
	cfg := config.Default()
	if g.config != "" {
		var err error
		if cfg, err = config.Load(g.config); err != nil {
			return nil, err
		}
	}
	level, _ := cfg.Level()
	if g.verbose {
		level = log.DebugLevel
	}
	logger := newLogger(cmd.ErrOrStderr(), level)

	dataPath := g.data
	if dataPath == "" && cfg.Data != "" {
		dataPath = cfg.Path(cfg.Data)
	}
	data, err := readData(dataPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("无法打开文档 %s: %w", input, err)
	}
	defer f.Close()
	tpl, err := dsl.Load(f, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	if !tpl.PageDeclared {
		if err := cfg.ApplyPage(tpl.Document); err != nil {
			return nil, err
		}
	}

	families, err := cfg.Families()
	if err != nil {
		return nil, err
	}
	images, err := cfg.LoadImages()
	if err != nil {
		return nil, err
	}
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir:  filepath.Dir(input),
		Families: families,
		Images:   images,
		Logger:   logger,
	})
	m, err := measure.New(r, measure.Options{
		Styles:  tpl.Styles,
		Default: cfg.Style().Merge(tpl.Default),
		Images:  r,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("已加载文档", "file", input, "styles", len(tpl.Styles), "fonts", len(families))
	return &job{cfg: cfg, log: logger, tpl: tpl, renderer: r, measurer: m, debug: g.verbose}, nil
}

func readData(path string) (any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取数据文件失败: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("解析数据文件 %s 失败: %w", path, err)
	}
	return data, nil
}

func (j *job) build(cmd *cobra.Command) (*layout.Result, error) {
	start := time.Now()
	doc := j.tpl.Document
	if j.tpl.PageBreakScript != "" {
		policy, err := script.Compile(j.tpl.PageBreakScript, j.log)
		if err != nil {
			return nil, err
		}
		doc.PageBreakBefore = policy.Func(cmd.Context())
	}
	res, err := layout.Build(doc, layout.BuildOptions{
		Measurer: j.measurer,
		Text:     j.measurer,
		Logger:   j.log,
		RTLFont:  j.cfg.Text.RTLFont,
		Debug:    layout.DebugOptions{LogPasses: j.debug},
	})
	if err != nil {
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	j.log.Infof("排版完成: %d 页, %d 遍 (%s)", len(res.Pages), res.Passes, time.Since(start).Round(time.Millisecond))
	return res, nil
}

func (j *job) render(res *layout.Result, out string) error {
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("创建 PDF 文件失败: %w", err)
	}
	if err := j.renderer.RenderTo(f, res); err != nil {
		f.Close()
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	j.log.Info("已生成 PDF", "file", out, "pages", len(res.Pages))
	return nil
}

func writeDebug(res *layout.Result, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建调试目录失败: %w", err)
		}
	}
	if err := layout.WriteDebugJSON(res, path); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
