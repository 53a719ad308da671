package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"car-identifier/internal/acquire"
	"car-identifier/internal/app"
	"car-identifier/internal/model"
	"car-identifier/internal/session"
	"car-identifier/internal/vehicle"
	"car-identifier/pkg/config"
	"car-identifier/pkg/log"
	"car-identifier/pkg/tracing"
)

const version = "car-identifier cli 0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := os.Args[1]
	args := os.Args[2:]
	switch cmd {
	case "version":
		fmt.Println(version)
	case "health":
		runHealth(ctx)
	case "config":
		runConfig()
	case "identify":
		path, remote, ok := parseIdentifyArgs(args)
		if !ok {
			fmt.Fprintf(os.Stderr, "Usage: carid identify <image> [--remote]\n")
			os.Exit(1)
		}
		if err := runIdentify(ctx, path, remote, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: carid <command> [args]")
	fmt.Println("  version                    - 显示版本")
	fmt.Println("  health                     - 检查 API 服务（CAR_IDENTIFIER_API_URL）")
	fmt.Println("  config                     - 显示配置概要")
	fmt.Println("  identify <image> [--remote] - 识别图片中的车辆；--remote 经由 API 服务")
}

func parseIdentifyArgs(args []string) (path string, remote bool, ok bool) {
	for _, a := range args {
		switch {
		case a == "--remote":
			remote = true
		case strings.HasPrefix(a, "-"):
			return "", false, false
		case path == "":
			path = a
		default:
			return "", false, false
		}
	}
	return path, remote, path != ""
}

func runHealth(ctx context.Context) {
	status, err := checkHealth(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "健康检查失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(status)
}

func runConfig() {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	printConfig(os.Stdout, cfg)
}

func printConfig(w io.Writer, cfg *config.Config) {
	provider := cfg.Model.Vision.Provider
	if provider == "" {
		provider = "gemini"
	}
	keySource := "secrets." + cfg.Secrets.Provider
	if cfg.Model.Vision.APIKey != "" {
		keySource = "config"
	}
	fmt.Fprintf(w, "api.addr=%s\n", cfg.API.Addr())
	fmt.Fprintf(w, "model.vision.provider=%s\n", provider)
	fmt.Fprintf(w, "model.vision.api_key=%s\n", keySource)
	fmt.Fprintf(w, "model.vision.providers=%s\n", strings.Join(model.VisionProviders(), ","))
	fmt.Fprintf(w, "log.level=%s\n", cfg.Log.Level)
	fmt.Fprintf(w, "monitoring.tracing.enable=%t\n", cfg.Monitoring.Tracing.Enable)
}

// runIdentify 读取图片 → 识别 → 输出卡片；识别失败以 error 返回
func runIdentify(ctx context.Context, path string, remote bool, out io.Writer) error {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if remote {
		return identifyViaAPI(ctx, cfg, path, out)
	}
	return identifyLocal(ctx, cfg, path, out)
}

func identifyViaAPI(ctx context.Context, cfg *config.Config, path string, out io.Writer) error {
	payload, _, err := acquire.FromFile(path, int64(cfg.API.MaxBodyBytes))
	if err != nil {
		return err
	}
	res, err := identifyRemote(ctx, payload)
	if err != nil {
		return err
	}
	return vehicle.Render(out, res.Text, res.Fields)
}

func identifyLocal(ctx context.Context, cfg *config.Config, path string, out io.Writer) error {
	// 日志写 stderr，stdout 只留卡片
	logger := log.NewWithWriter(os.Stderr, "text", log.ParseLevel(cfg.Log.Level))

	tr := cfg.Monitoring.Tracing
	if tr.Enable && tr.ExportEndpoint != "" {
		tp, err := tracing.InitTracer(ctx, tracing.OTelConfig{
			ServiceName:    tr.ServiceName,
			ServiceVersion: version,
			ExportEndpoint: tr.ExportEndpoint,
			Insecure:       tr.Insecure,
		})
		if err != nil {
			logger.Warn("初始化链路追踪失败", "error", err)
		} else {
			defer func() { _ = tp.Shutdown(context.Background()) }()
		}
	}

	b, err := app.NewBootstrapWithLogger(ctx, cfg, logger)
	if err != nil {
		return err
	}

	s := session.New(b.Identifier)
	res, err := s.Run(ctx, func(context.Context) (acquire.Payload, error) {
		p, src, err := acquire.FromFile(path, int64(cfg.API.MaxBodyBytes))
		if err == nil && src.Transcoded {
			logger.Info("图片已转码为 JPEG", "format", src.Format, "bytes", src.Bytes)
		}
		return p, err
	})
	if err != nil {
		return err
	}
	if res.Failed() {
		return res.Err
	}
	return vehicle.Render(out, res.Text, res.Fields)
}
