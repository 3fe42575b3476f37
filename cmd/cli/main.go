package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"claims-platform/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}
	cmd := os.Args[1]
	args := os.Args[2:]
	switch cmd {
	case "version":
		fmt.Println("claims-platform cli 0.1.0")
	case "health":
		runHealth()
	case "config":
		runConfig()
	case "server":
		if len(args) > 0 && args[0] == "start" {
			runServerStart()
		} else {
			fmt.Fprintf(os.Stderr, "Usage: claimsctl server start\n")
			os.Exit(1)
		}
	case "decide":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: claimsctl decide <query...>\n")
			os.Exit(1)
		}
		runDecide(strings.Join(args, " "))
	case "analyze":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: claimsctl analyze <query...>\n")
			os.Exit(1)
		}
		runAnalyze(strings.Join(args, " "))
	case "upload":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: claimsctl upload <file>\n")
			os.Exit(1)
		}
		runUpload(args[0])
	case "documents":
		runDocuments()
	case "audit":
		sessionID := ""
		if len(args) > 0 {
			sessionID = args[0]
		}
		runAudit(sessionID)
	case "export":
		format := "json"
		if len(args) > 0 {
			format = args[0]
		}
		runExport(format)
	case "cache":
		runCacheStats()
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: claimsctl <command> [args]")
	fmt.Println("  version            - 显示版本")
	fmt.Println("  health             - API 健康检查")
	fmt.Println("  config             - 显示配置概要")
	fmt.Println("  server start       - 启动 API 服务（go run ./cmd/api）")
	fmt.Println("  decide <query...>  - 提交理赔查询并输出决策")
	fmt.Println("  analyze <query...> - 仅解析查询实体")
	fmt.Println("  upload <file>      - 上传保单文档（pdf/docx/eml/txt）")
	fmt.Println("  documents          - 列出保单文档")
	fmt.Println("  audit [session_id] - 列出审计条目")
	fmt.Println("  export [json|csv]  - 导出审计报告")
	fmt.Println("  cache              - 缓存统计")
}

func runHealth() {
	out, err := getHealth()
	if err != nil {
		fmt.Fprintf(os.Stderr, "健康检查failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}

func runConfig() {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置failed: %v\n", err)
		os.Exit(1)
	}
	if cfg != nil {
		fmt.Printf("api.port=%d\n", cfg.API.Port)
		fmt.Printf("api.host=%s\n", cfg.API.Host)
		fmt.Printf("cache.type=%s\n", cfg.Cache.Type)
		fmt.Printf("audit.store=%s\n", cfg.Audit.Store)
	}
}

func runServerStart() {
	c := exec.Command("go", "run", "./cmd/api")
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	c.Dir = "."
	if err := c.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "server start: %v\n", err)
		os.Exit(1)
	}
}

func runDecide(query string) {
	out, err := postDecide(query, os.Getenv("CLAIMS_SESSION_ID"), os.Getenv("CLAIMS_USER_ID"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "决策failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(formatDecision(out))
}

func runAnalyze(query string) {
	out, err := postAnalyze(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "解析failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}

func runUpload(path string) {
	out, err := uploadDocument(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "上传failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}

func runDocuments() {
	out, err := listDocuments()
	if err != nil {
		fmt.Fprintf(os.Stderr, "列出文档failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}

func runAudit(sessionID string) {
	out, err := listAuditEntries(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "列出审计failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}

func runExport(format string) {
	report, err := exportAudit(format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "导出failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(report)
}

func runCacheStats() {
	out, err := cacheStats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "缓存统计failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}

// formatDecision 终端友好的决策摘要
func formatDecision(d map[string]interface{}) string {
	var b strings.Builder
	status, _ := d["status"].(string)
	b.WriteString("Decision: " + strings.ToUpper(status))
	if amount, ok := d["amount"].(float64); ok && amount > 0 {
		b.WriteString(fmt.Sprintf("\nAmount:   %.0f", amount))
	}
	if conf, ok := d["confidence"].(float64); ok {
		b.WriteString(fmt.Sprintf("\nConfidence: %.2f", conf))
	}
	if just, ok := d["justification"].(string); ok && just != "" {
		b.WriteString("\nJustification: " + just)
	}
	if expl, ok := d["explanation"].(map[string]interface{}); ok {
		if summary, ok := expl["summary"].(string); ok && summary != "" {
			b.WriteString("\nSummary: " + summary)
		}
	}
	return b.String()
}
