package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ! rewriteサブコマンドの引数。
type RewriteCmd struct {
	Root         string `arg:"positional,required" help:"書き換え対象のMarkdownディレクトリ"`
	CodeBase     string `arg:"positional,required" help:"ソースへのリンクの基準(パスまたはURL)"`
	DryRun       bool   `arg:"-n,--dry-run" help:"ファイルを書き換えずに予定だけ出力する"`
	Suffix       string `arg:"-s,--suffix" help:"指定するとディレクトリを<root><suffix>にコピーしてから処理する"`
	ConvertHtml  bool   `arg:"--convert-html" help:"先にHTMLファイルをMarkdownへ変換する"`
	RenamePrefix string `arg:"--rename-prefix" default:"_" help:"変換後の元HTMLファイル名に付与するプレフィックス"`
	Sidebar      bool   `arg:"--sidebar" help:"Wiki用の_Sidebar.mdを生成する"`
}

// ! checkサブコマンドの引数。
type CheckCmd struct {
	Root string `arg:"positional,required" help:"検査するディレクトリ"`
}

// ! rulesサブコマンドの引数。
type RulesCmd struct{}

// ! 引数を管理する構造体。
type Args struct {
	Rewrite *RewriteCmd `arg:"subcommand:rewrite" help:"タイトル付け・リネーム・リンク書き換えを行う"`
	Check   *CheckCmd   `arg:"subcommand:check" help:"リンク切れを検査する"`
	Rules   *RulesCmd   `arg:"subcommand:rules" help:"有効なルールをYAMLで出力する"`

	RulesFile string `arg:"-r,--rules,env:MD2WIKI_RULES" help:"ルールファイル(YAML)"`
	Verbose   bool   `arg:"-v,--verbose" help:"詳細なログを出力する"`
}

// グローバル変数。
var (
	args   Args
	parser *arg.Parser // ShowHelp() で使う

	logger   *zap.SugaredLogger
	logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	version  string = "debug build"   // makefileからビルドされると上書きされる。
	revision string = func() string { // {{{
		revision := ""
		modified := false
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					revision = setting.Value
					if len(setting.Value) > 7 {
						revision = setting.Value[:7] // 最初の7文字にする
					}
				}
				if setting.Key == "vcs.modified" {
					modified = setting.Value == "true"
				}
			}
		}
		if modified {
			revision = "develop+" + revision
		}
		return revision
	}() // }}}
)

// ! 初期化処理でログ設定を行う。時刻と呼び出し元だけの簡素な形式で標準エラーへ出す。
func init() {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), logLevel)
	logger = zap.New(core, zap.AddCaller()).Sugar()
}

// ! メイン関数。引数解析後にサブコマンドを実行する。
func main() {
	ParseArgs()
	if parser.Subcommand() == nil {
		ShowHelp("サブコマンドを指定してください。")
	}
	if args.Verbose {
		logLevel.SetLevel(zapcore.DebugLevel)
	}

	code, err := Run(args)
	_ = logger.Sync()
	if err != nil {
		panic(errors.Errorf("処理に失敗しました: %v", err))
	}
	os.Exit(code)
}

func (Args) Version() string {
	return GetVersion()
}

func (Args) Description() string {
	return "Markdownのドキュメントツリーを Wiki 公開用にタイトル付け・リネームし、内部リンクを書き換える。"
}

// ! サブコマンドを実行し終了コードを返す。
func Run(a Args) (int, error) {
	rules, err := LoadRules(a.RulesFile)
	if err != nil {
		return 1, err
	}
	compiled, err := rules.Compile()
	if err != nil {
		return 1, err
	}

	switch {
	case a.Rewrite != nil:
		report, err := RewriteTree(RewriteOptions{
			Root:         a.Rewrite.Root,
			CodeBase:     a.Rewrite.CodeBase,
			Rules:        compiled,
			DryRun:       a.Rewrite.DryRun,
			Suffix:       a.Rewrite.Suffix,
			ConvertHtml:  a.Rewrite.ConvertHtml,
			RenamePrefix: a.Rewrite.RenamePrefix,
			Sidebar:      a.Rewrite.Sidebar,
		})
		if err != nil {
			return 1, err
		}
		fmt.Printf("完了: %s (%d files, %d renamed, %d links rewritten, %d unresolved)\n",
			report.Root, report.Scanned, report.Renamed, report.Rewritten, len(report.Unresolved))
		return 0, nil

	case a.Check != nil:
		broken, err := CheckTree(a.Check.Root, compiled)
		if err != nil {
			return 1, err
		}
		for _, b := range broken {
			fmt.Printf("%s: %s\n", b.File, b.Target)
		}
		if len(broken) > 0 {
			return 1, nil
		}
		fmt.Println("リンク切れはありません")
		return 0, nil

	case a.Rules != nil:
		out, err := rules.YAML()
		if err != nil {
			return 1, err
		}
		fmt.Print(out)
		return 0, nil
	}

	return 1, errors.New("サブコマンドが指定されていません")
}

// ! ヘルプを出して終了する。サブコマンドまで解析できていればそのヘルプを出す。
func ShowHelp(post string) {
	buf := new(bytes.Buffer)
	if err := parser.WriteHelpForSubcommand(buf, parser.SubcommandNames()...); err != nil {
		buf.Reset()
		parser.WriteHelp(buf)
	}
	help := buf.String()
	help = strings.ReplaceAll(help, "display this help and exit", "ヘルプを出力する。")
	help = strings.ReplaceAll(help, "display version and exit", "バージョンを出力する。")
	fmt.Printf("%v\n", help)
	if len(post) != 0 {
		fmt.Println(post)
	}
	os.Exit(1)
}

func GetFileNameWithoutExt(path string) string {
	return filepath.Base(path[:len(path)-len(filepath.Ext(path))])
}

func GetVersion() string {
	if len(revision) == 0 {
		// go installでビルドされた場合、gitの情報がなくなる。その場合v0.0.0.のように末尾に.がついてしまうのを避ける。
		return fmt.Sprintf("%v version %v", GetFileNameWithoutExt(os.Args[0]), version)
	}
	return fmt.Sprintf("%v version %v.%v", GetFileNameWithoutExt(os.Args[0]), version, revision)
}

func ShowVersion() {
	fmt.Printf("%s\n", GetVersion())
	os.Exit(0)
}

// ! go-argを使用して引数を解析する。
func ParseArgs() {
	var err error
	parser, err = arg.NewParser(arg.Config{Program: GetFileNameWithoutExt(os.Args[0]), IgnoreEnv: false}, &args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", errors.Errorf("%v", err))
		os.Exit(1)
	}

	err = parser.Parse(os.Args[1:])
	switch {
	case err == arg.ErrHelp:
		ShowHelp("")
	case err == arg.ErrVersion:
		ShowVersion()
	case err != nil:
		ShowHelp(fmt.Sprintf("%v", errors.Errorf("%v", err)))
	}
}
