package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Providers":     "プロバイダー",
		"Queue":         "キュー",
		"Output":        "出力",
		"Debug":         "デバッグ",
		"Logging":       "ログ",

		// Commands
		"Stream animal pictures from public image APIs": "公開画像APIから動物の画像を配信",
		"Show version information":                      "バージョン情報を表示",
		"pawfeed version %s":                            "pawfeed バージョン %s",
		"Take items from the feed and log each one":     "フィードから画像を取得してログに出力",
		"Download and decode a single image URL":        "画像URLを1件ダウンロードしてデコード",
		"Decode a local image file":                     "ローカルの画像ファイルをデコード",

		// Common flags
		"YAML configuration file":                     "YAML設定ファイル",
		"Configuration preset (default, lowmem)":      "設定プリセット（default, lowmem）",
		"User-Agent of outbound requests":             "送信リクエストのUser-Agent",
		"HTTP request timeout in milliseconds":        "HTTPリクエストのタイムアウト（ミリ秒）",
		"Write decoded frames to the debug directory": "デコードしたフレームをデバッグディレクトリに書き出す",
		"Directory for debug output":                  "デバッグ出力のディレクトリ",
		"Log level (debug, info, warn, error)":        "ログレベル（debug, info, warn, error）",
		"Log format (console, json)":                  "ログ形式（console, json）",
		"Suppress all log output":                     "全てのログ出力を抑制",

		// Run flags
		"Enable only these providers (nekos_life, shibe_online, the_cat_api, static)": "指定したプロバイダーのみ有効化（nekos_life, shibe_online, the_cat_api, static）",
		"TheCatAPI breed id or name":                                                  "TheCatAPIの品種IDまたは品種名",
		"Serve local image files through the static provider":                         "ローカル画像ファイルを静的プロバイダーで配信",
		"Make every n-th static request fail":                                         "静的プロバイダーのn回目ごとのリクエストを失敗させる",
		"Maximum concurrent downloads":                                                "同時ダウンロード数の上限",
		"Number of GPU resident items kept ready":                                     "待機させるGPU常駐アイテム数",
		"Number of items to take (0 = until interrupted)":                             "取得するアイテム数（0 = 中断まで）",
		"Output run summary to file (Markdown, or JSON for .json paths)":              "実行サマリーをファイルに出力（Markdown形式、.json の場合は JSON）",
		"Serve /healthz, /status and /metrics on this address":                        "/healthz, /status, /metrics を提供するアドレス",

		// Errors
		"Error: %v":                 "エラー: %v",
		"URL argument is required":  "URL引数が必要です",
		"File argument is required": "ファイル引数が必要です",

		// Inspect output
		"Format: %s":                          "形式: %s",
		"Size: %dx%d":                         "サイズ: %dx%d",
		"Frames: %d, Cycle: %d ms":            "フレーム数: %d, 周期: %d ms",
		"Memory: %d bytes RAM, %d bytes VRAM": "メモリ: RAM %d バイト, VRAM %d バイト",

		// Summary content
		"Feed Summary":             "フィードサマリー",
		"Generated":                "生成日時",
		"Settings":                 "設定",
		"Setting":                  "項目",
		"Value":                    "値",
		"Preset":                   "プリセット",
		"Download Queue Depth":     "ダウンロードキュー深さ",
		"Preload Depth":            "プリロード深さ",
		"Display Interval":         "表示間隔",
		"No providers registered.": "登録されたプロバイダーはありません。",
		"Provider":                 "プロバイダー",
		"Status":                   "状態",
		"Requests":                 "リクエスト数",
		"Group":                    "グループ",
		"Online":                   "オンライン",
		"Offline":                  "オフライン",
		"Downloads In Flight":      "ダウンロード中",
		"Reserved":                 "待機中",
		"Tracked Items":            "追跡中のアイテム",
		"Items":                    "アイテム",
		"Creator":                  "提供元",
		"Size":                     "サイズ",
		"Frames":                   "フレーム数",
		"Wait":                     "待ち時間",
		"Source":                   "ソース",
		"Error":                    "エラー",
	})
}
