package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Feed level messages (info)
		"Feed started with %d providers":                        "%d 件のプロバイダーでフィードを開始しました",
		"Item %d from %s: %dx%d %s, %d frames, waited %d ms":    "アイテム %d (%s): %dx%d %s, %d フレーム, 待ち時間 %d ms",
		"Interrupted, shutting down...":                         "中断されました。シャットダウン中...",
		"Summary saved to %s":                                   "サマリーを %s に保存しました",
		"Failed to write summary: %s":                           "サマリーの書き込みに失敗しました: %s",
		"Placeholder unavailable: %v":                           "プレースホルダーを利用できません: %v",
		"Embedded resource unavailable: %v":                     "組み込みリソースを利用できません: %v",
		"Placeholder font unavailable, using built-in face: %v": "プレースホルダーのフォントを読み込めないため組み込みフォントを使用します: %v",

		// Multiplexer
		"Provider added: %s":                        "プロバイダーを追加しました: %s",
		"Provider removed: %s":                      "プロバイダーを削除しました: %s",
		"Provider %s joins %s":                      "プロバイダー %s は %s と同一として扱います",
		"Provider %s failed: %v":                    "プロバイダー %s が失敗しました: %v",
		"All providers exhausted, serving fallback": "全てのプロバイダーが失敗したため代替画像を表示します",
		"Preloader started (depth %d)":              "プリロードを開始しました (深さ %d)",
		"Preload failed: %v":                        "プリロードに失敗しました: %v",
		"Multiplexer closed":                        "マルチプレクサーを終了しました",

		// Providers
		"Downloading %s":                                 "%s をダウンロード中",
		"Refilled %d urls, %d queued":                    "URLを %d 件補充しました (キュー %d 件)",
		"Refill failed (%d/%d): %v":                      "補充に失敗しました (%d/%d): %v",
		"Provider offline after %d consecutive failures": "%d 回連続で失敗したためオフラインにします",
		"Provider back online":                           "プロバイダーがオンラインに復帰しました",
		"Probing offline provider":                       "オフラインのプロバイダーを確認中",
		"Injecting fault on call %d":                     "%d 回目の呼び出しで障害を注入します",

		// Decode stage
		"Decoded %s: %dx%d %s, %d frames, cycle %d ms": "%s をデコードしました: %dx%d %s, %d フレーム, 周期 %d ms",
		"Decode failed for %s: %v":                     "%s のデコードに失敗しました: %v",
		"Failed to encode debug record for %s: %v":     "%s のデバッグ記録のエンコードに失敗しました: %v",
		"Failed to save debug record for %s: %v":       "%s のデバッグ記録の保存に失敗しました: %v",
		"Failed to save debug frame %d of %s: %v":      "%[2]s のデバッグフレーム %[1]d の保存に失敗しました: %[3]v",

		// Upload stage
		"Uploaded %s: %s of textures":                "%s をアップロードしました: テクスチャ %s",
		"Upload failed for %s (%s): %v":              "%s のアップロードに失敗しました (%s): %v",
		"Upload aborted for %s: %v":                  "%s のアップロードを中止しました: %v",
		"Hand-off using fallback window of %d bytes": "予備ウィンドウ (%d バイト) で受け渡します",
		"Hand-off window refused for %d bytes: %v":   "%d バイトの受け渡しウィンドウを確保できません: %v",
		"Item ready: %s":                             "アイテムの準備ができました: %s",

		// Playback
		"Showing %s":                 "%s を表示中",
		"Showing fallback: %v":       "代替画像を表示中: %v",
		"Background take failed: %v": "バックグラウンドでの取得に失敗しました: %v",

		// Status server
		"Status server listening on %s": "ステータスサーバーを %s で待ち受け中",
		"Status server stopped: %v":     "ステータスサーバーが停止しました: %v",
		"Failed to encode status: %v":   "ステータスのエンコードに失敗しました: %v",
	})
}
