package main

import (
	"github.com/shouni/vision-weaver-kit/cmd"
)

// main はコマンドライン解析と実行を cmd パッケージに委ねます。
func main() {
	cmd.Execute()
}
