// Command vetracker は陣痛記録APIサーバーを起動する。
//
// 使い方:
//
//	vetracker [serve|migrate|cleanup|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/vetracker/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "vetracker: %v\n", err)
		os.Exit(1)
	}
}
