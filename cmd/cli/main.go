package main

import (
	"github.com/crucial707/hci-catalog/cmd/cli/logs"
	"github.com/crucial707/hci-catalog/cmd/cli/products"
	"github.com/crucial707/hci-catalog/cmd/cli/root"
)

func main() {
	rootCmd := root.GetRoot()
	products.InitProducts(rootCmd)
	logs.InitLogs(rootCmd)

	root.Execute()
}
