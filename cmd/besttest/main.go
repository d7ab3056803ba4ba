// Command besttest manages test assets and execution results.
package main

import "github.com/besttest/besttest/internal/cli"

func main() {
	cli.Execute()
}
