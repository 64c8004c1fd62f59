// OrbitOS Operations backend daemon.
package main

import "github.com/orbitos/operations/internal/cli"

func main() {
	cli.Execute()
}
