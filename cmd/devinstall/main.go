// Command devinstall rebuilds a maturin extension wheel and reinstalls it
// into the active Python environment.
package main

import "github.com/chainner-org/devinstall/cmd/devinstall/internal"

func main() {
	internal.Execute()
}
