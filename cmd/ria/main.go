// Command ria scores reviewers and products in a review graph.
package main

import "github.com/papapumpkin/ria/cmd"

func main() {
	cmd.Execute()
}
