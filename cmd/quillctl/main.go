// Command quillctl runs schema migrations, loads fixtures, trains the text
// classifier and prunes expired access tokens.
package main

import "github.com/quillhq/quill/internal/cli"

func main() {
	cli.Execute()
}
