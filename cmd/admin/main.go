// Command main provides maintenance utilities for the blog admin database.
package main

import "blogadmin/cmd/admin/commands"

func main() {
	commands.Execute()
}
