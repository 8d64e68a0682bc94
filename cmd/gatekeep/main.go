// Command gatekeep consults governance personas from the terminal.
package main

func main() {
	Execute()
}
