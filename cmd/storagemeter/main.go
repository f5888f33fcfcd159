// Package main is the entry point for storagemeter, a cloud-storage
// billing simulator. It replays time-ordered operation streams against
// metered storage units and computes monthly fee reports.
package main

func main() {
	Execute()
}
