// Command corobus runs producer and consumer workloads over a cooperative
// channel bus and reports what moved.
package main

func main() {
	Execute()
}
