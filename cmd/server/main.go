// Package main 是服务端的入口点
package main

func main() {
	Execute()
}
