package main

import (
	"github.com/learnloop/coursechat/internal/server"
)

func main() {
	server.NewServer().Run()
}
