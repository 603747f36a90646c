package main

import (
	"github.com/connorholly11/purpose-voice/internal/bootstrap"
)

func main() {
	bootstrap.Run()
}
