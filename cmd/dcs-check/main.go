package main

import (
	"context"

	"github.com/information-sharing-networks/dcs-checker/internal/cli"
)

func main() {
	cli.Execute(context.Background())
}
