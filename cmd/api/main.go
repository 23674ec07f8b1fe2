package main

import (
	"go.uber.org/fx"

	"github.com/fishtvlvoe/buygo/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
