package main

import (
	"go.uber.org/fx"

	"github.com/osdesk/ostrack/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
