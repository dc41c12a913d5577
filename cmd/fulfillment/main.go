package main

import (
	"github.com/corray333/food-ordering/internal/app"
	"github.com/corray333/food-ordering/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewFulfillmentApp().Run()
}
